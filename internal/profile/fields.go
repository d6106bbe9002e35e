// Package profile holds the student profile model shared by every extraction
// strategy: the field schema, unvalidated drafts, validated profiles with
// per-field provenance, the validator and the merge policy.
package profile

import "sort"

// Kind is the semantic type a field is coerced to during validation.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindEnum
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindEnum:
		return "enum"
	case KindList:
		return "string-list"
	default:
		return "unknown"
	}
}

// Section groups fields the way the profile editor shows them.
type Section string

const (
	SectionIdentity     Section = "identity"
	SectionProfessional Section = "professional"
	SectionPersonal     Section = "personal"
	SectionInterests    Section = "interests"
	SectionLearning     Section = "learning"
	SectionSocial       Section = "social"
)

// Field describes one recognized profile attribute.
type Field struct {
	Name        string
	Kind        Kind
	Section     Section
	Description string
	Enum        []string // allowed values for KindEnum, canonical lowercase
	NonNegative bool     // numeric fields only
}

// Recognized field names. These are also the keys of the structured mapping
// a text-generation service is asked to return.
const (
	FieldName           = "name"
	FieldGender         = "gender"
	FieldAgeRange       = "age_range"
	FieldNativeLanguage = "native_language"
	FieldOtherLanguages = "other_languages"

	FieldJobTitle          = "job_title"
	FieldJobDescription    = "job_description"
	FieldIndustry          = "industry"
	FieldYearsOfExperience = "years_of_experience"
	FieldWorkEnvironment   = "work_environment"

	FieldHometown              = "hometown"
	FieldCurrentCity           = "current_city"
	FieldYearsInCurrentCountry = "years_in_current_country"
	FieldFamilyStatus          = "family_status"
	FieldLivingSituation       = "living_situation"

	FieldHobbies            = "hobbies"
	FieldSports             = "sports"
	FieldInterests          = "interests"
	FieldFavoriteActivities = "favorite_activities"
	FieldFavoriteFoods      = "favorite_foods"
	FieldTravelExperience   = "travel_experience"
	FieldCulturalInterests  = "cultural_interests"
	FieldMusicPreferences   = "music_preferences"

	FieldReasonForLearning      = "reason_for_learning"
	FieldEnglishUsageContext    = "english_usage_context"
	FieldLearningGoals          = "learning_goals"
	FieldPreferredLearningStyle = "preferred_learning_style"
	FieldEnglishLevel           = "english_level"

	FieldCommunicationStyle  = "communication_style"
	FieldGroupWorkPreference = "group_work_preference"
	FieldSocialInterests     = "social_interests"
)

// EnglishLevel is the enumerated proficiency scale.
type EnglishLevel string

const (
	LevelBeginner     EnglishLevel = "beginner"
	LevelIntermediate EnglishLevel = "intermediate"
	LevelAdvanced     EnglishLevel = "advanced"
	LevelFluent       EnglishLevel = "fluent"
)

// EnglishLevels lists the proficiency scale from lowest to highest.
func EnglishLevels() []string {
	return []string{string(LevelBeginner), string(LevelIntermediate), string(LevelAdvanced), string(LevelFluent)}
}

var schema = []Field{
	{Name: FieldName, Kind: KindString, Section: SectionIdentity, Description: "given and family name"},
	{Name: FieldGender, Kind: KindString, Section: SectionIdentity, Description: "gender identity if stated"},
	{Name: FieldAgeRange, Kind: KindString, Section: SectionIdentity, Description: "age or age bracket, e.g. \"28 years old\""},
	{Name: FieldNativeLanguage, Kind: KindString, Section: SectionIdentity, Description: "first language"},
	{Name: FieldOtherLanguages, Kind: KindList, Section: SectionIdentity, Description: "other spoken languages"},

	{Name: FieldJobTitle, Kind: KindString, Section: SectionProfessional, Description: "current job position"},
	{Name: FieldJobDescription, Kind: KindString, Section: SectionProfessional, Description: "work responsibilities"},
	{Name: FieldIndustry, Kind: KindString, Section: SectionProfessional, Description: "industry sector"},
	{Name: FieldYearsOfExperience, Kind: KindInt, Section: SectionProfessional, Description: "whole years of work experience", NonNegative: true},
	{Name: FieldWorkEnvironment, Kind: KindString, Section: SectionProfessional, Description: "office, remote, hybrid, ..."},

	{Name: FieldHometown, Kind: KindString, Section: SectionPersonal, Description: "city or town of origin"},
	{Name: FieldCurrentCity, Kind: KindString, Section: SectionPersonal, Description: "current city of residence"},
	{Name: FieldYearsInCurrentCountry, Kind: KindFloat, Section: SectionPersonal, Description: "years lived in the current country", NonNegative: true},
	{Name: FieldFamilyStatus, Kind: KindString, Section: SectionPersonal, Description: "marital or family situation"},
	{Name: FieldLivingSituation, Kind: KindString, Section: SectionPersonal, Description: "current living arrangements"},

	{Name: FieldHobbies, Kind: KindList, Section: SectionInterests, Description: "recreational activities"},
	{Name: FieldSports, Kind: KindList, Section: SectionInterests, Description: "sports played or followed"},
	{Name: FieldInterests, Kind: KindList, Section: SectionInterests, Description: "general interests"},
	{Name: FieldFavoriteActivities, Kind: KindList, Section: SectionInterests, Description: "preferred pastimes"},
	{Name: FieldFavoriteFoods, Kind: KindList, Section: SectionInterests, Description: "preferred cuisines or dishes"},
	{Name: FieldTravelExperience, Kind: KindList, Section: SectionInterests, Description: "places visited or lived"},
	{Name: FieldCulturalInterests, Kind: KindList, Section: SectionInterests, Description: "cultural activities"},
	{Name: FieldMusicPreferences, Kind: KindList, Section: SectionInterests, Description: "preferred music genres"},

	{Name: FieldReasonForLearning, Kind: KindString, Section: SectionLearning, Description: "motivation for studying English"},
	{Name: FieldEnglishUsageContext, Kind: KindList, Section: SectionLearning, Description: "situations where English is used"},
	{Name: FieldLearningGoals, Kind: KindList, Section: SectionLearning, Description: "study objectives"},
	{Name: FieldPreferredLearningStyle, Kind: KindList, Section: SectionLearning, Description: "preferred learning methods"},
	{Name: FieldEnglishLevel, Kind: KindEnum, Section: SectionLearning, Description: "English proficiency", Enum: EnglishLevels()},

	{Name: FieldCommunicationStyle, Kind: KindString, Section: SectionSocial, Description: "preferred way of communicating"},
	{Name: FieldGroupWorkPreference, Kind: KindBool, Section: SectionSocial, Description: "whether the student likes group work"},
	{Name: FieldSocialInterests, Kind: KindList, Section: SectionSocial, Description: "social activities"},
}

var byName = func() map[string]Field {
	m := make(map[string]Field, len(schema))
	for _, f := range schema {
		m[f.Name] = f
	}
	return m
}()

// Fields returns the schema in declaration order.
func Fields() []Field {
	out := make([]Field, len(schema))
	copy(out, schema)
	return out
}

// Lookup returns the field definition for name.
func Lookup(name string) (Field, bool) {
	f, ok := byName[name]
	return f, ok
}

// IsRecognized reports whether name is a profile attribute.
func IsRecognized(name string) bool {
	_, ok := byName[name]
	return ok
}

// IsList reports whether name is a list-valued field.
func IsList(name string) bool {
	f, ok := byName[name]
	return ok && f.Kind == KindList
}

// RequiredFields are the attributes a stored student record cannot lack.
func RequiredFields() []string {
	return []string{FieldName, FieldEnglishLevel}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
