package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"

	"github.com/yoockh/eslsheets/internal/profile"
)

// StudentProfile is the stored student record. Optional numbers are
// nullable columns; list fields are text[].
type StudentProfile struct {
	ID string `gorm:"column:id;type:uuid;primaryKey" json:"id"`

	Name           string         `gorm:"column:name;type:text;not null" json:"name"`
	Gender         string         `gorm:"column:gender;type:text" json:"gender,omitempty"`
	AgeRange       string         `gorm:"column:age_range;type:text" json:"age_range,omitempty"`
	NativeLanguage string         `gorm:"column:native_language;type:text" json:"native_language,omitempty"`
	OtherLanguages pq.StringArray `gorm:"column:other_languages;type:text[]" json:"other_languages,omitempty"`

	JobTitle          string `gorm:"column:job_title;type:text" json:"job_title,omitempty"`
	JobDescription    string `gorm:"column:job_description;type:text" json:"job_description,omitempty"`
	Industry          string `gorm:"column:industry;type:text" json:"industry,omitempty"`
	YearsOfExperience *int   `gorm:"column:years_of_experience;type:integer" json:"years_of_experience,omitempty"`
	WorkEnvironment   string `gorm:"column:work_environment;type:text" json:"work_environment,omitempty"`

	Hometown              string   `gorm:"column:hometown;type:text" json:"hometown,omitempty"`
	CurrentCity           string   `gorm:"column:current_city;type:text" json:"current_city,omitempty"`
	YearsInCurrentCountry *float64 `gorm:"column:years_in_current_country;type:double precision" json:"years_in_current_country,omitempty"`
	FamilyStatus          string   `gorm:"column:family_status;type:text" json:"family_status,omitempty"`
	LivingSituation       string   `gorm:"column:living_situation;type:text" json:"living_situation,omitempty"`

	Hobbies            pq.StringArray `gorm:"column:hobbies;type:text[]" json:"hobbies,omitempty"`
	Sports             pq.StringArray `gorm:"column:sports;type:text[]" json:"sports,omitempty"`
	Interests          pq.StringArray `gorm:"column:interests;type:text[]" json:"interests,omitempty"`
	FavoriteActivities pq.StringArray `gorm:"column:favorite_activities;type:text[]" json:"favorite_activities,omitempty"`
	FavoriteFoods      pq.StringArray `gorm:"column:favorite_foods;type:text[]" json:"favorite_foods,omitempty"`
	TravelExperience   pq.StringArray `gorm:"column:travel_experience;type:text[]" json:"travel_experience,omitempty"`
	CulturalInterests  pq.StringArray `gorm:"column:cultural_interests;type:text[]" json:"cultural_interests,omitempty"`
	MusicPreferences   pq.StringArray `gorm:"column:music_preferences;type:text[]" json:"music_preferences,omitempty"`

	ReasonForLearning      string         `gorm:"column:reason_for_learning;type:text" json:"reason_for_learning,omitempty"`
	EnglishUsageContext    pq.StringArray `gorm:"column:english_usage_context;type:text[]" json:"english_usage_context,omitempty"`
	LearningGoals          pq.StringArray `gorm:"column:learning_goals;type:text[]" json:"learning_goals,omitempty"`
	PreferredLearningStyle pq.StringArray `gorm:"column:preferred_learning_style;type:text[]" json:"preferred_learning_style,omitempty"`
	EnglishLevel           string         `gorm:"column:english_level;type:text;not null" json:"english_level"`

	CommunicationStyle  string         `gorm:"column:communication_style;type:text" json:"communication_style,omitempty"`
	GroupWorkPreference *bool          `gorm:"column:group_work_preference;type:boolean" json:"group_work_preference,omitempty"`
	SocialInterests     pq.StringArray `gorm:"column:social_interests;type:text[]" json:"social_interests,omitempty"`

	// field name -> source that produced the value
	Provenance datatypes.JSON `gorm:"column:provenance;type:jsonb" json:"provenance,omitempty"`

	// bumped on every write
	Version   int64     `gorm:"column:version;type:bigint;not null;default:1" json:"version"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (StudentProfile) TableName() string { return "student_profiles" }

// Domain converts the row to the profile package's record. A provenance
// column that does not decode is an error; the record is still returned,
// without provenance.
func (s *StudentProfile) Domain() (profile.StudentProfile, error) {
	p := profile.StudentProfile{
		Name:                   s.Name,
		Gender:                 s.Gender,
		AgeRange:               s.AgeRange,
		NativeLanguage:         s.NativeLanguage,
		OtherLanguages:         list(s.OtherLanguages),
		JobTitle:               s.JobTitle,
		JobDescription:         s.JobDescription,
		Industry:               s.Industry,
		YearsOfExperience:      s.YearsOfExperience,
		WorkEnvironment:        s.WorkEnvironment,
		Hometown:               s.Hometown,
		CurrentCity:            s.CurrentCity,
		YearsInCurrentCountry:  s.YearsInCurrentCountry,
		FamilyStatus:           s.FamilyStatus,
		LivingSituation:        s.LivingSituation,
		Hobbies:                list(s.Hobbies),
		Sports:                 list(s.Sports),
		Interests:              list(s.Interests),
		FavoriteActivities:     list(s.FavoriteActivities),
		FavoriteFoods:          list(s.FavoriteFoods),
		TravelExperience:       list(s.TravelExperience),
		CulturalInterests:      list(s.CulturalInterests),
		MusicPreferences:       list(s.MusicPreferences),
		ReasonForLearning:      s.ReasonForLearning,
		EnglishUsageContext:    list(s.EnglishUsageContext),
		LearningGoals:          list(s.LearningGoals),
		PreferredLearningStyle: list(s.PreferredLearningStyle),
		EnglishLevel:           profile.EnglishLevel(s.EnglishLevel),
		CommunicationStyle:     s.CommunicationStyle,
		GroupWorkPreference:    s.GroupWorkPreference,
		SocialInterests:        list(s.SocialInterests),
	}
	if len(s.Provenance) > 0 {
		if err := json.Unmarshal(s.Provenance, &p.Provenance); err != nil {
			p.Provenance = nil
			return p, fmt.Errorf("student %s: decode provenance: %w", s.ID, err)
		}
	}
	return p, nil
}

// Apply overwrites every profile column of the row with p. Identity and
// bookkeeping columns are left alone.
func (s *StudentProfile) Apply(p profile.StudentProfile) {
	s.Name = p.Name
	s.Gender = p.Gender
	s.AgeRange = p.AgeRange
	s.NativeLanguage = p.NativeLanguage
	s.OtherLanguages = pq.StringArray(p.OtherLanguages)
	s.JobTitle = p.JobTitle
	s.JobDescription = p.JobDescription
	s.Industry = p.Industry
	s.YearsOfExperience = p.YearsOfExperience
	s.WorkEnvironment = p.WorkEnvironment
	s.Hometown = p.Hometown
	s.CurrentCity = p.CurrentCity
	s.YearsInCurrentCountry = p.YearsInCurrentCountry
	s.FamilyStatus = p.FamilyStatus
	s.LivingSituation = p.LivingSituation
	s.Hobbies = pq.StringArray(p.Hobbies)
	s.Sports = pq.StringArray(p.Sports)
	s.Interests = pq.StringArray(p.Interests)
	s.FavoriteActivities = pq.StringArray(p.FavoriteActivities)
	s.FavoriteFoods = pq.StringArray(p.FavoriteFoods)
	s.TravelExperience = pq.StringArray(p.TravelExperience)
	s.CulturalInterests = pq.StringArray(p.CulturalInterests)
	s.MusicPreferences = pq.StringArray(p.MusicPreferences)
	s.ReasonForLearning = p.ReasonForLearning
	s.EnglishUsageContext = pq.StringArray(p.EnglishUsageContext)
	s.LearningGoals = pq.StringArray(p.LearningGoals)
	s.PreferredLearningStyle = pq.StringArray(p.PreferredLearningStyle)
	s.EnglishLevel = string(p.EnglishLevel)
	s.CommunicationStyle = p.CommunicationStyle
	s.GroupWorkPreference = p.GroupWorkPreference
	s.SocialInterests = pq.StringArray(p.SocialInterests)

	s.Provenance = nil
	if len(p.Provenance) > 0 {
		if b, err := json.Marshal(p.Provenance); err == nil {
			s.Provenance = datatypes.JSON(b)
		}
	}
}

func list(a pq.StringArray) []string {
	if len(a) == 0 {
		return nil
	}
	return []string(a)
}
