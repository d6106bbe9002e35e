package profile

// StudentProfile is the canonical student record handed to persistence.
// Optional scalars are zero (or nil for numbers and booleans) when unknown.
type StudentProfile struct {
	// identity
	Name           string   `json:"name,omitempty"`
	Gender         string   `json:"gender,omitempty"`
	AgeRange       string   `json:"age_range,omitempty"`
	NativeLanguage string   `json:"native_language,omitempty"`
	OtherLanguages []string `json:"other_languages,omitempty"`

	// professional
	JobTitle          string `json:"job_title,omitempty"`
	JobDescription    string `json:"job_description,omitempty"`
	Industry          string `json:"industry,omitempty"`
	YearsOfExperience *int   `json:"years_of_experience,omitempty"`
	WorkEnvironment   string `json:"work_environment,omitempty"`

	// personal
	Hometown              string   `json:"hometown,omitempty"`
	CurrentCity           string   `json:"current_city,omitempty"`
	YearsInCurrentCountry *float64 `json:"years_in_current_country,omitempty"`
	FamilyStatus          string   `json:"family_status,omitempty"`
	LivingSituation       string   `json:"living_situation,omitempty"`

	// interests
	Hobbies            []string `json:"hobbies,omitempty"`
	Sports             []string `json:"sports,omitempty"`
	Interests          []string `json:"interests,omitempty"`
	FavoriteActivities []string `json:"favorite_activities,omitempty"`
	FavoriteFoods      []string `json:"favorite_foods,omitempty"`
	TravelExperience   []string `json:"travel_experience,omitempty"`
	CulturalInterests  []string `json:"cultural_interests,omitempty"`
	MusicPreferences   []string `json:"music_preferences,omitempty"`

	// learning
	ReasonForLearning      string       `json:"reason_for_learning,omitempty"`
	EnglishUsageContext    []string     `json:"english_usage_context,omitempty"`
	LearningGoals          []string     `json:"learning_goals,omitempty"`
	PreferredLearningStyle []string     `json:"preferred_learning_style,omitempty"`
	EnglishLevel           EnglishLevel `json:"english_level,omitempty"`

	// social
	CommunicationStyle  string   `json:"communication_style,omitempty"`
	GroupWorkPreference *bool    `json:"group_work_preference,omitempty"`
	SocialInterests     []string `json:"social_interests,omitempty"`

	Provenance map[string]Source `json:"provenance,omitempty"`
}

type accessor struct {
	get func(p *StudentProfile) (any, bool)
	set func(p *StudentProfile, v any)
}

func strField(ptr func(p *StudentProfile) *string) accessor {
	return accessor{
		get: func(p *StudentProfile) (any, bool) {
			s := *ptr(p)
			return s, s != ""
		},
		set: func(p *StudentProfile, v any) { *ptr(p), _ = v.(string) },
	}
}

func listField(ptr func(p *StudentProfile) *[]string) accessor {
	return accessor{
		get: func(p *StudentProfile) (any, bool) {
			l := *ptr(p)
			return cloneList(l), len(l) > 0
		},
		set: func(p *StudentProfile, v any) {
			l, _ := v.([]string)
			*ptr(p) = cloneList(l)
		},
	}
}

var accessors = map[string]accessor{
	FieldName:           strField(func(p *StudentProfile) *string { return &p.Name }),
	FieldGender:         strField(func(p *StudentProfile) *string { return &p.Gender }),
	FieldAgeRange:       strField(func(p *StudentProfile) *string { return &p.AgeRange }),
	FieldNativeLanguage: strField(func(p *StudentProfile) *string { return &p.NativeLanguage }),
	FieldOtherLanguages: listField(func(p *StudentProfile) *[]string { return &p.OtherLanguages }),

	FieldJobTitle:       strField(func(p *StudentProfile) *string { return &p.JobTitle }),
	FieldJobDescription: strField(func(p *StudentProfile) *string { return &p.JobDescription }),
	FieldIndustry:       strField(func(p *StudentProfile) *string { return &p.Industry }),
	FieldYearsOfExperience: {
		get: func(p *StudentProfile) (any, bool) {
			if p.YearsOfExperience == nil {
				return nil, false
			}
			return *p.YearsOfExperience, true
		},
		set: func(p *StudentProfile, v any) {
			if n, ok := v.(int); ok {
				p.YearsOfExperience = &n
			}
		},
	},
	FieldWorkEnvironment: strField(func(p *StudentProfile) *string { return &p.WorkEnvironment }),

	FieldHometown:    strField(func(p *StudentProfile) *string { return &p.Hometown }),
	FieldCurrentCity: strField(func(p *StudentProfile) *string { return &p.CurrentCity }),
	FieldYearsInCurrentCountry: {
		get: func(p *StudentProfile) (any, bool) {
			if p.YearsInCurrentCountry == nil {
				return nil, false
			}
			return *p.YearsInCurrentCountry, true
		},
		set: func(p *StudentProfile, v any) {
			if f, ok := v.(float64); ok {
				p.YearsInCurrentCountry = &f
			}
		},
	},
	FieldFamilyStatus:    strField(func(p *StudentProfile) *string { return &p.FamilyStatus }),
	FieldLivingSituation: strField(func(p *StudentProfile) *string { return &p.LivingSituation }),

	FieldHobbies:            listField(func(p *StudentProfile) *[]string { return &p.Hobbies }),
	FieldSports:             listField(func(p *StudentProfile) *[]string { return &p.Sports }),
	FieldInterests:          listField(func(p *StudentProfile) *[]string { return &p.Interests }),
	FieldFavoriteActivities: listField(func(p *StudentProfile) *[]string { return &p.FavoriteActivities }),
	FieldFavoriteFoods:      listField(func(p *StudentProfile) *[]string { return &p.FavoriteFoods }),
	FieldTravelExperience:   listField(func(p *StudentProfile) *[]string { return &p.TravelExperience }),
	FieldCulturalInterests:  listField(func(p *StudentProfile) *[]string { return &p.CulturalInterests }),
	FieldMusicPreferences:   listField(func(p *StudentProfile) *[]string { return &p.MusicPreferences }),

	FieldReasonForLearning:      strField(func(p *StudentProfile) *string { return &p.ReasonForLearning }),
	FieldEnglishUsageContext:    listField(func(p *StudentProfile) *[]string { return &p.EnglishUsageContext }),
	FieldLearningGoals:          listField(func(p *StudentProfile) *[]string { return &p.LearningGoals }),
	FieldPreferredLearningStyle: listField(func(p *StudentProfile) *[]string { return &p.PreferredLearningStyle }),
	FieldEnglishLevel: {
		get: func(p *StudentProfile) (any, bool) {
			return string(p.EnglishLevel), p.EnglishLevel != ""
		},
		set: func(p *StudentProfile, v any) {
			s, _ := v.(string)
			p.EnglishLevel = EnglishLevel(s)
		},
	},

	FieldCommunicationStyle: strField(func(p *StudentProfile) *string { return &p.CommunicationStyle }),
	FieldGroupWorkPreference: {
		get: func(p *StudentProfile) (any, bool) {
			if p.GroupWorkPreference == nil {
				return nil, false
			}
			return *p.GroupWorkPreference, true
		},
		set: func(p *StudentProfile, v any) {
			if b, ok := v.(bool); ok {
				p.GroupWorkPreference = &b
			}
		},
	},
	FieldSocialInterests: listField(func(p *StudentProfile) *[]string { return &p.SocialInterests }),
}

// Value returns the typed value of a present field.
func (p *StudentProfile) Value(name string) (any, bool) {
	if p == nil {
		return nil, false
	}
	a, ok := accessors[name]
	if !ok {
		return nil, false
	}
	return a.get(p)
}

// values collects every present field.
func (p *StudentProfile) values() map[string]any {
	out := map[string]any{}
	if p == nil {
		return out
	}
	for name, a := range accessors {
		if v, ok := a.get(p); ok {
			out[name] = v
		}
	}
	return out
}

// SourceOf returns the recorded provenance of a field.
func (p *StudentProfile) SourceOf(name string) Source {
	if p == nil || p.Provenance == nil {
		return SourceUnknown
	}
	return p.Provenance[name]
}

// Draft converts the record back into an unvalidated draft, e.g. to re-run
// it through the validator or to merge one stored profile into another.
func (p *StudentProfile) Draft(src Source) *Draft {
	d := NewDraft(src)
	for name, v := range p.values() {
		s := p.SourceOf(name)
		if s == SourceUnknown {
			s = src
		}
		d.SetFrom(name, v, s)
	}
	return d
}

// Clone returns a deep copy.
func (p *StudentProfile) Clone() StudentProfile {
	if p == nil {
		return StudentProfile{}
	}
	out := buildProfile(p.values(), p.Provenance)
	return out
}

// Missing returns the required fields that are absent.
func (p *StudentProfile) Missing() []FieldDefect {
	var defects []FieldDefect
	for _, name := range RequiredFields() {
		if _, ok := p.Value(name); !ok {
			defects = append(defects, FieldDefect{Field: name, Reason: "is required"})
		}
	}
	return defects
}

func buildProfile(values map[string]any, provenance map[string]Source) StudentProfile {
	var p StudentProfile
	for name, v := range values {
		if a, ok := accessors[name]; ok {
			a.set(&p, v)
		}
	}
	if len(provenance) > 0 {
		p.Provenance = make(map[string]Source, len(provenance))
		for k, s := range provenance {
			if _, ok := values[k]; ok {
				p.Provenance[k] = s
			}
		}
	}
	return p
}

func cloneList(l []string) []string {
	if l == nil {
		return nil
	}
	out := make([]string, len(l))
	copy(out, l)
	return out
}
