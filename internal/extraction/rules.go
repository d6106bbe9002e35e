package extraction

import (
	"regexp"
	"strings"

	"github.com/yoockh/eslsheets/internal/profile"
	"github.com/yoockh/eslsheets/internal/providers/nlp"
)

// rule fills zero or more draft fields from an analysed transcript. Rules are
// independent of each other and of the order they run in.
type rule struct {
	name string
	run  func(doc *nlp.Doc, d *profile.Draft)
}

var (
	ageRe = regexp.MustCompile(`(?i)\b\d{1,2}(?:-\d{1,2})?\s*(?:years?[ -]old|yo)\b`)

	experienceRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(\d+)\s*years?\s*(?:of\s+)?experience\b`),
		regexp.MustCompile(`(?i)\b(?:work|working|worked)\b[^.!?]*?\bfor\s+(\d+)\s*years?\b`),
	}
	inCountryRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*years?\s*(?:in|living in)\b`),
		regexp.MustCompile(`(?i)\b(?:moved|came|arrived|relocated)\b[^.!?]*?\b(\d+(?:\.\d+)?)\s*years?\s+ago\b`),
	}

	languageIndicators = []string{"native language", "mother tongue", "first language"}
	levelIndicators    = []string{"level", "proficiency", "english"}
	jobIndicators      = []string{"work as", "working as", "worked as", "job is", "position is", "profession is"}
	hometownIndicators = []string{"from", "grew up in", "born in"}
	currentIndicators  = []string{"live in", "living in", "moved to", "currently in"}

	leadingDeterminers = []string{"a ", "an ", "the ", "my "}
)

// categoryKeywords trigger list extraction. Sets overlap ("enjoy" feeds both
// hobbies and interests) so one phrase can land in several lists.
var categoryKeywords = []struct {
	field    string
	keywords []string
}{
	{profile.FieldHobbies, []string{"hobby", "hobbies", "enjoy", "like to", "free time", "pastime"}},
	{profile.FieldSports, []string{"sport", "exercise", "workout", "training", "play", "game"}},
	{profile.FieldInterests, []string{"interested in", "passion", "love", "enjoy"}},
	{profile.FieldLearningGoals, []string{"goal", "want to", "improve", "better at", "learn"}},
	{profile.FieldWorkEnvironment, []string{"office", "remote", "hybrid", "workplace", "work from home"}},
}

func defaultRules() []rule {
	rules := []rule{
		{"name", extractName},
		{"age_range", extractAge},
		{"native_language", extractNativeLanguage},
		{"english_level", extractEnglishLevel},
		{"job_title", extractJobTitle},
		{"years_of_experience", patternRule(profile.FieldYearsOfExperience, experienceRes)},
		{"years_in_current_country", patternRule(profile.FieldYearsInCurrentCountry, inCountryRes)},
		{"hometown", locationRule(profile.FieldHometown, hometownIndicators)},
		{"current_city", locationRule(profile.FieldCurrentCity, currentIndicators)},
	}
	for _, c := range categoryKeywords {
		rules = append(rules, rule{c.field, categoryRule(c.field, c.keywords)})
	}
	return rules
}

func extractName(doc *nlp.Doc, d *profile.Draft) {
	for _, s := range doc.Sentences {
		for _, e := range s.Entities {
			if e.Label == nlp.LabelPerson && len(strings.Fields(e.Text)) >= 2 {
				d.Set(profile.FieldName, e.Text)
				return
			}
		}
	}
}

func extractAge(doc *nlp.Doc, d *profile.Draft) {
	if m := ageRe.FindString(doc.Text); m != "" {
		d.Set(profile.FieldAgeRange, m)
	}
}

func extractNativeLanguage(doc *nlp.Doc, d *profile.Draft) {
	for _, s := range doc.Sentences {
		if _, end := findAny(s.Text, languageIndicators); end < 0 {
			continue
		}
		for _, e := range s.Entities {
			if e.Label == nlp.LabelLanguage {
				d.Set(profile.FieldNativeLanguage, e.Text)
				return
			}
		}
	}
}

func extractEnglishLevel(doc *nlp.Doc, d *profile.Draft) {
	for _, s := range doc.Sentences {
		lower := strings.ToLower(s.Text)
		if !containsAny(lower, levelIndicators) {
			continue
		}
		for _, level := range profile.EnglishLevels() {
			if strings.Contains(lower, level) {
				d.Set(profile.FieldEnglishLevel, level)
				return
			}
		}
	}
}

// extractJobTitle takes the first noun phrase starting after a job indicator.
func extractJobTitle(doc *nlp.Doc, d *profile.Draft) {
	for _, s := range doc.Sentences {
		_, end := findAny(s.Text, jobIndicators)
		if end < 0 {
			continue
		}
		for _, c := range s.Chunks {
			if c.Start >= end {
				d.Set(profile.FieldJobTitle, stripDeterminer(c.Text))
				return
			}
		}
	}
}

func patternRule(field string, res []*regexp.Regexp) func(*nlp.Doc, *profile.Draft) {
	return func(doc *nlp.Doc, d *profile.Draft) {
		for _, re := range res {
			if m := re.FindStringSubmatch(doc.Text); len(m) > 1 {
				d.Set(field, m[1])
				return
			}
		}
	}
}

// locationRule prefers the nearest place entity after the indicator, then
// the earliest place entity in the same sentence.
func locationRule(field string, indicators []string) func(*nlp.Doc, *profile.Draft) {
	return func(doc *nlp.Doc, d *profile.Draft) {
		for _, s := range doc.Sentences {
			_, end := findAnyWord(s.Text, indicators)
			if end < 0 {
				continue
			}
			var after, first *nlp.Entity
			for i := range s.Entities {
				e := &s.Entities[i]
				if !nlp.IsPlace(e.Label) {
					continue
				}
				if first == nil || e.Start < first.Start {
					first = e
				}
				if e.Start >= end && (after == nil || e.Start < after.Start) {
					after = e
				}
			}
			switch {
			case after != nil:
				d.Set(field, after.Text)
				return
			case first != nil:
				d.Set(field, first.Text)
				return
			}
		}
	}
}

func categoryRule(field string, keywords []string) func(*nlp.Doc, *profile.Draft) {
	return func(doc *nlp.Doc, d *profile.Draft) {
		var found []string
		for _, s := range doc.Sentences {
			if !containsAny(strings.ToLower(s.Text), keywords) {
				continue
			}
			for _, c := range s.Chunks {
				text := strings.TrimSpace(c.Text)
				if text == "" || containsAny(strings.ToLower(text), keywords) {
					continue
				}
				found = append(found, text)
			}
		}
		if len(found) > 0 {
			d.Set(field, dedupe(found))
		}
	}
}

func containsAny(lower string, subs []string) bool {
	for _, s := range subs {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// findAny returns the byte span of the earliest indicator in text, matched
// case-insensitively, or -1, -1.
func findAny(text string, indicators []string) (int, int) {
	return earliest(text, indicators, false)
}

// findAnyWord is findAny restricted to whole-word matches.
func findAnyWord(text string, indicators []string) (int, int) {
	return earliest(text, indicators, true)
}

func earliest(text string, indicators []string, wholeWord bool) (int, int) {
	lower := strings.ToLower(text)
	if len(lower) != len(text) {
		// case folding changed byte lengths; offsets would not line up
		lower = text
	}
	bestStart, bestEnd := -1, -1
	for _, ind := range indicators {
		from := 0
		for {
			i := strings.Index(lower[from:], ind)
			if i < 0 {
				break
			}
			start := from + i
			end := start + len(ind)
			if !wholeWord || (isBoundary(lower, start-1) && isBoundary(lower, end)) {
				if bestStart < 0 || start < bestStart {
					bestStart, bestEnd = start, end
				}
				break
			}
			from = start + 1
		}
	}
	return bestStart, bestEnd
}

func isBoundary(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return true
	}
	c := s[i]
	return !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9')
}

func stripDeterminer(s string) string {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	for _, det := range leadingDeterminers {
		if strings.HasPrefix(lower, det) {
			return strings.TrimSpace(s[len(det):])
		}
	}
	return s
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}
