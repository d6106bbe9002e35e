package extraction

import (
	"fmt"
	"strings"

	"github.com/yoockh/eslsheets/internal/profile"
)

// BuildPrompt renders the fixed instruction sent with every transcript.
func BuildPrompt() string {
	var sb strings.Builder
	sb.WriteString("You are an expert at extracting structured student information from ESL interview transcripts.\n")
	sb.WriteString("Return a single flat JSON object. Use only the keys listed below and omit any key the transcript ")
	sb.WriteString("gives no evidence for; never guess, never use empty strings or placeholder values.\n\nKeys:\n")
	for _, f := range profile.Fields() {
		fmt.Fprintf(&sb, "- %s (%s): %s", f.Name, kindHint(f), f.Description)
		sb.WriteString("\n")
	}
	sb.WriteString("\nList values are arrays of short phrases without duplicates.")
	return sb.String()
}

func kindHint(f profile.Field) string {
	switch f.Kind {
	case profile.KindEnum:
		return "one of " + strings.Join(f.Enum, "|")
	case profile.KindList:
		return "array of strings"
	case profile.KindInt:
		return "non-negative integer"
	case profile.KindFloat:
		return "non-negative number"
	case profile.KindBool:
		return "boolean"
	default:
		return "string"
	}
}
