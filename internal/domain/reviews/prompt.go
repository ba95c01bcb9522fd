package reviews

import (
	"fmt"
	"strings"
)

// SystemPrompt provides the perspective's directions plus the strict JSON
// schema the model must follow.
func SystemPrompt(p PerspectiveConfig) string {
	var b strings.Builder
	b.WriteString(p.Instructions)
	b.WriteString(`

You must produce one valid JSON object only (no markdown, no commentary). Do not include code fences.

Requirements:
- Output must be a single JSON object.
- Use lowercase severity values: critical, high, medium, low, info.
- issues is an array of objects; include at least a title, severity, and description. Keep items concise.
- line is the 1-based line number the issue refers to, or omit it.
- An empty issues array is a valid answer for clean code.

Schema (example with empty values):
{
  "issues": [
    {
      "severity": "<critical|high|medium|low|info>",
      "title": "<string>",
      "description": "<string>",
      "line": 0,
      "category": "<string>",
      "suggestion": "<string>"
    }
  ],
  "summary": "<string>"
}`)
	return b.String()
}

// UserPrompt builds the user message around the submitted code.
func UserPrompt(p PerspectiveConfig, sub Submission) string {
	var b strings.Builder
	b.WriteString("Review the following code and respond with the JSON per schema.\n\n")
	if sub.Filename != "" {
		fmt.Fprintf(&b, "Filename: %s\n", sub.Filename)
	}
	fmt.Fprintf(&b, "Language: %s\n", sub.Language)
	fmt.Fprintf(&b, "```%s\n%s\n```\n", sub.Language, sub.Code)
	if len(p.FocusAreas) > 0 {
		b.WriteString("\nFocus areas:\n")
		for _, area := range p.FocusAreas {
			fmt.Fprintf(&b, "- %s\n", area)
		}
	}
	return b.String()
}
