package reviews

import (
	"encoding/json"
	"fmt"
	"strings"
)

// maxFindings caps a single perspective's findings to keep reports compact.
const maxFindings = 20

type rawIssue struct {
	Severity    string `json:"severity"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Line        int    `json:"line"`
	LineNumber  int    `json:"line_number"`
	Category    string `json:"category"`
	Suggestion  string `json:"suggestion"`
}

type rawAnalysis struct {
	Issues  []rawIssue `json:"issues"`
	Summary string     `json:"summary"`
}

// ParseFindings turns a model response into findings for one perspective.
// Models wrap JSON in prose or code fences often enough that the first
// balanced top-level object is extracted before decoding. Severities
// outside the perspective's vocabulary are clamped to info.
func ParseFindings(p PerspectiveConfig, raw string) ([]Finding, string, error) {
	body := extractJSONObject(raw)
	if body == "" {
		return nil, "", fmt.Errorf("no JSON object in model response")
	}

	var doc rawAnalysis
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, "", fmt.Errorf("decoding model response: %w", err)
	}

	findings := make([]Finding, 0, len(doc.Issues))
	for _, is := range doc.Issues {
		if strings.TrimSpace(is.Title) == "" {
			continue
		}
		sev := Severity(strings.ToLower(strings.TrimSpace(is.Severity)))
		if !p.Allows(sev) {
			sev = SeverityInfo
		}
		line := is.Line
		if line == 0 {
			line = is.LineNumber
		}
		findings = append(findings, Finding{
			Perspective: p.Name,
			Severity:    sev,
			Title:       is.Title,
			Description: is.Description,
			Line:        line,
			Category:    is.Category,
			Suggestion:  is.Suggestion,
		})
		if len(findings) == maxFindings {
			break
		}
	}

	summary := doc.Summary
	if summary == "" {
		summary = summarize(p.Name, findings)
	}
	return findings, summary, nil
}

// extractJSONObject returns the first balanced top-level {...} block,
// skipping braces inside JSON strings.
func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

func summarize(perspective string, findings []Finding) string {
	if len(findings) == 0 {
		return fmt.Sprintf("No %s issues found", perspective)
	}
	var c SeverityCounts
	for _, f := range findings {
		c.Add(f.Severity)
	}
	parts := make([]string, 0, 5)
	add := func(n int, sev Severity) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, sev))
		}
	}
	add(c.Critical, SeverityCritical)
	add(c.High, SeverityHigh)
	add(c.Medium, SeverityMedium)
	add(c.Low, SeverityLow)
	add(c.Info, SeverityInfo)
	return fmt.Sprintf("Found %d issue(s): %s", len(findings), strings.Join(parts, ", "))
}
