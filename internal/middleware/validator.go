package middleware

import (
	"fmt"
	"regexp"
	"strings"
)

// Input validation and sanitization utilities

// ValidateLanguage checks the submitted language tag. Unknown languages are
// allowed (the model copes), only the format is enforced.
func ValidateLanguage(language string) error {
	if language == "" {
		return nil // Optional field, service applies the default
	}
	pattern := `^[a-zA-Z0-9+#._-]{1,32}$`
	matched, _ := regexp.MatchString(pattern, language)
	if !matched {
		return fmt.Errorf("invalid language format")
	}
	return nil
}

// ValidateFilename validates an optional submission filename
func ValidateFilename(filename string) error {
	if filename == "" {
		return nil // Optional field
	}
	if len(filename) > 255 {
		return fmt.Errorf("filename too long (max 255 chars)")
	}
	// Block path traversal and control characters
	dangerous := []string{"..", "\n", "\r", "\x00"}
	for _, d := range dangerous {
		if strings.Contains(filename, d) {
			return fmt.Errorf("invalid characters in filename")
		}
	}
	return nil
}

// ValidateReviewID validates review ID format
func ValidateReviewID(id string) error {
	if id == "" {
		return fmt.Errorf("review ID cannot be empty")
	}

	// review_<12 hex chars>
	pattern := `^review_[a-f0-9]{12}$`
	matched, _ := regexp.MatchString(pattern, id)
	if !matched {
		return fmt.Errorf("invalid review ID format")
	}

	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}

// ValidateDays validates days parameter
func ValidateDays(days int) int {
	if days <= 0 {
		return 7 // default
	}
	if days > 365 {
		return 365 // max 1 year
	}
	return days
}
