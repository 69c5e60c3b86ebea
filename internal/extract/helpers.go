package extract

import "strings"

func wordCount(text string) int {
	return len(strings.Fields(text))
}

func strPtr(s string) *string { return &s }

// optional returns a pointer for non-empty strings and nil otherwise,
// so absent values serialize as explicit nulls.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
