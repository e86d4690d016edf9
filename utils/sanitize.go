package utils

import "github.com/microcosm-cc/bluemonday"

var (
	ugcPolicy    = bluemonday.UGCPolicy()
	strictPolicy = bluemonday.StrictPolicy()
)

// Sanitize cleans rich text while keeping user-generated markup, used for
// descriptions and the profile bio.
func Sanitize(input string) string {
	return ugcPolicy.Sanitize(input)
}

// SanitizeText strips all markup, used for plain-text fields like titles,
// categories, and display names.
func SanitizeText(input string) string {
	return strictPolicy.Sanitize(input)
}
