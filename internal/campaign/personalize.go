package campaign

import "strings"

// Placeholder tokens substituted per recipient. Both name and email resolve
// to the recipient address; there is no separate name source. Unmatched
// placeholders stay verbatim.
const (
	placeholderName  = "#NAME#"
	placeholderEmail = "#EMAIL#"
	placeholderTFN   = "#TFN#"
)

// Personalize replaces every occurrence of the placeholder tokens in body.
// Plain string substitution, no templating engine. An empty tfn leaves
// #TFN# untouched.
func Personalize(body, recipient, tfn string) string {
	body = strings.ReplaceAll(body, placeholderName, recipient)
	body = strings.ReplaceAll(body, placeholderEmail, recipient)
	if tfn != "" {
		body = strings.ReplaceAll(body, placeholderTFN, tfn)
	}
	return body
}
