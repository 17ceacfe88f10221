package usecase

import (
	"regexp"
	"strings"
)

// formattingTag matches the bare inline tags models echo back from scientific
// titles. Tags with attributes and any other "<...>" run are left alone so
// text such as "<LOD" or "x<y и z>w" survives.
var formattingTag = regexp.MustCompile(`(?i)</?(?:sub|sup|i|b|em|strong)\s*/?>`)

// StripMarkup removes formatting tags, leaving plain text ready for storage.
func StripMarkup(s string) string {
	return strings.TrimSpace(formattingTag.ReplaceAllString(s, ""))
}
