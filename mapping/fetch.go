package mapping

import "strings"

// FetchStyles lists the fetch style names a configuration may use, in the
// order of the session's FetchStyle constants.
var FetchStyles = []string{"assoc", "num", "both", "obj", "column", "class", "into"}

// FetchStyleIndex returns the position of name in FetchStyles, ignoring case
// and surrounding space, or -1.
func FetchStyleIndex(name string) int {
	name = strings.TrimSpace(name)
	for i, s := range FetchStyles {
		if strings.EqualFold(s, name) {
			return i
		}
	}
	return -1
}
