package survey

import (
	"regexp"
	"strconv"
)

var trailingNumber = regexp.MustCompile(`^(\D*)(\d+)$`)

// GuessNextStation increments the trailing number of name, keeping any
// zero padding: "A1" -> "A2", "B09" -> "B10", "007" -> "008". Names that do
// not end in digits, or contain digits before the trailing run, give "".
func GuessNextStation(name string) string {
	m := trailingNumber.FindStringSubmatch(name)
	if m == nil {
		return ""
	}
	n, err := strconv.ParseUint(m[2], 10, 64)
	if err != nil {
		return ""
	}
	next := strconv.FormatUint(n+1, 10)
	for len(next) < len(m[2]) {
		next = "0" + next
	}
	return m[1] + next
}
