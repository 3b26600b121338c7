package uischema

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	wordSeparators = regexp.MustCompile(`[_\-\s]+`)
	trailingIndex  = regexp.MustCompile(`(\[\d+\])+$`)
)

// HumanizeLabel turns a field name into a label: "paymentMethod" and
// "payment_method" both become "Payment method". Only the last segment of
// a path is used, so "people[0].nickname" gives "Nickname" and "people[1]"
// gives "People".
func HumanizeLabel(name string) string {
	name = trailingIndex.ReplaceAllString(name, "")
	if i := strings.LastIndexAny(name, ".]"); i >= 0 {
		name = name[i+1:]
	}
	var words []string
	for _, part := range wordSeparators.Split(name, -1) {
		if part != "" {
			words = append(words, splitCamel(part)...)
		}
	}
	if len(words) == 0 {
		return ""
	}
	label := strings.ToLower(strings.Join(words, " "))
	r := []rune(label)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func splitCamel(word string) []string {
	runes := []rune(word)
	var out []string
	start := 0
	for i := 1; i < len(runes); i++ {
		prev, cur := runes[i-1], runes[i]
		if (unicode.IsLower(prev) && unicode.IsUpper(cur)) ||
			(unicode.IsLetter(prev) && unicode.IsDigit(cur)) ||
			(unicode.IsDigit(prev) && unicode.IsLetter(cur)) {
			out = append(out, string(runes[start:i]))
			start = i
		}
	}
	return append(out, string(runes[start:]))
}
