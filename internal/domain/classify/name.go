package classify

import (
	"regexp"
	"strings"
	"unicode"
)

// suffixSeparator splits the product name from day/discipline suffixes.
const suffixSeparator = " | "

// Word lists are matched against whole lowercase tokens.
var (
	menWords       = []string{"men", "mens", "man", "male"}
	womenWords     = []string{"women", "womens", "woman", "female", "ladies"}
	mixedWords     = []string{"mixed"}
	relayWords     = []string{"relay"}
	corporateWords = []string{"corporate", "corp"}
	doublesWords   = []string{"doubles", "double"}
	proWords       = []string{"pro"}
	adaptiveWords  = []string{"adaptive"}
	spectatorWords = []string{"spectator", "spectators"}
	extraWords     = []string{"friend", "friends", "sportograf", "transfer", "complimentary"}
)

var memberPattern = regexp.MustCompile(`(?i)\bathlete\s*[234]\b|\bteam\s*member\b`)

// name is a tokenized, suffix-stripped ticket name.
type name struct {
	text   string
	tokens map[string]struct{}
}

// Base strips everything after the first " | " and trims spaces.
func Base(raw string) string {
	if i := strings.Index(raw, suffixSeparator); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimSpace(raw)
}

func parseName(raw string) name {
	base := strings.ToLower(Base(raw))
	// Possessives collapse so "women's" and "womens" tokenize alike.
	base = strings.NewReplacer("'", "", "’", "").Replace(base)
	words := strings.FieldsFunc(base, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make(map[string]struct{}, len(words))
	for _, w := range words {
		tokens[w] = struct{}{}
	}
	return name{text: base, tokens: tokens}
}

func (n name) has(words ...string) bool {
	for _, w := range words {
		if _, ok := n.tokens[w]; ok {
			return true
		}
	}
	return false
}

// IsMemberName reports whether the full raw name marks a team member seat
// ("ATHLETE 2", "TEAM MEMBER"). The suffix is not stripped: role markers may
// follow the separator.
func IsMemberName(raw string) bool {
	return memberPattern.MatchString(raw)
}
