// Package match implements the fuzzy repository-name matching used to pair
// a chosen package name with an existing remote repository.
package match

import (
	"strings"
	"unicode"
)

// Repo finds the best match for name among candidates. Both sides are
// normalized (lowercased, non-alphanumeric characters stripped) and a
// candidate matches when the normalized name is a substring of it.
// Ties are broken in order: exact original equality, exact normalized
// equality, first match in candidate order. The second return reports
// whether any candidate matched.
func Repo(name string, candidates []string) (string, bool) {
	needle := normalize(name)
	if needle == "" {
		return "", false
	}

	var matches []string
	for _, c := range candidates {
		if strings.Contains(normalize(c), needle) {
			matches = append(matches, c)
		}
	}
	if len(matches) == 0 {
		return "", false
	}

	for _, m := range matches {
		if m == name {
			return m, true
		}
	}
	for _, m := range matches {
		if normalize(m) == needle {
			return m, true
		}
	}
	return matches[0], true
}

// normalize lowercases s and strips everything that is not a letter or digit.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
