package domain

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// combiningMarks is the Combining Diacritical Marks block, U+0300–U+036F.
var combiningMarks = &unicode.RangeTable{
	R16: []unicode.Range16{{Lo: 0x0300, Hi: 0x036f, Stride: 1}},
}

var dashRunRe = regexp.MustCompile(`-+`)

// Slugify turns a clinic name into a URL-safe slug: accents are stripped,
// anything outside [a-z0-9] becomes a separator or is dropped, and whitespace
// runs become single dashes.
func Slugify(name string) string {
	// A transform.Chain keeps state, so build one per call.
	stripAccents := transform.Chain(norm.NFD, runes.Remove(runes.In(combiningMarks)))
	s, _, err := transform.String(stripAccents, strings.ToLower(name))
	if err != nil {
		s = strings.ToLower(name)
	}

	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			return r
		case unicode.IsSpace(r):
			return ' '
		default:
			return -1
		}
	}, s)

	s = strings.Join(strings.Fields(s), "-")
	return dashRunRe.ReplaceAllString(s, "-")
}

// SlugSet hands out slugs that are unique within one derivation run.
type SlugSet struct {
	used map[string]struct{}
}

// NewSlugSet returns an empty SlugSet.
func NewSlugSet() *SlugSet {
	return &SlugSet{used: make(map[string]struct{})}
}

// Assign returns the slug for name, suffixed "-2", "-3", … when the base slug
// (or an earlier suffix) is already taken.
func (s *SlugSet) Assign(name string) string {
	base := Slugify(name)
	slug := base
	for n := 2; s.taken(slug); n++ {
		slug = base + "-" + strconv.Itoa(n)
	}
	s.used[slug] = struct{}{}
	return slug
}

func (s *SlugSet) taken(slug string) bool {
	_, ok := s.used[slug]
	return ok
}
