package recipe

import (
	"fmt"
	"regexp"
	"strings"
)

// Glob matches item identifiers against a path pattern.
//
//	*   any run of characters except "/"
//	**  any run of characters, including "/"
//	?   one character except "/"
//
// "/**/" also matches a single "/", so "/**/*.md" matches "/a.md".
type Glob struct {
	pattern string
	re      *regexp.Regexp
}

// CompileGlob translates pattern into an anchored regular expression.
func CompileGlob(pattern string) (*Glob, error) {
	if pattern == "" {
		return nil, fmt.Errorf("empty pattern")
	}
	if strings.Contains(pattern, "***") {
		return nil, fmt.Errorf("invalid pattern %q: too many consecutive '*'", pattern)
	}

	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case strings.HasPrefix(pattern[i:], "**/"):
			b.WriteString("(?:.*/)?")
			i += 2
		case strings.HasPrefix(pattern[i:], "**"):
			b.WriteString(".*")
			i++
		case c == '*':
			b.WriteString("[^/]*")
		case c == '?':
			b.WriteString("[^/]")
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return &Glob{pattern: pattern, re: re}, nil
}

// Match reports whether identifier matches the pattern.
func (g *Glob) Match(identifier string) bool {
	return g.re.MatchString(identifier)
}

// String returns the source pattern.
func (g *Glob) String() string { return g.pattern }
