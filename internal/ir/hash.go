package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for checksums. Version suffix enables future migration.
const (
	DomainContent    = "kiln/content/v1"
	DomainAttributes = "kiln/attributes/v1"
	DomainRecipe     = "kiln/recipe/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ContentChecksum returns the checksum of an item's raw content.
func ContentChecksum(c Content) string {
	prefix := []byte{'t'}
	if c.Binary {
		prefix = []byte{'b'}
	}
	return hashWithDomain(DomainContent, append(prefix, c.Body...))
}

// AttributesChecksum returns the checksum of an attribute map.
func AttributesChecksum(attrs map[string]any) (string, error) {
	if attrs == nil {
		attrs = map[string]any{}
	}
	canonical, err := MarshalCanonical(attrs)
	if err != nil {
		return "", fmt.Errorf("AttributesChecksum: %w", err)
	}
	return hashWithDomain(DomainAttributes, canonical), nil
}

// RecipeChecksum returns the checksum of a recipe. Two recipes with the
// same steps in the same order always hash identically.
func RecipeChecksum(r Recipe) (string, error) {
	steps := make([]any, len(r))
	for i, st := range r {
		steps[i] = stepToCanonical(st)
	}
	canonical, err := MarshalCanonical(steps)
	if err != nil {
		return "", fmt.Errorf("RecipeChecksum: %w", err)
	}
	return hashWithDomain(DomainRecipe, canonical), nil
}

func stepToCanonical(st Step) map[string]any {
	switch s := st.(type) {
	case FilterStep:
		return map[string]any{"filter": s.Name, "args": argsOrEmpty(s.Args)}
	case LayoutStep:
		return map[string]any{"layout": s.Name, "args": argsOrEmpty(s.Args)}
	case SnapshotStep:
		return map[string]any{"snapshot": s.Name}
	case WriteStep:
		return map[string]any{"write": s.Path}
	default:
		return map[string]any{"unknown": fmt.Sprintf("%T", st)}
	}
}

func argsOrEmpty(args map[string]any) map[string]any {
	if args == nil {
		return map[string]any{}
	}
	return args
}

// MustRecipeChecksum is like RecipeChecksum but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustRecipeChecksum(r Recipe) string {
	sum, err := RecipeChecksum(r)
	if err != nil {
		panic(err)
	}
	return sum
}
