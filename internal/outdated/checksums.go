package outdated

import (
	"fmt"

	"github.com/roach88/kiln/internal/ir"
)

// Prior is the metadata persisted by the last successful run.
type Prior struct {
	RunID     string
	Checksums map[string]string // subject -> checksum
	Edges     []ir.DependencyEdge
}

// Checksum subjects. Item subjects are shared by all reps of the item.
func contentSubject(item string) string    { return "content:" + item }
func attributesSubject(item string) string { return "attributes:" + item }
func recipeSubject(rep ir.RepKey) string   { return "recipe:" + rep.String() }
func layoutSubject(id string) string       { return "layout:" + id }

// Checksums computes the current checksum of every subject reachable from
// reps: item content, item attributes and rep recipes.
func Checksums(reps []*ir.Rep) (map[string]string, error) {
	sums := make(map[string]string, len(reps)*3)
	for _, rep := range reps {
		id := rep.Item.Identifier
		if _, ok := sums[contentSubject(id)]; !ok {
			sums[contentSubject(id)] = ir.ContentChecksum(rep.Item.Content)
			attrs, err := ir.AttributesChecksum(rep.Item.Attributes)
			if err != nil {
				return nil, fmt.Errorf("checksum attributes of %s: %w", id, err)
			}
			sums[attributesSubject(id)] = attrs
		}
		recipe, err := ir.RecipeChecksum(rep.Recipe)
		if err != nil {
			return nil, fmt.Errorf("checksum recipe of %s: %w", rep.Key, err)
		}
		sums[recipeSubject(rep.Key)] = recipe
	}
	return sums, nil
}

// LayoutResolver finds the layout a layout step names.
// Implemented by engine.LayoutIndex.
type LayoutResolver interface {
	Lookup(name string) (*ir.Layout, bool)
}

// usedLayouts returns the identifiers of the layouts rep's recipe resolves
// to. Unresolvable names are skipped; compiling the rep reports them.
func usedLayouts(rep *ir.Rep, layouts LayoutResolver) []string {
	var ids []string
	for _, st := range rep.Recipe {
		ls, ok := st.(ir.LayoutStep)
		if !ok {
			continue
		}
		if l, ok := layouts.Lookup(ls.Name); ok {
			ids = append(ids, l.Identifier)
		}
	}
	return ids
}

// LayoutChecksums computes the checksum of every layout reps use, over its
// content and attributes.
func LayoutChecksums(reps []*ir.Rep, layouts LayoutResolver) (map[string]string, error) {
	sums := make(map[string]string)
	if layouts == nil {
		return sums, nil
	}
	for _, rep := range reps {
		for _, id := range usedLayouts(rep, layouts) {
			if _, ok := sums[layoutSubject(id)]; ok {
				continue
			}
			l, _ := layouts.Lookup(id)
			attrs, err := ir.AttributesChecksum(l.Attributes)
			if err != nil {
				return nil, fmt.Errorf("checksum attributes of layout %s: %w", id, err)
			}
			sums[layoutSubject(id)] = ir.ContentChecksum(l.Content) + ":" + attrs
		}
	}
	return sums, nil
}
