package engine

import (
	"maps"
	"path"
	"slices"
	"strings"

	"github.com/roach88/kiln/internal/ir"
)

// LayoutIndex resolves the names layout steps use to layouts.
type LayoutIndex map[string]*ir.Layout

// NewLayoutIndex indexes layouts by identifier.
func NewLayoutIndex(layouts []*ir.Layout) LayoutIndex {
	ix := make(LayoutIndex, len(layouts))
	for _, l := range layouts {
		ix[l.Identifier] = l
	}
	return ix
}

// Lookup finds a layout by identifier. "default", "/default" and
// "/default/" name the same layout.
func (ix LayoutIndex) Lookup(name string) (*ir.Layout, bool) {
	if l, ok := ix[name]; ok {
		return l, true
	}
	trimmed := strings.Trim(name, "/")
	for _, candidate := range []string{"/" + trimmed, "/" + trimmed + "/", trimmed} {
		if l, ok := ix[candidate]; ok {
			return l, true
		}
	}
	// Layout files keep their extension: "/default.html" for "default".
	for _, id := range slices.Sorted(maps.Keys(ix)) {
		if strings.TrimSuffix(id, path.Ext(id)) == "/"+trimmed {
			return ix[id], true
		}
	}
	return nil, false
}
