package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/kiln/internal/ir"
)

func TestLayoutIndexLookup(t *testing.T) {
	ix := NewLayoutIndex([]*ir.Layout{
		{Identifier: "/default.html"},
		{Identifier: "/partials/nav/"},
	})

	for _, name := range []string{"/default.html", "default", "/default", "/default/"} {
		l, ok := ix.Lookup(name)
		if assert.True(t, ok, name) {
			assert.Equal(t, "/default.html", l.Identifier)
		}
	}

	l, ok := ix.Lookup("partials/nav")
	assert.True(t, ok)
	assert.Equal(t, "/partials/nav/", l.Identifier)

	_, ok = ix.Lookup("missing")
	assert.False(t, ok)
}
