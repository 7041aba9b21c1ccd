// Package output computes output paths for reps and writes compiled
// content into the output directory.
package output

import (
	"path"
	"strings"

	"github.com/roach88/kiln/internal/ir"
)

// Router computes the site path a rep is written to.
// Paths are slash-separated and rooted ("/foo/index.html").
type Router interface {
	Route(rep ir.RepKey) string
}

// RouterFunc adapts a function to Router.
type RouterFunc func(rep ir.RepKey) string

// Route implements Router.
func (f RouterFunc) Route(rep ir.RepKey) string { return f(rep) }

// PrettyRouter routes "/foo.html" to "/foo/index.html". Index pages and
// non-HTML items keep their identifier. Reps other than the default one
// get their name as a path prefix: "/foo.html#amp" -> "/amp/foo/index.html".
type PrettyRouter struct{}

// Route implements Router.
func (PrettyRouter) Route(rep ir.RepKey) string {
	id := path.Clean("/" + rep.Item)
	routed := id
	if ext := path.Ext(id); ext == ".html" || ext == ".htm" {
		base := strings.TrimSuffix(path.Base(id), ext)
		if base != "index" {
			routed = path.Join(path.Dir(id), base, "index.html")
		}
	}
	if rep.Name != ir.DefaultRepName && rep.Name != "" {
		routed = path.Join("/"+rep.Name, routed)
	}
	return routed
}

// VerbatimRouter routes every rep to its item identifier. Reps other than
// the default one get their name as a path prefix.
type VerbatimRouter struct{}

// Route implements Router.
func (VerbatimRouter) Route(rep ir.RepKey) string {
	id := path.Clean("/" + rep.Item)
	if rep.Name != ir.DefaultRepName && rep.Name != "" {
		return path.Join("/"+rep.Name, id)
	}
	return id
}

// Resolve returns the site path of a write step: the explicit path when
// given, otherwise the router's.
func Resolve(r Router, rep ir.RepKey, w ir.WriteStep) string {
	if w.Path != "" {
		return path.Clean("/" + w.Path)
	}
	return r.Route(rep)
}

// SitePaths returns the site paths every write step of rep produces.
func SitePaths(r Router, rep *ir.Rep) []string {
	var paths []string
	for _, st := range rep.Recipe {
		if w, ok := st.(ir.WriteStep); ok {
			paths = append(paths, Resolve(r, rep.Key, w))
		}
	}
	return paths
}
