package ir

import (
	"fmt"
	"strings"
)

// Content is the body of an item or of a rep at some point in its recipe.
// Binary content is carried verbatim in Body and is never handed to filters.
type Content struct {
	Body   string `json:"body"`
	Binary bool   `json:"binary,omitempty"`
}

// TextContent returns textual content.
func TextContent(body string) Content {
	return Content{Body: body}
}

// Item is a unit of source content plus attributes.
// Items are created at site-load time and never mutated during a pass.
type Item struct {
	Identifier string         `json:"identifier"` // Path-like key, e.g. "/about.html"
	Content    Content        `json:"content"`
	Attributes map[string]any `json:"attributes"`
}

// Attribute returns the attribute value for key, or nil.
func (i *Item) Attribute(key string) any {
	if i == nil || i.Attributes == nil {
		return nil
	}
	return i.Attributes[key]
}

// Layout is a layout source: a template body a LayoutStep wraps content in.
type Layout struct {
	Identifier string         `json:"identifier"`
	Content    Content        `json:"content"`
	Attributes map[string]any `json:"attributes"`
}

// DefaultRepName is the rep name used when a rule does not name one.
const DefaultRepName = "default"

// RepKey identifies a representation: one named compiled output of an item.
type RepKey struct {
	Item string `json:"item"`
	Name string `json:"name"`
}

// NewRepKey creates a RepKey, defaulting the name to DefaultRepName.
func NewRepKey(item, name string) RepKey {
	if name == "" {
		name = DefaultRepName
	}
	return RepKey{Item: item, Name: name}
}

// String renders the key as "<item>#<name>".
func (k RepKey) String() string {
	return k.Item + "#" + k.Name
}

// ParseRepKey parses the "<item>#<name>" form produced by String.
func ParseRepKey(s string) (RepKey, error) {
	idx := strings.LastIndex(s, "#")
	if idx <= 0 || idx == len(s)-1 {
		return RepKey{}, fmt.Errorf("invalid rep key %q: expected <item>#<name>", s)
	}
	return RepKey{Item: s[:idx], Name: s[idx+1:]}, nil
}

// Rep is a representation of an item together with its resolved recipe.
type Rep struct {
	Key    RepKey
	Item   *Item
	Recipe Recipe
}

// NewRep creates a rep for item with the given name and recipe.
func NewRep(item *Item, name string, recipe Recipe) *Rep {
	return &Rep{
		Key:    NewRepKey(item.Identifier, name),
		Item:   item,
		Recipe: recipe,
	}
}

// Status is the compilation status of a rep within one pass.
type Status int

const (
	StatusNotStarted Status = iota
	StatusRunning
	StatusSuspended
	StatusCompiled
	StatusFailed
)

// String returns the lower-case status name.
func (s Status) String() string {
	switch s {
	case StatusNotStarted:
		return "not_started"
	case StatusRunning:
		return "running"
	case StatusSuspended:
		return "suspended"
	case StatusCompiled:
		return "compiled"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// EdgeKind classifies what a rep read from another rep.
type EdgeKind string

const (
	EdgeRawPath         EdgeKind = "raw_path"
	EdgeCompiledContent EdgeKind = "compiled_content"
)

// ValidEdgeKinds defines allowed edge kinds.
var ValidEdgeKinds = map[EdgeKind]bool{
	EdgeRawPath:         true,
	EdgeCompiledContent: true,
}

// DependencyEdge records that From read To's output during compilation.
type DependencyEdge struct {
	From RepKey   `json:"from"`
	To   RepKey   `json:"to"`
	Kind EdgeKind `json:"kind"`
}

// String renders the edge for logs and diagnostics.
func (e DependencyEdge) String() string {
	return fmt.Sprintf("%s -[%s]-> %s", e.From, e.Kind, e.To)
}
