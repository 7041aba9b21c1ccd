package site

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/kiln/internal/ir"
)

// Sources are the loaded inputs of a site.
type Sources struct {
	Items   []*ir.Item
	Layouts []*ir.Layout
}

// LoadItems reads every file under dir as an item, sorted by identifier.
//
// Identifiers are the slash-separated path relative to dir, rooted and
// NFC-normalized ("/blog/post.md"). Text files may start with YAML
// frontmatter, which becomes the item's attributes. Files that are not
// valid UTF-8 or contain NUL bytes are binary and carried verbatim.
func LoadItems(dir string) ([]*ir.Item, error) {
	var items []*ir.Item
	err := walkFiles(dir, func(id string, data []byte) error {
		content, attrs, err := parseSource(data)
		if err != nil {
			return fmt.Errorf("%s: %w", id, err)
		}
		items = append(items, &ir.Item{Identifier: id, Content: content, Attributes: attrs})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Identifier < items[j].Identifier })
	return items, nil
}

// LoadLayouts reads every file under dir as a layout. A missing dir has no
// layouts.
func LoadLayouts(dir string) ([]*ir.Layout, error) {
	if dir == "" {
		return nil, nil
	}
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	var layouts []*ir.Layout
	err := walkFiles(dir, func(id string, data []byte) error {
		content, attrs, err := parseSource(data)
		if err != nil {
			return fmt.Errorf("layout %s: %w", id, err)
		}
		layouts = append(layouts, &ir.Layout{Identifier: id, Content: content, Attributes: attrs})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(layouts, func(i, j int) bool { return layouts[i].Identifier < layouts[j].Identifier })
	return layouts, nil
}

func walkFiles(dir string, fn func(id string, data []byte) error) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("content directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("content directory: %s is not a directory", dir)
	}
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		return fn(identifier(rel), data)
	})
}

// identifier turns a relative file path into an item identifier.
func identifier(rel string) string {
	return norm.NFC.String("/" + filepath.ToSlash(rel))
}

func parseSource(data []byte) (ir.Content, map[string]any, error) {
	if isBinary(data) {
		return ir.Content{Body: string(data), Binary: true}, map[string]any{}, nil
	}
	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return ir.Content{}, nil, err
	}
	if fm == nil {
		fm = map[string]any{}
	}
	return ir.TextContent(body), fm, nil
}

func isBinary(data []byte) bool {
	return !utf8.Valid(data) || bytes.IndexByte(data, 0) >= 0
}
