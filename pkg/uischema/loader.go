package uischema

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formengine/pkg/fieldpath"
)

// Store keeps the parsed forms from UI schema documents. It is safe for
// concurrent readers when treated as immutable after construction.
type Store struct {
	forms   map[string]*Node
	sources map[string]string
}

type documentFile struct {
	Forms map[string]*Node `json:"forms" yaml:"forms"`
}

// LoadFS walks the provided filesystem and parses JSON/YAML UI schema files.
// When fsys is nil or no schema files are present, the returned store is empty.
func LoadFS(fsys fs.FS) (*Store, error) {
	store := newStore()
	if fsys == nil {
		return store, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isSchemaFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("uischema: read %s: %w", path, err)
		}
		return store.add(data, path)
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// ParseStore parses a single `forms:` document.
func ParseStore(data []byte, source string) (*Store, error) {
	store := newStore()
	if err := store.add(data, source); err != nil {
		return nil, err
	}
	return store, nil
}

// Parse decodes a single UI node document (no `forms:` envelope).
func Parse(data []byte) (*Node, error) {
	var node Node
	if err := decode(data, "<input>", &node); err != nil {
		return nil, err
	}
	if err := normaliseNode(&node, ""); err != nil {
		return nil, fmt.Errorf("uischema: %w", err)
	}
	return &node, nil
}

// Form returns the UI schema registered under id.
func (s *Store) Form(id string) (*Node, bool) {
	if s == nil {
		return nil, false
	}
	node, ok := s.forms[id]
	return node, ok
}

// IDs lists the registered form ids in sorted order.
func (s *Store) IDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.forms))
	for id := range s.forms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Empty reports whether the store holds any forms.
func (s *Store) Empty() bool {
	return s == nil || len(s.forms) == 0
}

func newStore() *Store {
	return &Store{forms: make(map[string]*Node), sources: make(map[string]string)}
}

func (s *Store) add(data []byte, source string) error {
	var doc documentFile
	if err := decode(data, source, &doc); err != nil {
		return err
	}
	for rawID, node := range doc.Forms {
		id := strings.TrimSpace(rawID)
		if id == "" {
			return fmt.Errorf("uischema: file %s defines an empty form id", source)
		}
		if prev, exists := s.sources[id]; exists {
			return fmt.Errorf("uischema: duplicate form %q (files %s and %s)", id, prev, source)
		}
		if node == nil {
			node = &Node{}
		}
		if err := normaliseNode(node, ""); err != nil {
			return fmt.Errorf("uischema: form %q (file %s): %w", id, source, err)
		}
		s.forms[id] = node
		s.sources[id] = source
	}
	return nil
}

func decode(data []byte, source string, out any) error {
	if len(strings.TrimSpace(string(data))) == 0 {
		return fmt.Errorf("uischema: file %s is empty", source)
	}
	if err := json.Unmarshal(data, out); err == nil {
		return nil
	}
	// drop whatever the failed JSON attempt populated
	target := reflect.ValueOf(out).Elem()
	target.Set(reflect.Zero(target.Type()))
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("uischema: parse %s: invalid JSON or YAML: %w", source, err)
	}
	return nil
}

// normaliseNode rejects field keys that cannot round-trip through a path and
// sanitises icon markup in place.
func normaliseNode(node *Node, at string) error {
	if node == nil {
		return nil
	}
	normaliseProps(node.UI)
	normaliseProps(node.Discriminator)
	for name, child := range node.Fields {
		if !fieldpath.ValidKey(name) {
			return fmt.Errorf("field key %q at %q is not a valid path segment", name, at)
		}
		if err := normaliseNode(child, joinPath(at, name)); err != nil {
			return err
		}
	}
	if err := normaliseNode(node.Element, at); err != nil {
		return err
	}
	for _, variant := range node.Elements {
		if err := normaliseNode(variant, at); err != nil {
			return err
		}
	}
	return nil
}

func normaliseProps(p *Props) {
	if p == nil {
		return
	}
	p.Component = strings.TrimSpace(p.Component)
	p.Icon = SanitizeIcon(p.Icon)
}

func joinPath(base, name string) string {
	if base == "" {
		return name
	}
	return base + "." + name
}

func isSchemaFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
