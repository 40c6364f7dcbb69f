package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dadav/go-jsonpointer"
)

// DefaultFilename is the manifest read from an application root.
const DefaultFilename = "composer.json"

var (
	ErrNotFound     = errors.New("manifest: file not found")
	ErrParse        = errors.New("manifest: invalid document")
	ErrKeyNotFound  = errors.New("manifest: key not found")
	ErrTypeMismatch = errors.New("manifest: unexpected value type")
)

// Document is a parsed manifest.
type Document struct {
	path string
	data map[string]any
}

// Requirement is a single entry of the manifest "require" section.
type Requirement struct {
	Package    string
	Constraint string
}

// Load reads and parses the manifest at path.
func Load(path string) (*Document, error) {
	clean := filepath.Clean(path)
	contents, err := os.ReadFile(clean)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNotFound, clean, err)
	}
	return Parse(clean, contents)
}

// Parse decodes contents as a manifest. The path is only used for error context.
func Parse(path string, contents []byte) (*Document, error) {
	var raw any
	if err := json.Unmarshal(contents, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, path, err)
	}
	data, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s: top-level value is %s, not an object", ErrParse, path, typeName(raw))
	}
	return &Document{path: path, data: data}, nil
}

// Path returns the file the document was read from.
func (d *Document) Path() string {
	return d.path
}

// String returns the string stored under the nested key path.
func (d *Document) String(keys ...string) (string, error) {
	value, err := d.lookup(keys)
	if err != nil {
		return "", err
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s in %s is %s, not a string", ErrTypeMismatch, joinKeys(keys), d.path, typeName(value))
	}
	return s, nil
}

// Requires lists the "require" section sorted by package name.
// A manifest without the section yields no entries.
func (d *Document) Requires() ([]Requirement, error) {
	value, err := d.lookup([]string{"require"})
	if errors.Is(err, ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	section, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: require in %s is %s, not an object", ErrTypeMismatch, d.path, typeName(value))
	}

	out := make([]Requirement, 0, len(section))
	for pkg, raw := range section {
		constraint, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: require.%s in %s is %s, not a string", ErrTypeMismatch, pkg, d.path, typeName(raw))
		}
		out = append(out, Requirement{Package: pkg, Constraint: constraint})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Package < out[j].Package })
	return out, nil
}

func (d *Document) lookup(keys []string) (any, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: no key given", ErrKeyNotFound)
	}
	value, err := jsonpointer.Get(any(d.data), pointer(keys))
	if err != nil {
		return nil, fmt.Errorf("%w: %s in %s", ErrKeyNotFound, joinKeys(keys), d.path)
	}
	return value, nil
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func pointer(keys []string) string {
	var b strings.Builder
	for _, k := range keys {
		b.WriteByte('/')
		b.WriteString(pointerEscaper.Replace(k))
	}
	return b.String()
}

func joinKeys(keys []string) string {
	return strings.Join(keys, ".")
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
