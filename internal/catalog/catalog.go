// Package catalog reads class definitions from YAML or TOML files and
// registers them with the class store.
package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/johnwards/treeseed/internal/domain"
)

//go:embed default.yaml
var defaultCatalog []byte

// Catalog is the file layout of a class catalog.
type Catalog struct {
	Classes []domain.Class `yaml:"classes" toml:"classes"`
}

// Registrar is the part of the class store a catalog is registered with.
type Registrar interface {
	Register(ctx context.Context, c *domain.Class) (*domain.Class, error)
}

// Default returns the built-in booking catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog, "yaml")
}

// Load reads a catalog file. The format is chosen by extension: .yaml, .yml
// or .toml.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	cat, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cat, nil
}

// Parse decodes catalog data in the given format ("yaml", "yml" or "toml").
func Parse(data []byte, format string) (*Catalog, error) {
	var cat Catalog
	switch format {
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cat); err != nil {
			return nil, fmt.Errorf("decode yaml catalog: %w", err)
		}
	case "toml":
		md, err := toml.Decode(string(data), &cat)
		if err != nil {
			return nil, fmt.Errorf("decode toml catalog: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("decode toml catalog: unknown keys %v", undecoded)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", format)
	}
	cat.normalize()
	return &cat, nil
}

// normalize fills in field kinds left implicit in the file: a field with
// targets is a relation, anything else a scalar. Relations default to
// single-valued.
func (c *Catalog) normalize() {
	for i := range c.Classes {
		for j := range c.Classes[i].Fields {
			f := &c.Classes[i].Fields[j]
			if f.Kind == "" {
				if len(f.Targets) > 0 {
					f.Kind = domain.KindRelation
				} else {
					f.Kind = domain.KindScalar
				}
			}
			if f.Kind == domain.KindRelation && f.Cardinality == "" {
				f.Cardinality = domain.CardinalityOne
			}
			if f.Kind == domain.KindScalar && f.DataType == "" {
				f.DataType = domain.DataString
			}
		}
	}
}

// Names returns the class names in file order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.Classes))
	for _, cl := range c.Classes {
		names = append(names, cl.Name)
	}
	return names
}

// Register registers every class of the catalog. Registration is idempotent.
func (c *Catalog) Register(ctx context.Context, r Registrar) error {
	for i := range c.Classes {
		if _, err := r.Register(ctx, &c.Classes[i]); err != nil {
			return fmt.Errorf("register class %s: %w", c.Classes[i].Name, err)
		}
	}
	return nil
}
