package domain

// Field kinds.
const (
	KindScalar   = "scalar"
	KindRelation = "relation"
)

// Scalar data types.
const (
	DataString = "string"
	DataInt    = "int"
	DataFloat  = "float"
	DataBool   = "bool"
	DataDate   = "date"
)

// Relation cardinalities.
const (
	CardinalityOne  = "one"
	CardinalityMany = "many"
)

// Field describes one attribute or relation a class exposes.
type Field struct {
	Name        string   `json:"name" yaml:"name" toml:"name"`
	Kind        string   `json:"kind" yaml:"kind" toml:"kind"`
	DataType    string   `json:"dataType,omitempty" yaml:"type,omitempty" toml:"type,omitempty"`
	Targets     []string `json:"targets,omitempty" yaml:"targets,omitempty" toml:"targets,omitempty"`
	Cardinality string   `json:"cardinality,omitempty" yaml:"cardinality,omitempty" toml:"cardinality,omitempty"`
}

// IsRelation reports whether the field links to other objects.
func (f Field) IsRelation() bool {
	return f.Kind == KindRelation
}

// AllowsTarget reports whether className is an allowed relation target.
func (f Field) AllowsTarget(className string) bool {
	for _, t := range f.Targets {
		if t == className {
			return true
		}
	}
	return false
}

// Class is a registered entity type definition.
type Class struct {
	ID        string  `json:"id" yaml:"id" toml:"id"`
	Name      string  `json:"name" yaml:"name" toml:"name"`
	Fields    []Field `json:"fields" yaml:"fields" toml:"fields"`
	CreatedAt string  `json:"createdAt,omitempty" yaml:"-" toml:"-"`
	UpdatedAt string  `json:"updatedAt,omitempty" yaml:"-" toml:"-"`
}

// Field returns the field with the given name.
func (c *Class) Field(name string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// HasField reports whether the class exposes a scalar field called name.
func (c *Class) HasField(name string) bool {
	f, ok := c.Field(name)
	return ok && !f.IsRelation()
}

// HasRelation reports whether the class exposes a relation field called name.
func (c *Class) HasRelation(name string) bool {
	f, ok := c.Field(name)
	return ok && f.IsRelation()
}

// ScalarFields returns the non-relation fields in declaration order.
func (c *Class) ScalarFields() []Field {
	var out []Field
	for _, f := range c.Fields {
		if !f.IsRelation() {
			out = append(out, f)
		}
	}
	return out
}
