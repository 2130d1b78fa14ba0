package domain

// Object types stored in the objects table.
const (
	TypeFolder = "folder"
	TypeObject = "object"
)

// RootID is the id of the tree root folder.
const RootID int64 = 1

// Object is a node in the object tree: either a folder or an instance of a
// class. Values and Relations are only meaningful for class instances.
type Object struct {
	ID               int64              `json:"id"`
	ParentID         int64              `json:"parentId"`
	Type             string             `json:"type"`
	Key              string             `json:"key"`
	Path             string             `json:"path"`
	Index            int                `json:"index"`
	Published        bool               `json:"published"`
	ClassID          string             `json:"classId,omitempty"`
	ClassName        string             `json:"className,omitempty"`
	CreationDate     int64              `json:"creationDate"`
	ModificationDate int64              `json:"modificationDate"`
	VersionCount     int                `json:"versionCount"`
	Values           map[string]any     `json:"values,omitempty"`
	Relations        map[string][]int64 `json:"relations,omitempty"`
}

// NewInstance returns an unsaved instance of class c.
func NewInstance(c *Class) *Object {
	return &Object{
		Type:      TypeObject,
		ClassID:   c.ID,
		ClassName: c.Name,
		Values:    map[string]any{},
		Relations: map[string][]int64{},
	}
}

// FullPath returns the path of the object including its own key.
func (o *Object) FullPath() string {
	if o.ID == RootID {
		return "/"
	}
	return o.Path + o.Key
}

// ChildPath returns the path stored on children of o.
func (o *Object) ChildPath() string {
	if o.ID == RootID {
		return "/"
	}
	return o.Path + o.Key + "/"
}

// Set assigns a scalar value.
func (o *Object) Set(field string, v any) {
	if o.Values == nil {
		o.Values = map[string]any{}
	}
	o.Values[field] = v
}

// SetRelation replaces the targets of a relation field.
func (o *Object) SetRelation(field string, targets ...*Object) {
	if o.Relations == nil {
		o.Relations = map[string][]int64{}
	}
	ids := make([]int64, 0, len(targets))
	for _, t := range targets {
		ids = append(ids, t.ID)
	}
	o.Relations[field] = ids
}

// ClearRelations drops every relation assignment.
func (o *Object) ClearRelations() {
	o.Relations = map[string][]int64{}
}
