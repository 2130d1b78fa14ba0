package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/johnwards/treeseed/internal/domain"
	"github.com/johnwards/treeseed/internal/seed"
	"github.com/johnwards/treeseed/internal/store"
)

// ResetResult is the outcome of Reset.
type ResetResult struct {
	Reset  *seed.ResetSummary `json:"reset"`
	Report *seed.Report       `json:"report,omitempty"`
}

// WriteText prints the reset summary followed by the seeding report, if any.
func (r *ResetResult) WriteText(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "reset %d table(s), root folder %d recreated\n", len(r.Reset.Truncated), r.Reset.RootID); err != nil {
		return err
	}
	if r.Report == nil {
		return nil
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	return r.Report.WriteText(w)
}

// ClassInfo is a registered class with its storage state.
type ClassInfo struct {
	domain.Class
	Available bool `json:"available"`
	Instances int  `json:"instances"`
}

// ClassList is the output of Classes.
type ClassList []ClassInfo

// WriteText prints one row per class.
func (l ClassList) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tID\tAVAILABLE\tINSTANCES\tFIELDS")
	for _, c := range l {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%d\t%s\n", c.Name, c.ID, c.Available, c.Instances, describeFields(c.Fields))
	}
	return tw.Flush()
}

func describeFields(fields []domain.Field) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.IsRelation() {
			parts = append(parts, fmt.Sprintf("%s->%s(%s)", f.Name, strings.Join(f.Targets, "|"), f.Cardinality))
			continue
		}
		parts = append(parts, f.Name+":"+f.DataType)
	}
	return strings.Join(parts, " ")
}

// Classes lists registered classes with availability and instance counts.
func (a *App) Classes(ctx context.Context) (ClassList, error) {
	classes, err := a.store.Classes.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(ClassList, 0, len(classes))
	for _, c := range classes {
		info := ClassInfo{Class: c}
		if info.Available, err = a.store.Classes.Available(ctx, c.Name); err != nil {
			return nil, err
		}
		if info.Instances, err = a.store.Objects.CountByClass(ctx, c.Name); err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}

// TreeNode is one object of the tree view.
type TreeNode struct {
	ID       int64       `json:"id"`
	Key      string      `json:"key"`
	Path     string      `json:"path"`
	Type     string      `json:"type"`
	Class    string      `json:"class,omitempty"`
	Children []*TreeNode `json:"children,omitempty"`
}

// WriteText prints the tree indented by depth.
func (n *TreeNode) WriteText(w io.Writer) error {
	return n.write(w, 0)
}

func (n *TreeNode) write(w io.Writer, depth int) error {
	label := n.Key
	if label == "" {
		label = "/"
	}
	if n.Class != "" {
		label += " (" + n.Class + ")"
	}
	if _, err := fmt.Fprintf(w, "%s%s [%d]\n", strings.Repeat("  ", depth), label, n.ID); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := c.write(w, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// Tree loads the tree under the root folder down to depth levels.
func (a *App) Tree(ctx context.Context, depth int) (*TreeNode, error) {
	root, err := a.store.Objects.Get(ctx, domain.RootID)
	if err != nil {
		return nil, err
	}
	return buildTree(ctx, a.store.Objects, root, depth)
}

func buildTree(ctx context.Context, objects store.ObjectStore, obj *domain.Object, depth int) (*TreeNode, error) {
	node := &TreeNode{ID: obj.ID, Key: obj.Key, Path: obj.FullPath(), Type: obj.Type, Class: obj.ClassName}
	if depth <= 0 {
		return node, nil
	}
	children, err := objects.Children(ctx, obj.ID)
	if err != nil {
		return nil, err
	}
	for _, c := range children {
		child, err := buildTree(ctx, objects, c, depth-1)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}
