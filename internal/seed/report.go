package seed

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// Phase is the state a seeding run has reached.
type Phase int

// Run phases, in order.
const (
	PhaseNotStarted Phase = iota
	PhaseEnumeratingTypes
	PhasePass1
	PhasePass2
	PhaseDone
)

var phaseNames = [...]string{"not_started", "enumerating_types", "pass1", "pass2", "done"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase name written by MarshalText.
func (p *Phase) UnmarshalText(b []byte) error {
	for i, name := range phaseNames {
		if name == string(b) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", b)
}

// IssueKind classifies a problem recorded during a run. None of them stop the
// run.
type IssueKind string

// Issue kinds.
const (
	IssueTypeUnavailable            IssueKind = "TypeUnavailable"
	IssueContainerAllocationFailure IssueKind = "ContainerAllocationFailure"
	IssueInstancePersistFailure     IssueKind = "InstancePersistFailure"
	IssueRelationPersistFailure     IssueKind = "RelationPersistFailure"
)

// Issue is one recorded problem. Index is 0 for class-level issues.
type Issue struct {
	Kind  IssueKind `json:"kind"`
	Class string    `json:"class"`
	Index int       `json:"index,omitempty"`
	Err   string    `json:"error"`
}

// ClassReport counts what happened to one class.
type ClassReport struct {
	Class      string `json:"class"`
	FolderID   int64  `json:"folderId,omitempty"`
	Skipped    bool   `json:"skipped,omitempty"`
	Created    int    `json:"created"`
	Reused     int    `json:"reused"`
	Failed     int    `json:"failed"`
	Linked     int    `json:"linked"`
	LinkFailed int    `json:"linkFailed"`
}

// Report is the outcome of a seeding run.
type Report struct {
	RunID      string         `json:"runId"`
	StartedAt  time.Time      `json:"startedAt"`
	FinishedAt time.Time      `json:"finishedAt"`
	Phase      Phase          `json:"phase"`
	Instances  int            `json:"instances"`
	Classes    []*ClassReport `json:"classes"`
	Issues     []Issue        `json:"issues"`
}

// Class returns the report of the named class, or nil.
func (r *Report) Class(name string) *ClassReport {
	for _, c := range r.Classes {
		if c.Class == name {
			return c
		}
	}
	return nil
}

// IssuesOf returns the recorded issues of the given kind.
func (r *Report) IssuesOf(kind IssueKind) []Issue {
	var out []Issue
	for _, is := range r.Issues {
		if is.Kind == kind {
			out = append(out, is)
		}
	}
	return out
}

// Totals sums the per-class counters.
func (r *Report) Totals() ClassReport {
	t := ClassReport{Class: "total"}
	for _, c := range r.Classes {
		t.Created += c.Created
		t.Reused += c.Reused
		t.Failed += c.Failed
		t.Linked += c.Linked
		t.LinkFailed += c.LinkFailed
	}
	return t
}

func (r *Report) addIssue(kind IssueKind, class string, index int, err error) {
	r.Issues = append(r.Issues, Issue{Kind: kind, Class: class, Index: index, Err: err.Error()})
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteText writes a table of per-class counters followed by the issues.
func (r *Report) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "run %s (%s, %d per class)\n", r.RunID, r.Phase, r.Instances)
	fmt.Fprintln(tw, "CLASS\tFOLDER\tCREATED\tREUSED\tFAILED\tLINKED\tLINK FAILED")
	for _, c := range r.Classes {
		if c.Skipped {
			fmt.Fprintf(tw, "%s\t-\tskipped\t-\t-\t-\t-\n", c.Class)
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\n",
			c.Class, c.FolderID, c.Created, c.Reused, c.Failed, c.Linked, c.LinkFailed)
	}
	t := r.Totals()
	fmt.Fprintf(tw, "%s\t\t%d\t%d\t%d\t%d\t%d\n", t.Class, t.Created, t.Reused, t.Failed, t.Linked, t.LinkFailed)
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(r.Issues) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "\n%d issue(s):\n", len(r.Issues)); err != nil {
		return err
	}
	for _, is := range r.Issues {
		var err error
		if is.Index > 0 {
			_, err = fmt.Fprintf(w, "  %s %s #%d: %s\n", is.Kind, is.Class, is.Index, is.Err)
		} else {
			_, err = fmt.Fprintf(w, "  %s %s: %s\n", is.Kind, is.Class, is.Err)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
