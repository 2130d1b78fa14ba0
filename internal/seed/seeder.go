// Package seed fills the object tree with deterministic, cross-referenced
// sample data and wipes it again.
//
// A run works in two passes. Pass 1 creates K instances of every available
// class inside a SampleData_<Class> folder and sets their scalar values. Pass 2
// wires relations between the instances created in pass 1, picking targets
// round-robin by index, so a class may reference classes enumerated after it.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/johnwards/treeseed/internal/domain"
	"github.com/johnwards/treeseed/internal/store"
)

// DefaultInstances is the number of instances created per class.
const DefaultInstances = 10

// LockName is the run lock taken for the duration of a seeding run.
const LockName = "treeseed:seed"

// Classes enumerates the classes to seed.
type Classes interface {
	List(ctx context.Context) ([]domain.Class, error)
	Available(ctx context.Context, name string) (bool, error)
}

// Objects creates, finds and persists objects.
type Objects interface {
	New(ctx context.Context, className string) (*domain.Object, error)
	Save(ctx context.Context, obj *domain.Object) error
	FindChild(ctx context.Context, parentID int64, key string) (*domain.Object, error)
	FindFolder(ctx context.Context, parentID int64, key string) (*domain.Object, error)
	CreateFolder(ctx context.Context, parentID int64, key string) (*domain.Object, error)
}

// Locker guards against two runs seeding the same store at once.
type Locker interface {
	Acquire(ctx context.Context, name string) (release func(context.Context) error, err error)
}

// Options configures a Seeder.
type Options struct {
	// Instances per class; DefaultInstances when zero.
	Instances int
	// Epoch is the base date for date fields. When zero, the clock's current
	// day (UTC midnight) is used.
	Epoch time.Time
	// Strategies per class; BookingStrategies when nil.
	Strategies Strategies
	// RootID is the folder class folders are created under.
	RootID int64
	Locker Locker
	Logger zerolog.Logger
	Clock  func() time.Time
}

// Seeder drives seeding runs.
type Seeder struct {
	classes Classes
	objects Objects
	folders *FolderAllocator
	opts    Options
	log     zerolog.Logger
}

// New returns a Seeder over the given class registry and object store.
func New(classes Classes, objects Objects, opts Options) *Seeder {
	if opts.Instances <= 0 {
		opts.Instances = DefaultInstances
	}
	if opts.Strategies == nil {
		opts.Strategies = BookingStrategies()
	}
	if opts.RootID == 0 {
		opts.RootID = domain.RootID
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	log := opts.Logger.With().Str("component", "seeder").Logger()
	return &Seeder{
		classes: classes,
		objects: objects,
		folders: NewFolderAllocator(objects, opts.RootID, log),
		opts:    opts,
		log:     log,
	}
}

// InstanceKey returns the key of instance index of a class.
func InstanceKey(className string, index int) string {
	return fmt.Sprintf("%s_%03d", className, index)
}

// created is an instance of pass 1 waiting for pass 2.
type created struct {
	class *domain.Class
	cr    *ClassReport
}

// Run seeds every available class. Per-instance and per-class problems are
// recorded in the report; the returned error is reserved for failures that
// prevent the run from starting (acquiring the lock, listing classes) and for
// cancellation of ctx. A cancelled run stops at the next instance and returns
// the report with the phase it reached.
func (s *Seeder) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: s.opts.Clock().UTC(),
		Phase:     PhaseNotStarted,
		Instances: s.opts.Instances,
		Classes:   []*ClassReport{},
		Issues:    []Issue{},
	}
	log := s.log.With().Str("run_id", report.RunID).Logger()

	if s.opts.Locker != nil {
		release, err := s.opts.Locker.Acquire(ctx, LockName)
		if err != nil {
			return report, fmt.Errorf("acquire run lock: %w", err)
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				log.Warn().Err(err).Msg("release run lock")
			}
		}()
	}

	epoch := s.opts.Epoch
	if epoch.IsZero() {
		epoch = s.opts.Clock().UTC().Truncate(24 * time.Hour)
	}

	report.Phase = PhaseEnumeratingTypes
	classes, err := s.classes.List(ctx)
	if err != nil {
		return report, fmt.Errorf("list classes: %w", err)
	}
	log.Info().Int("classes", len(classes)).Int("instances", s.opts.Instances).Msg("starting to create sample objects")

	reg := NewRegistry()
	pending := make(map[string]created, len(classes))

	report.Phase = PhasePass1
	for i := range classes {
		if err := s.interrupted(ctx, report); err != nil {
			return report, err
		}
		class := &classes[i]
		cr := &ClassReport{Class: class.Name}
		report.Classes = append(report.Classes, cr)

		ok, err := s.classes.Available(ctx, class.Name)
		if ierr := s.interrupted(ctx, report); ierr != nil {
			return report, ierr
		}
		if err == nil && !ok {
			err = store.ErrClassUnavailable
		}
		if err != nil {
			cr.Skipped = true
			report.addIssue(IssueTypeUnavailable, class.Name, 0, err)
			log.Warn().Err(err).Str("class", class.Name).Msg("skipping class")
			continue
		}

		if err := s.createInstances(ctx, log, class, epoch, cr, reg, report); err != nil {
			return report, err
		}
		pending[class.Name] = created{class: class, cr: cr}
	}

	report.Phase = PhasePass2
	log.Info().Msg("adding relations between objects")
	for _, name := range reg.Classes() {
		p, ok := pending[name]
		if !ok {
			continue
		}
		if err := s.wireInstances(ctx, log, p.class, p.cr, reg, report); err != nil {
			return report, err
		}
	}

	report.Phase = PhaseDone
	report.FinishedAt = s.opts.Clock().UTC()
	t := report.Totals()
	log.Info().
		Int("created", t.Created).
		Int("reused", t.Reused).
		Int("failed", t.Failed).
		Int("linked", t.Linked).
		Int("issues", len(report.Issues)).
		Msg("finished creating sample objects")
	return report, nil
}

// interrupted returns a non-nil error once ctx is done, stamping the report
// with the time the run stopped.
func (s *Seeder) interrupted(ctx context.Context, report *Report) error {
	if err := ctx.Err(); err != nil {
		report.FinishedAt = s.opts.Clock().UTC()
		s.log.Warn().Err(err).Str("phase", report.Phase.String()).Msg("seeding interrupted")
		return fmt.Errorf("seeding interrupted during %s: %w", report.Phase, err)
	}
	return nil
}

// createInstances is pass 1 for one class.
func (s *Seeder) createInstances(ctx context.Context, log zerolog.Logger, class *domain.Class, epoch time.Time, cr *ClassReport, reg *Registry, report *Report) error {
	folderID, err := s.folders.Allocate(ctx, class.Name)
	if ierr := s.interrupted(ctx, report); ierr != nil {
		return ierr
	}
	if err != nil {
		report.addIssue(IssueContainerAllocationFailure, class.Name, 0, err)
	}
	cr.FolderID = folderID

	st := s.opts.Strategies.For(class.Name)
	log.Debug().Str("class", class.Name).Int64("folder_id", folderID).Msg("creating objects")

	for i := 1; i <= s.opts.Instances; i++ {
		if err := s.interrupted(ctx, report); err != nil {
			return err
		}
		obj, reused, err := s.instance(ctx, class, folderID, i)
		if err == nil {
			obj.Key = InstanceKey(class.Name, i)
			obj.ParentID = folderID
			obj.Published = true
			Populate(obj, class, st, i, epoch)
			err = s.objects.Save(ctx, obj)
		}
		if err != nil {
			if ierr := s.interrupted(ctx, report); ierr != nil {
				return ierr
			}
			cr.Failed++
			report.addIssue(IssueInstancePersistFailure, class.Name, i, err)
			log.Error().Err(err).Str("class", class.Name).Int("index", i).Msg("error creating object")
			continue
		}
		if reused {
			cr.Reused++
		} else {
			cr.Created++
		}
		reg.Add(class.Name, i, obj)
	}
	return nil
}

// instance returns the existing instance stored under the key of index, or a
// new one. Reusing keys makes repeated runs update rather than duplicate.
func (s *Seeder) instance(ctx context.Context, class *domain.Class, folderID int64, index int) (*domain.Object, bool, error) {
	key := InstanceKey(class.Name, index)
	obj, err := s.objects.FindChild(ctx, folderID, key)
	switch {
	case err == nil:
		if obj.Type != domain.TypeObject || obj.ClassName != class.Name {
			return nil, false, fmt.Errorf("key %s is taken by a %s %s: %w", key, obj.Type, obj.ClassName, store.ErrDuplicateKey)
		}
		return obj, true, nil
	case errors.Is(err, store.ErrNotFound):
		if stale, ok := s.strayInstance(ctx, class, folderID, key); ok {
			return stale, true, nil
		}
		obj, err := s.objects.New(ctx, class.Name)
		return obj, false, err
	default:
		return nil, false, err
	}
}

// strayInstance finds an instance an earlier run left directly under the root
// because its class folder could not be allocated. Saving it with the folder
// as parent moves it there.
func (s *Seeder) strayInstance(ctx context.Context, class *domain.Class, folderID int64, key string) (*domain.Object, bool) {
	if folderID == s.opts.RootID {
		return nil, false
	}
	obj, err := s.objects.FindChild(ctx, s.opts.RootID, key)
	if err != nil || obj.Type != domain.TypeObject || obj.ClassName != class.Name {
		return nil, false
	}
	return obj, true
}

// wireInstances is pass 2 for one class.
func (s *Seeder) wireInstances(ctx context.Context, log zerolog.Logger, class *domain.Class, cr *ClassReport, reg *Registry, report *Report) error {
	st := s.opts.Strategies.For(class.Name)
	for _, i := range reg.Indices(class.Name) {
		if err := s.interrupted(ctx, report); err != nil {
			return err
		}
		obj, _ := reg.Get(class.Name, i)
		obj.ClearRelations()
		links := Wire(obj, class, st, i, reg)
		if err := s.objects.Save(ctx, obj); err != nil {
			if ierr := s.interrupted(ctx, report); ierr != nil {
				return ierr
			}
			cr.LinkFailed++
			report.addIssue(IssueRelationPersistFailure, class.Name, i, err)
			log.Error().Err(err).Str("class", class.Name).Int("index", i).Msg("error adding relations")
			continue
		}
		if len(links) > 0 {
			cr.Linked++
		}
	}
	return nil
}
