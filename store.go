package stepdoc

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

var errNoAdapter = errors.New("no persistence adapter configured")

// Store is the mutable handle around a Document. Every command runs to completion
// under one lock and replaces the whole snapshot, so a Document obtained from
// Snapshot is never modified afterwards.
type Store struct {
	mu sync.Mutex

	doc   Document
	docID string // record id of the last save or load

	newID   IDFunc
	log     *zap.Logger
	adapter Adapter
}

// Option configures a Store.
type Option func(*Store)

// WithIDs sets the id generator used for new steps, groups and copies.
func WithIDs(fn IDFunc) Option {
	return func(s *Store) { s.newID = fn }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithAdapter sets the persistence adapter used by Save, Load, List and Delete.
func WithAdapter(a Adapter) Option {
	return func(s *Store) { s.adapter = a }
}

// WithDocument sets the initial document.
func WithDocument(doc Document) Option {
	return func(s *Store) { s.doc = doc.Normalized() }
}

// NewStore creates a store holding an empty document.
func NewStore(opts ...Option) *Store {
	s := &Store{
		doc:   NewDocument("", ""),
		newID: UUIDs,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the current document.
func (s *Store) Snapshot() Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// DocumentID returns the record id the document was last saved or loaded under.
func (s *Store) DocumentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docID
}

// apply runs one command under the lock and commits its result only on success.
func (s *Store) apply(op string, fn func(Document) (Document, error), fields ...zap.Field) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(s.doc)
	if err != nil {
		s.log.Debug("command rejected", append(fields, zap.String("op", op), zap.Error(err))...)
		return err
	}
	s.doc = next
	s.log.Debug("command applied", append(fields, zap.String("op", op), zap.Int("steps", next.StepCount()))...)
	return nil
}

// SetTitle changes the document title.
func (s *Store) SetTitle(title string) {
	_ = s.apply("setTitle", func(d Document) (Document, error) {
		d.Title = title
		return d, nil
	})
}

// SetDescription changes the document description.
func (s *Store) SetDescription(description string) {
	_ = s.apply("setDescription", func(d Document) (Document, error) {
		d.Description = description
		return d, nil
	})
}

// CreateGroup appends a new empty group.
func (s *Store) CreateGroup(title string) (StepGroup, error) {
	var group StepGroup
	err := s.apply("createGroup", func(d Document) (Document, error) {
		next, g, err := d.CreateGroup(s.newID(), title)
		group = g
		return next, err
	}, zap.String("title", title))
	return group, err
}

// UpdateGroup merges patch into the group with the given id.
func (s *Store) UpdateGroup(id string, patch GroupPatch) error {
	return s.apply("updateGroup", func(d Document) (Document, error) {
		return d.UpdateGroup(id, patch)
	}, zap.String("group", id))
}

// DeleteGroup removes a group, moving its steps to the end of the ungrouped pool.
func (s *Store) DeleteGroup(id string) error {
	return s.apply("deleteGroup", func(d Document) (Document, error) {
		return d.DeleteGroup(id)
	}, zap.String("group", id))
}

// AddStep creates a step of the given type and appends it to target.
func (s *Store) AddStep(typ StepType, init StepInit, target Container) (Step, error) {
	var added Step
	err := s.apply("addStep", func(d Document) (Document, error) {
		step, err := NewStep(s.newID(), typ, init)
		if err != nil {
			return d, err
		}
		next, step, err := d.AddStep(step, target)
		added = step
		return next, err
	}, zap.String("type", string(typ)), zap.Stringer("target", target))
	return added, err
}

// UpdateStep replaces the step with the same id.
func (s *Store) UpdateStep(step Step) error {
	return s.apply("updateStep", func(d Document) (Document, error) {
		return d.UpdateStep(step)
	}, zap.String("step", step.ID))
}

// DeleteStep removes a step.
func (s *Store) DeleteStep(id string) error {
	return s.apply("deleteStep", func(d Document) (Document, error) {
		return d.DeleteStep(id)
	}, zap.String("step", id))
}

// CopyStep inserts a copy of step right after it, under a fresh id.
func (s *Store) CopyStep(step Step) (Step, error) {
	var copied Step
	err := s.apply("copyStep", func(d Document) (Document, error) {
		next, cp, err := d.CopyStep(step, s.newID())
		copied = cp
		return next, err
	}, zap.String("step", step.ID))
	return copied, err
}

// Move applies a drag-and-drop move. A move without destination is ignored.
func (s *Store) Move(m Move) (MoveResult, error) {
	result := MoveIgnored
	err := s.apply("move", func(d Document) (Document, error) {
		next, r, err := d.Move(m)
		result = r
		return next, err
	}, zap.Stringer("from", m.Source.Container), zap.Int("index", m.Source.Index))
	return result, err
}

// MoveGroup reorders groups.
func (s *Store) MoveGroup(from, to int) error {
	return s.apply("moveGroup", func(d Document) (Document, error) {
		return d.MoveGroup(from, to)
	}, zap.Int("from", from), zap.Int("to", to))
}

// Replace swaps in a whole document, typically the result of an import.
// The document must satisfy the containment invariants.
func (s *Store) Replace(doc Document) error {
	return s.apply("replace", func(Document) (Document, error) {
		if err := doc.Validate(); err != nil {
			return Document{}, err
		}
		return doc.Normalized(), nil
	}, zap.Int("steps", doc.StepCount()))
}

// Save persists the current document. The first save creates a record; later saves
// update it.
func (s *Store) Save(ctx context.Context) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.adapter == nil {
		return Record{}, &IOError{Op: "save", Err: errNoAdapter}
	}
	rec, err := s.adapter.Save(ctx, s.docID, s.doc)
	if err != nil {
		s.log.Warn("save failed", zap.String("id", s.docID), zap.Error(err))
		return Record{}, collaboratorError("save", err)
	}
	s.docID = rec.ID
	s.log.Info("document saved", zap.String("id", rec.ID), zap.Int("steps", s.doc.StepCount()))
	return rec, nil
}

// Load replaces the current document with the snapshot saved under id.
// On failure the current document is kept.
func (s *Store) Load(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.adapter == nil {
		return &IOError{Op: "load", Err: errNoAdapter}
	}
	doc, err := s.adapter.Load(ctx, id)
	if err != nil {
		s.log.Warn("load failed", zap.String("id", id), zap.Error(err))
		return collaboratorError("load", err)
	}
	if err := doc.Validate(); err != nil {
		return err
	}
	s.doc = doc.Normalized()
	s.docID = id
	s.log.Info("document loaded", zap.String("id", id), zap.Int("steps", s.doc.StepCount()))
	return nil
}

// List returns the records known to the adapter.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	if s.adapter == nil {
		return nil, &IOError{Op: "list", Err: errNoAdapter}
	}
	recs, err := s.adapter.List(ctx)
	if err != nil {
		return nil, collaboratorError("list", err)
	}
	return recs, nil
}

// Delete removes a persisted record. Deleting the record the store is bound to
// unbinds it, so the next Save creates a new record.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.adapter == nil {
		return &IOError{Op: "delete", Err: errNoAdapter}
	}
	if err := s.adapter.Delete(ctx, id); err != nil {
		return collaboratorError("delete", err)
	}
	if s.docID == id {
		s.docID = ""
	}
	s.log.Info("document deleted", zap.String("id", id))
	return nil
}

// collaboratorError keeps typed core errors and wraps everything else as IOError.
func collaboratorError(op string, err error) error {
	var (
		nf  *NotFoundError
		ioe *IOError
	)
	if errors.As(err, &nf) || errors.As(err, &ioe) {
		return err
	}
	return &IOError{Op: op, Err: err}
}
