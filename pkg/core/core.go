// Package core ties the engine packages together into a Session: a document
// value, its document state and the current selection, updated as one
// snapshot by every edit.
package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/jsonstate/pkg/docstate"
	"github.com/oakwood-commons/jsonstate/pkg/jsonpatch"
	"github.com/oakwood-commons/jsonstate/pkg/jsonpointer"
	"github.com/oakwood-commons/jsonstate/pkg/jsonvalue"
	"github.com/oakwood-commons/jsonstate/pkg/logger"
	"github.com/oakwood-commons/jsonstate/pkg/search"
	"github.com/oakwood-commons/jsonstate/pkg/sections"
	"github.com/oakwood-commons/jsonstate/pkg/selection"
	"github.com/oakwood-commons/jsonstate/pkg/sorting"
	"github.com/oakwood-commons/jsonstate/pkg/validation"
)

// Evaluator evaluates expressions against a document.
type Evaluator interface {
	Evaluate(expr string, value any) (any, error)
}

// ErrNoEvaluator is returned by Query and Transform when the session was
// created without an evaluator.
var ErrNoEvaluator = errors.New("evaluator is not configured")

// Snapshot is the complete editor state at one point in time. Snapshots are
// immutable and may be kept by callers.
type Snapshot struct {
	Value     any
	State     docstate.State
	Selection *selection.Selection
}

// Change describes an applied batch and the batch that reverts it.
type Change struct {
	Operations []jsonpatch.Operation
	Inverse    []jsonpatch.Operation
}

// Session owns a snapshot and applies edits to it. It is safe for
// concurrent use; long searches run against the snapshot taken when they
// start.
type Session struct {
	mu       sync.Mutex
	snapshot Snapshot

	evaluator  Evaluator
	serializer jsonvalue.Serializer
	validators []validation.Validator
	expand     docstate.Predicate
	maxResults int
	batchSize  int
	logger     *logr.Logger
}

// Option configures the Session.
type Option func(*Session)

// WithEvaluator sets the query and transform evaluator.
func WithEvaluator(e Evaluator) Option {
	return func(s *Session) {
		s.evaluator = e
	}
}

// WithSerializer sets the serializer used to render selections.
func WithSerializer(serializer jsonvalue.Serializer) Option {
	return func(s *Session) {
		s.serializer = serializer
	}
}

// WithValidators adds validators run by Validate.
func WithValidators(validators ...validation.Validator) Option {
	return func(s *Session) {
		s.validators = append(s.validators, validators...)
	}
}

// WithExpand sets the predicate deciding which containers start expanded.
// The default expands the root and, for array documents, the first item.
func WithExpand(expand docstate.Predicate) Option {
	return func(s *Session) {
		s.expand = expand
	}
}

// WithMaxResults bounds searches; see search.Options.
func WithMaxResults(n int) Option {
	return func(s *Session) {
		s.maxResults = n
	}
}

// WithBatchSize sets how many nodes a search visits per step.
func WithBatchSize(n int) Option {
	return func(s *Session) {
		s.batchSize = n
	}
}

// WithLogger sets the logger used when no logger travels in the context.
func WithLogger(lgr *logr.Logger) Option {
	return func(s *Session) {
		s.logger = lgr
	}
}

// New creates a Session for value with the initial selection placed on the
// first visible node.
func New(value any, opts ...Option) *Session {
	s := &Session{
		serializer: jsonvalue.JSON,
		maxResults: search.DefaultMaxResults,
		batchSize:  search.DefaultBatchSize,
		logger:     logger.GetNoopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.expand == nil {
		s.expand = docstate.ExpandMinimal(value)
	}
	state := docstate.New(value, s.expand)
	s.snapshot = Snapshot{
		Value:     value,
		State:     state,
		Selection: selection.Initial(value, state),
	}
	return s
}

func (s *Session) log(ctx context.Context) *logr.Logger {
	if ctx != nil {
		if lgr := logger.FromContext(ctx); lgr != nil && lgr.GetSink() != nil {
			return lgr
		}
	}
	return s.logger
}

// Snapshot returns the current snapshot.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// Value returns the current document.
func (s *Session) Value() any {
	return s.Snapshot().Value
}

// State returns the current document state.
func (s *Session) State() docstate.State {
	return s.Snapshot().State
}

// Selection returns the current selection, which may be nil.
func (s *Session) Selection() *selection.Selection {
	return s.Snapshot().Selection
}

// update replaces the snapshot with the result of fn under the lock.
func (s *Session) update(fn func(cur Snapshot) (Snapshot, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := fn(s.snapshot)
	if err != nil {
		return err
	}
	s.snapshot = next
	return nil
}

// Patch applies ops to the document and its state as one batch. On success
// the selection moves to what the batch touched; on failure nothing changes.
func (s *Session) Patch(ctx context.Context, ops []jsonpatch.Operation) (Change, error) {
	return s.patch(ctx, ops, nil)
}

// patch applies ops. When sel is non-nil it becomes the new selection,
// otherwise the selection is derived from ops.
func (s *Session) patch(ctx context.Context, ops []jsonpatch.Operation, sel *selection.Selection) (Change, error) {
	lgr := s.log(ctx)
	var change Change
	err := s.update(func(cur Snapshot) (Snapshot, error) {
		if len(ops) == 0 {
			return cur, nil
		}
		inverse, err := jsonpatch.Revert(cur.Value, ops)
		if err != nil {
			return cur, err
		}
		value, state, err := docstate.Patch(cur.Value, cur.State, ops)
		if err != nil {
			return cur, err
		}
		next := sel
		if next == nil {
			next = selection.FromOperations(value, ops)
		}
		if next == nil {
			next = selection.Track(cur.Value, cur.Selection, ops)
		}
		change = Change{Operations: ops, Inverse: inverse}
		return Snapshot{
			Value:     value,
			State:     state,
			Selection: selection.Repair(value, state, next),
		}, nil
	})
	if err != nil {
		lgr.Error(err, "patch failed", logger.OperationsKey, len(ops))
		return Change{}, err
	}
	lgr.V(1).Info("patch applied", logger.OperationsKey, len(ops))
	return change, nil
}

// Undo applies the inverse batch of change.
func (s *Session) Undo(ctx context.Context, change Change) error {
	_, err := s.Patch(ctx, change.Inverse)
	return err
}

// Select replaces the selection. It is repaired against the current state,
// so a selection inside a collapsed container lands on its visible ancestor.
func (s *Session) Select(sel *selection.Selection) {
	_ = s.update(func(cur Snapshot) (Snapshot, error) {
		cur.Selection = selection.Repair(cur.Value, cur.State, sel)
		return cur, nil
	})
}

// Direction is a caret movement.
type Direction string

const (
	DirectionUp    Direction = "up"
	DirectionDown  Direction = "down"
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// Move moves the selection. With keepAnchor the anchor stays and the
// selection grows into a range.
func (s *Session) Move(direction Direction, keepAnchor bool) error {
	var step func(any, docstate.State, *selection.Selection, bool) *selection.Selection
	switch direction {
	case DirectionUp:
		step = selection.Up
	case DirectionDown:
		step = selection.Down
	case DirectionLeft:
		step = selection.Left
	case DirectionRight:
		step = selection.Right
	default:
		return fmt.Errorf("unknown direction %q", direction)
	}
	return s.update(func(cur Snapshot) (Snapshot, error) {
		if next := step(cur.Value, cur.State, cur.Selection, keepAnchor); next != nil {
			cur.Selection = next
		}
		return cur, nil
	})
}

// Expand expands path and all its ancestors.
func (s *Session) Expand(ctx context.Context, path jsonpointer.Path) {
	_ = s.update(func(cur Snapshot) (Snapshot, error) {
		cur.State = docstate.ExpandPath(cur.Value, cur.State, path)
		return cur, nil
	})
	s.log(ctx).V(1).Info("expanded", logger.PathKey, path.String())
}

// ExpandWith expands the subtree at path wherever expand returns true.
func (s *Session) ExpandWith(ctx context.Context, path jsonpointer.Path, expand docstate.Predicate) {
	_ = s.update(func(cur Snapshot) (Snapshot, error) {
		cur.State = docstate.ExpandWithCallback(cur.Value, cur.State, path, expand)
		return cur, nil
	})
	s.log(ctx).V(1).Info("expanded subtree", logger.PathKey, path.String())
}

// ExpandSection reveals an extra section of the array at path, typically
// one offered by sections.ExpandItemsSections for a hidden range.
func (s *Session) ExpandSection(path jsonpointer.Path, section sections.Section) {
	_ = s.update(func(cur Snapshot) (Snapshot, error) {
		cur.State = docstate.ExpandSection(cur.Value, cur.State, path, section)
		return cur, nil
	})
}

// Collapse collapses path and everything below it. A selection that was
// inside the collapsed subtree moves to its visible ancestor.
func (s *Session) Collapse(ctx context.Context, path jsonpointer.Path) {
	_ = s.update(func(cur Snapshot) (Snapshot, error) {
		cur.State = docstate.CollapsePath(cur.State, path)
		cur.Selection = selection.Repair(cur.Value, cur.State, cur.Selection)
		return cur, nil
	})
	s.log(ctx).V(1).Info("collapsed", logger.PathKey, path.String())
}

// SetEnforceString flags the string at path to keep rendering as a string.
func (s *Session) SetEnforceString(path jsonpointer.Path, enforce bool) {
	_ = s.update(func(cur Snapshot) (Snapshot, error) {
		cur.State = docstate.SetEnforceString(cur.Value, cur.State, path, enforce)
		return cur, nil
	})
}

// Search finds text in the current document. The search runs in steps of the
// configured batch size and stops early when ctx ends, in which case the
// matches found so far are returned together with ctx's error.
func (s *Session) Search(ctx context.Context, text string, opts search.Options) ([]search.Result, error) {
	lgr := s.log(ctx)
	snap := s.Snapshot()
	if opts.MaxResults == 0 {
		opts.MaxResults = s.maxResults
	}

	var found []search.Result
	runner := search.NewRunner(
		search.NewCursor(text, snap.Value, snap.State, opts),
		search.WithBatchSize(s.batchSize),
		search.WithProgress(func(batch []search.Result) {
			found = append(found, batch...)
			lgr.V(2).Info("search progress", logger.ResultsKey, len(found))
		}),
	)
	if err := runner.Run(ctx); err != nil {
		lgr.V(1).Info("search cancelled", logger.ResultsKey, len(found))
		return found, err
	}
	lgr.V(1).Info("search finished", logger.ResultsKey, len(found))
	return found, nil
}

// RevealResults expands the document so that every result is visible.
func (s *Session) RevealResults(results []search.Result) {
	_ = s.update(func(cur Snapshot) (Snapshot, error) {
		cur.State = search.ExpandMatches(cur.Value, cur.State, results)
		return cur, nil
	})
}

// Replace replaces one search match. The selection moves to the edited
// field.
func (s *Session) Replace(ctx context.Context, r search.Result, replacement string) (Change, error) {
	snap := s.Snapshot()
	ops, sel := search.ReplaceOperations(snap.Value, snap.State, replacement, r)
	if ops == nil {
		return Change{}, nil
	}
	return s.patch(ctx, ops, sel)
}

// ReplaceAll replaces every match of text and returns the applied change.
func (s *Session) ReplaceAll(ctx context.Context, text, replacement string) (Change, error) {
	snap := s.Snapshot()
	ops := search.ReplaceAllOperations(snap.Value, snap.State, text, replacement)
	return s.Patch(ctx, ops)
}

// SortArray sorts the array at arrayPath by the value at itemPath of every
// item. Item states move along with their items.
func (s *Session) SortArray(ctx context.Context, arrayPath, itemPath jsonpointer.Path, direction sorting.Direction) (Change, error) {
	lgr := s.log(ctx)
	var change Change
	err := s.update(func(cur Snapshot) (Snapshot, error) {
		ops := sorting.ArrayOperations(cur.Value, arrayPath, itemPath, direction)
		if len(ops) == 0 {
			return cur, nil
		}
		inverse, err := jsonpatch.Revert(cur.Value, ops)
		if err != nil {
			return cur, err
		}
		value, state, err := docstate.FastPatchSort(cur.Value, cur.State, ops)
		if err != nil {
			return cur, err
		}
		change = Change{Operations: ops, Inverse: inverse}
		return Snapshot{
			Value:     value,
			State:     state,
			Selection: selection.Repair(value, state, selection.NewValue(arrayPath)),
		}, nil
	})
	if err != nil {
		lgr.Error(err, "sort failed", logger.PathKey, arrayPath.String())
		return Change{}, err
	}
	lgr.V(1).Info("sorted array", logger.PathKey, arrayPath.String(), logger.OperationsKey, len(change.Operations))
	return change, nil
}

// SortObject reorders the keys of the object at objectPath.
func (s *Session) SortObject(ctx context.Context, objectPath jsonpointer.Path, direction sorting.Direction) (Change, error) {
	snap := s.Snapshot()
	ops := sorting.ObjectOperations(snap.Value, objectPath, direction)
	return s.patch(ctx, ops, selection.NewValue(objectPath))
}

// Validate runs the configured validators against the current document.
func (s *Session) Validate() []validation.Error {
	return validation.Run(s.Value(), s.validators...)
}

// Query evaluates expr against the current document without changing it.
func (s *Session) Query(expr string) (any, error) {
	if s.evaluator == nil {
		return nil, ErrNoEvaluator
	}
	return s.evaluator.Evaluate(expr, s.Value())
}

// Transform replaces the document with the result of expr. Document state
// for paths that survive is kept.
func (s *Session) Transform(ctx context.Context, expr string) (Change, error) {
	result, err := s.Query(expr)
	if err != nil {
		s.log(ctx).Error(err, "transform failed")
		return Change{}, err
	}
	return s.Patch(ctx, []jsonpatch.Operation{{Op: jsonpatch.Replace, Path: "", Value: result}})
}

// Copy renders the current selection as text.
func (s *Session) Copy(indent string) (string, error) {
	snap := s.Snapshot()
	return selection.ToPartialJSON(snap.Value, snap.State, snap.Selection, indent, s.serializer)
}

// Remove deletes the current selection.
func (s *Session) Remove(ctx context.Context) (Change, error) {
	snap := s.Snapshot()
	ops := selection.RemoveOperations(snap.Value, snap.State, snap.Selection)
	return s.Patch(ctx, ops)
}

// Insert inserts value at the current selection: after it, inside it or in
// place of it depending on the selection type.
func (s *Session) Insert(ctx context.Context, value any) (Change, error) {
	snap := s.Snapshot()
	ops := selection.InsertOperations(snap.Value, snap.State, snap.Selection, value)
	if ops == nil {
		return Change{}, fmt.Errorf("cannot insert at the current selection")
	}
	return s.Patch(ctx, ops)
}

// Paste parses text with the session serializer and inserts the result.
func (s *Session) Paste(ctx context.Context, text string) (Change, error) {
	value, err := s.serializer.Parse(text)
	if err != nil {
		// plain text is inserted as a string
		value = text
	}
	return s.Insert(ctx, value)
}
