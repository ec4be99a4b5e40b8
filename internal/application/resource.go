package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/tourhub-api/internal/domain/entity"
	repo "github.com/oksasatya/tourhub-api/internal/domain/repository"
	"github.com/oksasatya/tourhub-api/pkg/apperror"
	"github.com/oksasatya/tourhub-api/pkg/query"
	"github.com/oksasatya/tourhub-api/pkg/validation"
)

// Document is the outward representation of a record after projection and
// relation expansion.
type Document = map[string]any

// ExpandParam is the request key naming relations to expand. It never
// reaches the query builder.
const ExpandParam = "expand"

// serverFields are assigned by the server and ignored in payloads.
var serverFields = []string{query.IDField, "createdAt", "updatedAt", query.VersionField}

// Relation declares a foreign key field that can be replaced by the record it
// points at. Resolve returns repository.ErrNotFound for dangling keys.
type Relation struct {
	Field   string
	Resolve func(ctx context.Context, id string) (any, error)
}

type WriteOp int

const (
	OpCreated WriteOp = iota + 1
	OpUpdated
	OpDeleted
)

// WriteEvent describes a completed write. Previous is set for updates.
type WriteEvent[T entity.Record] struct {
	Op       WriteOp
	Record   T
	Previous T
}

// Hook runs after a successful write. Its error is logged, never returned to
// the caller of the write.
type Hook[T entity.Record] func(ctx context.Context, ev WriteEvent[T]) error

// Descriptor parameterizes Resource for one entity type.
type Descriptor[T entity.Record] struct {
	// Name is used in messages, e.g. "No tour found with that ID".
	Name string
	New  func() T
	// Validate overrides struct tag validation when set.
	Validate  func(T) error
	Relations []Relation
	Hidden    []string
	// Immutable fields are set on create and silently dropped from patches.
	Immutable  []string
	AfterWrite []Hook[T]
}

// Resource implements create, read, list, update and delete for one entity
// type on top of a repository.Collection.
type Resource[T entity.Record] struct {
	desc      Descriptor[T]
	store     repo.Collection[T]
	validator *validation.Validator
	logger    *logrus.Logger

	Now   func() time.Time
	NewID func() string
}

func NewResource[T entity.Record](desc Descriptor[T], store repo.Collection[T], v *validation.Validator, logger *logrus.Logger) *Resource[T] {
	return &Resource[T]{
		desc:      desc,
		store:     store,
		validator: v,
		logger:    logger,
		Now:       time.Now,
		NewID:     uuid.NewString,
	}
}

// Name returns the resource name used in messages.
func (r *Resource[T]) Name() string { return r.desc.Name }

// Store exposes the underlying collection to hooks and collaborators.
func (r *Resource[T]) Store() repo.Collection[T] { return r.store }

func (r *Resource[T]) check(rec T) error {
	if n, ok := any(rec).(entity.Normalizer); ok {
		n.Normalize()
	}
	if r.desc.Validate != nil {
		return r.desc.Validate(rec)
	}
	return r.validator.Struct(rec)
}

// CreateOne validates rec, assigns the server fields and inserts it.
func (r *Resource[T]) CreateOne(ctx context.Context, rec T) (T, error) {
	var zero T
	rec.SetID(r.NewID())
	rec.SetVersion(0)
	if err := r.check(rec); err != nil {
		return zero, err
	}
	rec.Stamp(r.Now())
	if err := r.store.Insert(ctx, rec); err != nil {
		return zero, r.mapErr(err)
	}
	r.afterWrite(ctx, WriteEvent[T]{Op: OpCreated, Record: rec})
	return rec, nil
}

// Decode builds a new record from a request payload. Server assigned fields
// in the payload are ignored.
func (r *Resource[T]) Decode(payload map[string]any) (T, error) {
	rec := r.desc.New()
	if err := mergeInto(rec, payload); err != nil {
		var zero T
		return zero, err
	}
	return rec, nil
}

// mergeInto overwrites the fields of rec present in patch, leaving the rest
// (hidden fields included) untouched.
func mergeInto(rec any, patch map[string]any) error {
	clean := make(map[string]any, len(patch))
	for k, v := range patch {
		if !slices.Contains(serverFields, k) {
			clean[k] = v
		}
	}
	raw, err := json.Marshal(clean)
	if err != nil {
		return apperror.Validation("Invalid input data", validation.ToDetails(err))
	}
	if err := json.Unmarshal(raw, rec); err != nil {
		return apperror.Validation("Invalid input data", validation.ToDetails(err))
	}
	return nil
}

// withoutKeys returns patch minus keys, leaving patch itself untouched.
func withoutKeys(patch map[string]any, keys []string) map[string]any {
	if len(keys) == 0 {
		return patch
	}
	out := make(map[string]any, len(patch))
	for k, v := range patch {
		if !slices.Contains(keys, k) {
			out[k] = v
		}
	}
	return out
}

// GetOne fetches id and expands the named relations.
func (r *Resource[T]) GetOne(ctx context.Context, id string, expand ...string) (Document, error) {
	if err := r.checkRelations(expand); err != nil {
		return nil, err
	}
	rec, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, r.mapErr(err)
	}
	doc := r.document(rec, defaultProjection)
	if err := r.expand(ctx, doc, expand); err != nil {
		return nil, err
	}
	return doc, nil
}

// GetAll runs the request parameters through the query builder with the
// scope conditions injected, then projects and expands every record.
func (r *Resource[T]) GetAll(ctx context.Context, params url.Values, scope ...query.Condition) ([]Document, error) {
	params, expand := splitExpand(params)
	if err := r.checkRelations(expand); err != nil {
		return nil, err
	}

	q, err := query.New(params).Scope(scope...).Run(ctx, r.store)
	if err != nil {
		return nil, r.mapErr(err)
	}
	recs, err := r.store.Find(ctx, q)
	if err != nil {
		return nil, r.mapErr(err)
	}

	docs := make([]Document, 0, len(recs))
	for _, rec := range recs {
		doc := r.document(rec, q.Projection())
		if err := r.expand(ctx, doc, expand); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// UpdateOne merges patch onto the stored record, validates the result and
// writes it if nobody changed the record in between. It returns the record
// as stored after the update.
func (r *Resource[T]) UpdateOne(ctx context.Context, id string, patch map[string]any) (T, error) {
	var zero T
	rec, err := r.store.Get(ctx, id)
	if err != nil {
		return zero, r.mapErr(err)
	}
	prev, err := r.store.Get(ctx, id)
	if err != nil {
		return zero, r.mapErr(err)
	}

	if err := mergeInto(rec, withoutKeys(patch, r.desc.Immutable)); err != nil {
		return zero, err
	}

	if err := r.check(rec); err != nil {
		return zero, err
	}
	rec.Stamp(r.Now())
	if err := r.store.Replace(ctx, rec); err != nil {
		return zero, r.mapErr(err)
	}
	r.afterWrite(ctx, WriteEvent[T]{Op: OpUpdated, Record: rec, Previous: prev})
	return rec, nil
}

// DeleteOne removes id permanently.
func (r *Resource[T]) DeleteOne(ctx context.Context, id string) error {
	rec, err := r.store.Get(ctx, id)
	if err != nil {
		return r.mapErr(err)
	}
	if err := r.store.Delete(ctx, id); err != nil {
		return r.mapErr(err)
	}
	r.afterWrite(ctx, WriteEvent[T]{Op: OpDeleted, Record: rec})
	return nil
}

// Document renders rec the way GetOne does, without relation expansion.
func (r *Resource[T]) Document(rec T) Document {
	return r.document(rec, defaultProjection)
}

func (r *Resource[T]) document(rec T, p query.Projection) Document {
	return toDocument(rec, p, r.desc.Hidden)
}

// toDocument renders rec through its json tags, so fields tagged "-" never
// appear, then drops what p or hidden exclude.
func toDocument(rec any, p query.Projection, hidden []string) Document {
	doc := Document{}
	if b, err := json.Marshal(rec); err == nil {
		_ = json.Unmarshal(b, &doc)
	}
	for k := range doc {
		if !p.Keeps(k) || slices.Contains(hidden, k) {
			delete(doc, k)
		}
	}
	return doc
}

func (r *Resource[T]) checkRelations(names []string) error {
	for _, name := range names {
		if !slices.ContainsFunc(r.desc.Relations, func(rel Relation) bool { return rel.Field == name }) {
			return apperror.Validation("Unknown relation: "+name, map[string]string{ExpandParam: name})
		}
	}
	return nil
}

func (r *Resource[T]) expand(ctx context.Context, doc Document, names []string) error {
	for _, rel := range r.desc.Relations {
		if !slices.Contains(names, rel.Field) {
			continue
		}
		id, ok := doc[rel.Field].(string)
		if !ok || id == "" {
			continue
		}
		v, err := rel.Resolve(ctx, id)
		switch {
		case errors.Is(err, repo.ErrNotFound):
			doc[rel.Field] = nil
		case err != nil:
			return err
		default:
			doc[rel.Field] = v
		}
	}
	return nil
}

func (r *Resource[T]) afterWrite(ctx context.Context, ev WriteEvent[T]) {
	if len(r.desc.AfterWrite) == 0 {
		return
	}
	// the write already happened; a disconnecting client must not cut hooks short
	ctx = context.WithoutCancel(ctx)
	for _, h := range r.desc.AfterWrite {
		if err := h(ctx, ev); err != nil && r.logger != nil {
			r.logger.WithError(err).WithFields(logrus.Fields{
				"resource": r.desc.Name,
				"id":       ev.Record.GetID(),
			}).Warn("post-write hook failed")
		}
	}
}

func (r *Resource[T]) mapErr(err error) error {
	return mapStoreErr(r.desc.Name, err)
}

func mapStoreErr(name string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repo.ErrNotFound):
		return apperror.NotFound(fmt.Sprintf("No %s found with that ID", name))
	case errors.Is(err, repo.ErrDuplicate):
		return apperror.Validation("Duplicate field value. Please use another value!", nil)
	case errors.Is(err, repo.ErrVersionConflict):
		return apperror.Conflict(fmt.Sprintf("The %s was modified by another request. Please retry.", name))
	case errors.Is(err, repo.ErrUnknownField), errors.Is(err, repo.ErrInvalidValue):
		return apperror.Validation("Invalid query: "+err.Error(), nil)
	default:
		return err
	}
}

// splitExpand removes the expand parameter and returns its comma separated
// names.
func splitExpand(params url.Values) (url.Values, []string) {
	raw, ok := params[ExpandParam]
	if !ok {
		return params, nil
	}
	rest := make(url.Values, len(params))
	for k, v := range params {
		if k != ExpandParam {
			rest[k] = v
		}
	}
	return rest, SplitList(strings.Join(raw, ","))
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
