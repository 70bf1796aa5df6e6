// Package docstore is a uniform CRUD adapter over named document collections.
// It knows nothing about tasks or projects; every backend implements Store.
package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fmac-task/internal/apperr"
)

const (
	FieldID        = "id"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"

	// TimeLayout is fixed width so stamps order correctly as strings.
	TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

	DefaultBatchSize = 500
	DefaultTimeout   = 10 * time.Second
)

// Document is a stored record. It always carries id, createdAt and updatedAt.
type Document map[string]any

func (d Document) ID() string {
	s, _ := d[FieldID].(string)
	return s
}

func (d Document) String(field string) string {
	s, _ := d[field].(string)
	return s
}

// Clone returns a shallow copy.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

type OpType string

const (
	OpAdd    OpType = "add"
	OpUpdate OpType = "update"
	OpDelete OpType = "delete"
)

// Operation is one entry of a batch write. ID is optional for OpAdd.
type Operation struct {
	Type       OpType
	Collection string
	ID         string
	Data       map[string]any
}

// Store is the document store client contract.
type Store interface {
	Add(ctx context.Context, collection string, data map[string]any) (Document, error)
	// Update merges data into an existing document. A missing id fails with
	// apperr.ErrNotFound.
	Update(ctx context.Context, collection, id string, data map[string]any) (Document, error)
	// Delete is idempotent.
	Delete(ctx context.Context, collection, id string) error
	GetByID(ctx context.Context, collection, id string) (Document, error)
	GetAll(ctx context.Context, collection string, conds ...Condition) ([]Document, error)
	GetAllOrdered(ctx context.Context, collection, field string, dir Direction, conds ...Condition) ([]Document, error)
	Upsert(ctx context.Context, collection, id string, data map[string]any) (Document, error)
	// BatchWrite submits operations in chunks of the configured batch size.
	// Each chunk is atomic.
	BatchWrite(ctx context.Context, ops []Operation) error
}

// Options are shared by every backend.
type Options struct {
	Timeout   time.Duration
	BatchSize int
	Now       func() time.Time
	NewID     func() string
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	return o
}

func (o Options) stamp() string {
	return o.Now().UTC().Format(TimeLayout)
}

// bound applies the per-call timeout.
func (o Options) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, o.Timeout)
}

// normalize round-trips data through JSON so the values a caller gets back
// from a write are the values a later read returns.
func normalize(data map[string]any) (map[string]any, error) {
	if data == nil {
		return map[string]any{}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return out, nil
}

// merge applies patch on top of base. The id and createdAt of base win.
func merge(base, patch map[string]any) Document {
	out := make(Document, len(base)+len(patch))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range patch {
		if k == FieldID || k == FieldCreatedAt {
			continue
		}
		out[k] = v
	}
	return out
}

// chunk splits ops into slices of at most size entries.
func chunk(ops []Operation, size int) [][]Operation {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var out [][]Operation
	for len(ops) > size {
		out = append(out, ops[:size])
		ops = ops[size:]
	}
	if len(ops) > 0 {
		out = append(out, ops)
	}
	return out
}

func validateOp(op Operation) error {
	if op.Collection == "" {
		return apperr.Invalid("docstore.batch", "operation without collection")
	}
	switch op.Type {
	case OpAdd:
		return nil
	case OpUpdate, OpDelete:
		if op.ID == "" {
			return apperr.Invalid("docstore.batch", fmt.Sprintf("%s operation without id", op.Type))
		}
		return nil
	default:
		return apperr.Invalid("docstore.batch", fmt.Sprintf("unknown operation type %q", op.Type))
	}
}
