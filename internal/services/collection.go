// Package services holds the entity services: thin wrappers that fix a
// collection name and translate between application and persisted field
// names. They add no business logic.
package services

import (
	"context"

	"fmac-task/internal/docstore"
	"fmac-task/internal/schema"
)

// collection binds a store to one entity's field table. Every read and write
// goes through fields, so callers only ever see application keys.
type collection struct {
	store  docstore.Store
	fields schema.FieldMap
}

func newCollection(store docstore.Store, fields schema.FieldMap) collection {
	return collection{store: store, fields: fields}
}

func (c collection) name() string { return c.fields.Name() }

func (c collection) add(ctx context.Context, data map[string]any) (map[string]any, error) {
	doc, err := c.store.Add(ctx, c.name(), c.fields.ToStore(data))
	if err != nil {
		return nil, err
	}
	return c.fields.ToApp(doc), nil
}

func (c collection) update(ctx context.Context, id string, data map[string]any) (map[string]any, error) {
	doc, err := c.store.Update(ctx, c.name(), id, c.fields.ToStore(data))
	if err != nil {
		return nil, err
	}
	return c.fields.ToApp(doc), nil
}

func (c collection) upsert(ctx context.Context, id string, data map[string]any) (map[string]any, error) {
	doc, err := c.store.Upsert(ctx, c.name(), id, c.fields.ToStore(data))
	if err != nil {
		return nil, err
	}
	return c.fields.ToApp(doc), nil
}

func (c collection) delete(ctx context.Context, id string) error {
	return c.store.Delete(ctx, c.name(), id)
}

func (c collection) get(ctx context.Context, id string) (map[string]any, error) {
	doc, err := c.store.GetByID(ctx, c.name(), id)
	if err != nil {
		return nil, err
	}
	return c.fields.ToApp(doc), nil
}

// where builds a condition on an application field.
func (c collection) where(field string, op docstore.Operator, value any) docstore.Condition {
	return docstore.Where(c.fields.StoreKey(field), op, value)
}

func (c collection) list(ctx context.Context, conds ...docstore.Condition) ([]map[string]any, error) {
	docs, err := c.store.GetAll(ctx, c.name(), conds...)
	if err != nil {
		return nil, err
	}
	return c.toApp(docs), nil
}

func (c collection) listOrdered(ctx context.Context, field string, dir docstore.Direction, conds ...docstore.Condition) ([]map[string]any, error) {
	docs, err := c.store.GetAllOrdered(ctx, c.name(), c.fields.StoreKey(field), dir, conds...)
	if err != nil {
		return nil, err
	}
	return c.toApp(docs), nil
}

func (c collection) toApp(docs []docstore.Document) []map[string]any {
	out := make([]map[string]any, 0, len(docs))
	for _, d := range docs {
		out = append(out, c.fields.ToApp(d))
	}
	return out
}

// op builds a batch operation with translated data.
func (c collection) op(typ docstore.OpType, id string, data map[string]any) docstore.Operation {
	op := docstore.Operation{Type: typ, Collection: c.name(), ID: id}
	if data != nil {
		op.Data = c.fields.ToStore(data)
	}
	return op
}
