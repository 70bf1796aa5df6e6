package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"fmac-task/internal/apperr"
)

// RedisStore keeps each document as a JSON string under doc:<collection>:<id>
// and tracks collection membership in the set docs:<collection>.
type RedisStore struct {
	client *redis.Client
	opts   Options
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client, opts Options) *RedisStore {
	return &RedisStore{client: client, opts: opts.withDefaults()}
}

// NewRedisStoreFromURL parses a redis:// URL and checks connectivity.
func NewRedisStoreFromURL(ctx context.Context, redisURL string, opts Options) (*RedisStore, error) {
	ro, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(ro)
	s := NewRedisStore(client, opts)
	pingCtx, cancel := s.opts.bound(ctx)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return s, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func docKey(collection, id string) string { return "doc:" + collection + ":" + id }
func setKey(collection string) string     { return "docs:" + collection }

func (s *RedisStore) Add(ctx context.Context, collection string, data map[string]any) (Document, error) {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	doc, err := s.prepareAdd("", data)
	if err != nil {
		return nil, apperr.Write("docstore.add", err)
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		return queueSet(ctx, p, collection, doc)
	})
	if err != nil {
		return nil, apperr.Write("docstore.add", err)
	}
	return doc, nil
}

func (s *RedisStore) Update(ctx context.Context, collection, id string, data map[string]any) (Document, error) {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	patch, err := normalize(data)
	if err != nil {
		return nil, apperr.Write("docstore.update", err)
	}
	current, err := s.load(ctx, collection, id)
	if err != nil {
		return nil, apperr.Write("docstore.update", err)
	}
	out := merge(current, patch)
	out[FieldUpdatedAt] = s.opts.stamp()
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		return queueSet(ctx, p, collection, out)
	})
	if err != nil {
		return nil, apperr.Write("docstore.update", err)
	}
	return out, nil
}

func (s *RedisStore) Delete(ctx context.Context, collection, id string) error {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, docKey(collection, id))
		p.SRem(ctx, setKey(collection), id)
		return nil
	})
	return apperr.Write("docstore.delete", err)
}

func (s *RedisStore) GetByID(ctx context.Context, collection, id string) (Document, error) {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	doc, err := s.load(ctx, collection, id)
	if err != nil {
		return nil, apperr.Write("docstore.get", err)
	}
	return doc, nil
}

func (s *RedisStore) GetAll(ctx context.Context, collection string, conds ...Condition) ([]Document, error) {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	ids, err := s.client.SMembers(ctx, setKey(collection)).Result()
	if err != nil {
		return nil, apperr.Write("docstore.list", err)
	}
	if len(ids) == 0 {
		return []Document{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = docKey(collection, id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, apperr.Write("docstore.list", err)
	}
	docs := make([]Document, 0, len(vals))
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			// set entry without a document; a concurrent delete won the race
			continue
		}
		doc, err := decodeDoc(raw)
		if err != nil {
			return nil, apperr.Write("docstore.list", fmt.Errorf("%s: %w", keys[i], err))
		}
		docs = append(docs, doc)
	}
	return filter(docs, conds), nil
}

func (s *RedisStore) GetAllOrdered(ctx context.Context, collection, field string, dir Direction, conds ...Condition) ([]Document, error) {
	docs, err := s.GetAll(ctx, collection, conds...)
	if err != nil {
		return nil, err
	}
	Sort(docs, field, dir)
	return docs, nil
}

func (s *RedisStore) Upsert(ctx context.Context, collection, id string, data map[string]any) (Document, error) {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	patch, err := normalize(data)
	if err != nil {
		return nil, apperr.Write("docstore.upsert", err)
	}
	var out Document
	current, err := s.load(ctx, collection, id)
	switch {
	case err == nil:
		out = merge(current, patch)
		out[FieldUpdatedAt] = s.opts.stamp()
	case errors.Is(err, apperr.ErrNotFound):
		out, err = s.prepareAdd(id, patch)
		if err != nil {
			return nil, apperr.Write("docstore.upsert", err)
		}
	default:
		return nil, apperr.Write("docstore.upsert", err)
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		return queueSet(ctx, p, collection, out)
	})
	if err != nil {
		return nil, apperr.Write("docstore.upsert", err)
	}
	return out, nil
}

func (s *RedisStore) BatchWrite(ctx context.Context, ops []Operation) error {
	for _, op := range ops {
		if err := validateOp(op); err != nil {
			return err
		}
	}
	for i, part := range chunk(ops, s.opts.BatchSize) {
		if err := s.writeChunk(ctx, part); err != nil {
			return apperr.Write(fmt.Sprintf("docstore.batch[chunk %d]", i), err)
		}
	}
	return nil
}

// writeChunk resolves the chunk's documents in order against an overlay of
// the chunk's own earlier writes, then submits it as one MULTI/EXEC.
func (s *RedisStore) writeChunk(ctx context.Context, ops []Operation) error {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	pending := map[string]Document{}
	docs := make([]Document, len(ops))
	for i, op := range ops {
		key := docKey(op.Collection, op.ID)
		switch op.Type {
		case OpAdd:
			doc, err := s.prepareAdd(op.ID, op.Data)
			if err != nil {
				return err
			}
			docs[i] = doc
			pending[key] = doc
		case OpUpdate:
			patch, err := normalize(op.Data)
			if err != nil {
				return err
			}
			current, seen := pending[key]
			if !seen {
				current, err = s.load(ctx, op.Collection, op.ID)
				if err != nil {
					return err
				}
			}
			if current == nil {
				return apperr.NotFound("docstore.batch", "document", op.Collection+"/"+op.ID)
			}
			doc := merge(current, patch)
			doc[FieldUpdatedAt] = s.opts.stamp()
			docs[i] = doc
			pending[key] = doc
		case OpDelete:
			pending[key] = nil
		}
	}
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for i, op := range ops {
			if op.Type == OpDelete {
				p.Del(ctx, docKey(op.Collection, op.ID))
				p.SRem(ctx, setKey(op.Collection), op.ID)
				continue
			}
			if err := queueSet(ctx, p, op.Collection, docs[i]); err != nil {
				return err
			}
		}
		return nil
	})
	return err
}

func (s *RedisStore) load(ctx context.Context, collection, id string) (Document, error) {
	raw, err := s.client.Get(ctx, docKey(collection, id)).Result()
	if err == redis.Nil {
		return nil, apperr.NotFound("docstore.get", "document", collection+"/"+id)
	}
	if err != nil {
		return nil, err
	}
	return decodeDoc(raw)
}

func (s *RedisStore) prepareAdd(id string, data map[string]any) (Document, error) {
	doc, err := normalize(data)
	if err != nil {
		return nil, err
	}
	if id == "" {
		id = s.opts.NewID()
	}
	now := s.opts.stamp()
	out := Document(doc)
	out[FieldID] = id
	out[FieldCreatedAt] = now
	out[FieldUpdatedAt] = now
	return out, nil
}

func queueSet(ctx context.Context, p redis.Pipeliner, collection string, doc Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	p.Set(ctx, docKey(collection, doc.ID()), raw, 0)
	p.SAdd(ctx, setKey(collection), doc.ID())
	return nil
}

func decodeDoc(raw string) (Document, error) {
	doc := Document{}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}
