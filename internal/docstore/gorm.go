package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fmac-task/internal/apperr"
)

// Record is the row shape of the documents table.
type Record struct {
	Collection string         `gorm:"primaryKey;size:64"`
	ID         string         `gorm:"primaryKey;size:64"`
	Data       datatypes.JSON `gorm:"not null"`
	CreatedAt  time.Time      `gorm:"autoCreateTime:false;index"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime:false"`
}

// TableName specifies the table name for Record
func (Record) TableName() string {
	return "documents"
}

// GormStore keeps every collection in one relational table through gorm.
type GormStore struct {
	db   *gorm.DB
	opts Options
}

var _ Store = (*GormStore)(nil)

// NewGormStore wraps an open gorm connection. Call Migrate once before use.
func NewGormStore(db *gorm.DB, opts Options) *GormStore {
	return &GormStore{db: db, opts: opts.withDefaults()}
}

// Migrate creates the documents table if it does not exist.
func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(&Record{})
}

func (s *GormStore) Add(ctx context.Context, collection string, data map[string]any) (Document, error) {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	doc, err := s.prepareAdd("", data)
	if err != nil {
		return nil, apperr.Write("docstore.add", err)
	}
	rec, err := toRecord(collection, doc)
	if err != nil {
		return nil, apperr.Write("docstore.add", err)
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, apperr.Write("docstore.add", err)
	}
	return doc, nil
}

func (s *GormStore) Update(ctx context.Context, collection, id string, data map[string]any) (Document, error) {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	patch, err := normalize(data)
	if err != nil {
		return nil, apperr.Write("docstore.update", err)
	}
	var out Document
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec Record
		if err := tx.Where("collection = ? AND id = ?", collection, id).First(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("docstore.update", "document", collection+"/"+id)
			}
			return err
		}
		out, err = s.applyUpdate(rec, patch)
		if err != nil {
			return err
		}
		next, err := toRecord(collection, out)
		if err != nil {
			return err
		}
		return tx.Save(&next).Error
	})
	if err != nil {
		return nil, apperr.Write("docstore.update", err)
	}
	return out, nil
}

func (s *GormStore) Delete(ctx context.Context, collection, id string) error {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	err := s.db.WithContext(ctx).Where("collection = ? AND id = ?", collection, id).Delete(&Record{}).Error
	return apperr.Write("docstore.delete", err)
}

func (s *GormStore) GetByID(ctx context.Context, collection, id string) (Document, error) {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	var rec Record
	err := s.db.WithContext(ctx).Where("collection = ? AND id = ?", collection, id).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("docstore.get", "document", collection+"/"+id)
		}
		return nil, apperr.Write("docstore.get", err)
	}
	doc, err := fromRecord(rec)
	if err != nil {
		return nil, apperr.Write("docstore.get", err)
	}
	return doc, nil
}

func (s *GormStore) GetAll(ctx context.Context, collection string, conds ...Condition) ([]Document, error) {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	var recs []Record
	if err := s.db.WithContext(ctx).Where("collection = ?", collection).Find(&recs).Error; err != nil {
		return nil, apperr.Write("docstore.list", err)
	}
	docs := make([]Document, 0, len(recs))
	for _, r := range recs {
		doc, err := fromRecord(r)
		if err != nil {
			return nil, apperr.Write("docstore.list", err)
		}
		docs = append(docs, doc)
	}
	return filter(docs, conds), nil
}

func (s *GormStore) GetAllOrdered(ctx context.Context, collection, field string, dir Direction, conds ...Condition) ([]Document, error) {
	docs, err := s.GetAll(ctx, collection, conds...)
	if err != nil {
		return nil, err
	}
	Sort(docs, field, dir)
	return docs, nil
}

func (s *GormStore) Upsert(ctx context.Context, collection, id string, data map[string]any) (Document, error) {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	patch, err := normalize(data)
	if err != nil {
		return nil, apperr.Write("docstore.upsert", err)
	}
	var out Document
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec Record
		err := tx.Where("collection = ? AND id = ?", collection, id).First(&rec).Error
		switch {
		case err == nil:
			out, err = s.applyUpdate(rec, patch)
		case errors.Is(err, gorm.ErrRecordNotFound):
			out, err = s.prepareAdd(id, patch)
		}
		if err != nil {
			return err
		}
		next, err := toRecord(collection, out)
		if err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&next).Error
	})
	if err != nil {
		return nil, apperr.Write("docstore.upsert", err)
	}
	return out, nil
}

func (s *GormStore) BatchWrite(ctx context.Context, ops []Operation) error {
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

func (s *GormStore) writeChunk(ctx context.Context, ops []Operation) error {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, op := range ops {
			switch op.Type {
			case OpAdd:
				doc, err := s.prepareAdd(op.ID, op.Data)
				if err != nil {
					return err
				}
				rec, err := toRecord(op.Collection, doc)
				if err != nil {
					return err
				}
				if err := tx.Create(&rec).Error; err != nil {
					return err
				}
			case OpUpdate:
				patch, err := normalize(op.Data)
				if err != nil {
					return err
				}
				var rec Record
				if err := tx.Where("collection = ? AND id = ?", op.Collection, op.ID).First(&rec).Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return apperr.NotFound("docstore.batch", "document", op.Collection+"/"+op.ID)
					}
					return err
				}
				doc, err := s.applyUpdate(rec, patch)
				if err != nil {
					return err
				}
				next, err := toRecord(op.Collection, doc)
				if err != nil {
					return err
				}
				if err := tx.Save(&next).Error; err != nil {
					return err
				}
			case OpDelete:
				if err := tx.Where("collection = ? AND id = ?", op.Collection, op.ID).Delete(&Record{}).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (s *GormStore) prepareAdd(id string, data map[string]any) (Document, error) {
	doc, err := normalize(data)
	if err != nil {
		return nil, err
	}
	if id == "" {
		id = s.opts.NewID()
	}
	now := s.opts.stamp()
	doc[FieldID] = id
	doc[FieldCreatedAt] = now
	doc[FieldUpdatedAt] = now
	return doc, nil
}

func (s *GormStore) applyUpdate(rec Record, patch map[string]any) (Document, error) {
	current, err := fromRecord(rec)
	if err != nil {
		return nil, err
	}
	out := merge(current, patch)
	out[FieldUpdatedAt] = s.opts.stamp()
	return out, nil
}

func toRecord(collection string, doc Document) (Record, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return Record{}, fmt.Errorf("encode document: %w", err)
	}
	created, _ := time.Parse(time.RFC3339Nano, doc.String(FieldCreatedAt))
	updated, _ := time.Parse(time.RFC3339Nano, doc.String(FieldUpdatedAt))
	return Record{
		Collection: collection,
		ID:         doc.ID(),
		Data:       datatypes.JSON(raw),
		CreatedAt:  created,
		UpdatedAt:  updated,
	}, nil
}

func fromRecord(rec Record) (Document, error) {
	doc := Document{}
	if err := json.Unmarshal(rec.Data, &doc); err != nil {
		return nil, fmt.Errorf("decode document %s/%s: %w", rec.Collection, rec.ID, err)
	}
	doc[FieldID] = rec.ID
	return doc, nil
}
