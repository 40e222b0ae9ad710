package postgres

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"polyring/internal/model"
)

// SaveBatchSize limits the rows written per transaction
const SaveBatchSize = 500

// PolygonRepository stores polygon records in PostgreSQL
type PolygonRepository struct {
	db  *gorm.DB
	log logr.Logger
}

func NewPolygonRepository(db *gorm.DB, log logr.Logger) *PolygonRepository {
	return &PolygonRepository{db: db, log: log}
}

// LoadAll loads every non-deleted polygon
func (r *PolygonRepository) LoadAll(ctx context.Context) ([]*model.PolygonRecord, error) {
	var records []*model.PolygonRecord
	if err := r.db.WithContext(ctx).Find(&records).Error; err != nil {
		return nil, errors.Wrap(err, "load polygons")
	}
	return records, nil
}

// SaveAll upserts records in batches to avoid overwhelming the database
func (r *PolygonRepository) SaveAll(ctx context.Context, records []*model.PolygonRecord) error {
	for i := 0; i < len(records); i += SaveBatchSize {
		end := i + SaveBatchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[i:end]

		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			for _, rec := range batch {
				if err := tx.Save(rec).Error; err != nil {
					return errors.Wrapf(err, "save polygon %s", rec.ID)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}

		r.log.V(1).Info("saved polygon batch", "batch", len(batch), "done", end, "total", len(records))
	}
	return nil
}

// Delete soft-deletes a polygon
func (r *PolygonRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Delete(&model.PolygonRecord{}, "id = ?", id).Error
	return errors.Wrapf(err, "delete polygon %s", id)
}
