package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	readingdomain "github.com/homewatt/homewatt/internal/reading/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() readingdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, reading *readingdomain.Reading) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO readings (id, meter_id, value, recorded_at, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		reading.ID,
		reading.MeterID,
		reading.Value,
		reading.RecordedAt,
		reading.Notes,
		reading.CreatedAt,
		reading.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, reading *readingdomain.Reading) error {
	return db.WithContext(ctx).Exec(
		`UPDATE readings
		 SET value = ?, recorded_at = ?, notes = ?, updated_at = ?
		 WHERE id = ?`,
		reading.Value,
		reading.RecordedAt,
		reading.Notes,
		reading.UpdatedAt,
		reading.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM readings WHERE id = ?`,
		id,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*readingdomain.Reading, error) {
	var reading readingdomain.Reading
	err := db.WithContext(ctx).Raw(
		`SELECT id, meter_id, value, recorded_at, notes, created_at, updated_at
		 FROM readings WHERE id = ?`,
		id,
	).Scan(&reading).Error
	if err != nil {
		return nil, err
	}
	if reading.ID == 0 {
		return nil, nil
	}
	return &reading, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter readingdomain.ListFilter) ([]readingdomain.Reading, error) {
	query := db.WithContext(ctx).
		Model(&readingdomain.Reading{}).
		Where("meter_id = ?", filter.MeterID)

	if filter.From != nil {
		query = query.Where("recorded_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("recorded_at <= ?", *filter.To)
	}
	if filter.Cursor != nil {
		query = query.Where(
			"recorded_at < ? OR (recorded_at = ? AND id < ?)",
			filter.Cursor.RecordedAt,
			filter.Cursor.RecordedAt,
			filter.Cursor.ID,
		)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var readings []readingdomain.Reading
	if err := query.Order("recorded_at DESC, id DESC").Find(&readings).Error; err != nil {
		return nil, err
	}
	return readings, nil
}

func (r *repo) SumForMeters(ctx context.Context, db *gorm.DB, meterIDs []snowflake.ID, start, end time.Time) (float64, error) {
	if len(meterIDs) == 0 {
		return 0, nil
	}

	var total float64
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(value), 0)
		 FROM readings
		 WHERE meter_id IN ? AND recorded_at >= ? AND recorded_at < ?`,
		meterIDs,
		start,
		end,
	).Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}
