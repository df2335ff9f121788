package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// ListCursor marks the last row of the previous page. Readings are keyed
// by (recorded_at, id) descending.
type ListCursor struct {
	RecordedAt time.Time
	ID         snowflake.ID
}

// ListFilter narrows reading listings for one meter.
type ListFilter struct {
	MeterID snowflake.ID
	From    *time.Time
	To      *time.Time
	Cursor  *ListCursor
	Limit   int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, reading *Reading) error
	Update(ctx context.Context, db *gorm.DB, reading *Reading) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Reading, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Reading, error)
	// SumForMeters totals reading values across meters within
	// [start, end): the start instant is included, the end instant
	// excluded. An empty meter set sums to zero.
	SumForMeters(ctx context.Context, db *gorm.DB, meterIDs []snowflake.ID, start, end time.Time) (float64, error)
}
