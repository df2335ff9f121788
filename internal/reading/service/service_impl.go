package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/homewatt/homewatt/internal/clock"
	"github.com/homewatt/homewatt/internal/evaluation"
	householddomain "github.com/homewatt/homewatt/internal/household/domain"
	meterdomain "github.com/homewatt/homewatt/internal/meter/domain"
	obsmetrics "github.com/homewatt/homewatt/internal/observability/metrics"
	readingdomain "github.com/homewatt/homewatt/internal/reading/domain"
	"github.com/homewatt/homewatt/internal/sanitize"
	"github.com/homewatt/homewatt/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       readingdomain.Repository
	Meters     meterdomain.Repository
	Households householddomain.Service
	Evaluator  evaluation.Service
	Clock      clock.Clock         `optional:"true"`
	Metrics    *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	repo       readingdomain.Repository
	meters     meterdomain.Repository
	genID      *snowflake.Node
	households householddomain.Service
	evaluator  evaluation.Service
	clock      clock.Clock
	metrics    *obsmetrics.Metrics
}

func New(p Params) readingdomain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("reading.service"),
		repo:       p.Repo,
		meters:     p.Meters,
		genID:      p.GenID,
		households: p.Households,
		evaluator:  p.Evaluator,
		clock:      clk,
		metrics:    p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req readingdomain.CreateRequest) (*readingdomain.Response, error) {
	meterID, err := readingdomain.ParseID(strings.TrimSpace(req.MeterID))
	if err != nil || meterID == 0 {
		return nil, readingdomain.ErrInvalidMeter
	}

	meter, err := s.meters.FindByID(ctx, s.db, meterID)
	if err != nil {
		return nil, err
	}
	if meter == nil {
		return nil, readingdomain.ErrMeterNotFound
	}

	if ok, err := s.households.HasAccess(ctx, meter.HouseholdID); err != nil {
		return nil, err
	} else if !ok {
		return nil, readingdomain.ErrForbidden
	}

	if err := validateValue(req.Value); err != nil {
		return nil, err
	}
	if req.RecordedAt.IsZero() {
		return nil, readingdomain.ErrInvalidRecordedAt
	}

	now := s.clock.Now()
	reading := &readingdomain.Reading{
		ID:         s.genID.Generate(),
		MeterID:    meterID,
		Value:      req.Value,
		RecordedAt: req.RecordedAt.UTC(),
		Notes:      sanitize.Text(req.Notes),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Insert(ctx, s.db, reading); err != nil {
		return nil, err
	}

	s.metrics.RecordReadingIngest(ctx, meter.Type)

	// The reading is committed; evaluation failures must not surface to
	// the caller.
	s.evaluator.OnReadingWritten(ctx, meterID, reading.RecordedAt)

	return toResponse(reading), nil
}

func (s *Service) ListByMeter(ctx context.Context, req readingdomain.ListRequest) (*readingdomain.ListResponse, error) {
	meterID, err := readingdomain.ParseID(strings.TrimSpace(req.MeterID))
	if err != nil || meterID == 0 {
		return nil, readingdomain.ErrInvalidMeter
	}

	meter, err := s.meters.FindByID(ctx, s.db, meterID)
	if err != nil {
		return nil, err
	}
	if meter == nil {
		return nil, readingdomain.ErrMeterNotFound
	}

	if ok, err := s.households.HasAccess(ctx, meter.HouseholdID); err != nil {
		return nil, err
	} else if !ok {
		return nil, readingdomain.ErrForbidden
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	filter := readingdomain.ListFilter{
		MeterID: meterID,
		From:    req.From,
		To:      req.To,
		// One extra row tells us whether another page exists.
		Limit: pageSize + 1,
	}
	if token := strings.TrimSpace(req.PageToken); token != "" {
		cursor, err := decodeListCursor(token)
		if err != nil {
			return nil, readingdomain.ErrInvalidPageToken
		}
		filter.Cursor = cursor
	}

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	page := make([]*readingdomain.Reading, 0, len(items))
	for i := range items {
		page = append(page, &items[i])
	}
	page, pageInfo := pagination.BuildCursorPageInfo(page, pageSize, encodeListCursor)

	resp := make([]readingdomain.Response, 0, len(page))
	for _, item := range page {
		resp = append(resp, *toResponse(item))
	}
	return &readingdomain.ListResponse{Readings: resp, PageInfo: pageInfo}, nil
}

func encodeListCursor(r *readingdomain.Reading) string {
	token, err := pagination.EncodeCursor(pagination.Cursor{
		ID:        r.ID.String(),
		CreatedAt: r.RecordedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return ""
	}
	return token
}

func decodeListCursor(token string) (*readingdomain.ListCursor, error) {
	cursor, err := pagination.DecodeCursor(token)
	if err != nil {
		return nil, err
	}
	id, err := readingdomain.ParseID(cursor.ID)
	if err != nil {
		return nil, err
	}
	recordedAt, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &readingdomain.ListCursor{RecordedAt: recordedAt, ID: id}, nil
}

func (s *Service) Update(ctx context.Context, req readingdomain.UpdateRequest) (*readingdomain.Response, error) {
	readingID, err := readingdomain.ParseID(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, readingdomain.ErrInvalidID
	}

	reading, err := s.repo.FindByID(ctx, s.db, readingID)
	if err != nil {
		return nil, err
	}
	if reading == nil {
		return nil, readingdomain.ErrNotFound
	}

	meter, err := s.meters.FindByID(ctx, s.db, reading.MeterID)
	if err != nil {
		return nil, err
	}
	if meter == nil {
		return nil, readingdomain.ErrMeterNotFound
	}

	if ok, err := s.households.HasAccess(ctx, meter.HouseholdID); err != nil {
		return nil, err
	} else if !ok {
		return nil, readingdomain.ErrForbidden
	}

	if req.Value != nil {
		if err := validateValue(*req.Value); err != nil {
			return nil, err
		}
		reading.Value = *req.Value
	}
	if req.RecordedAt != nil {
		if req.RecordedAt.IsZero() {
			return nil, readingdomain.ErrInvalidRecordedAt
		}
		reading.RecordedAt = req.RecordedAt.UTC()
	}
	if req.Notes != nil {
		reading.Notes = sanitize.Text(*req.Notes)
	}

	reading.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, reading); err != nil {
		return nil, err
	}

	// Amended values shift period totals, so the goals are re-checked.
	s.evaluator.OnReadingWritten(ctx, reading.MeterID, reading.RecordedAt)

	return toResponse(reading), nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	readingID, err := readingdomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return readingdomain.ErrInvalidID
	}

	reading, err := s.repo.FindByID(ctx, s.db, readingID)
	if err != nil {
		return err
	}
	if reading == nil {
		return readingdomain.ErrNotFound
	}

	meter, err := s.meters.FindByID(ctx, s.db, reading.MeterID)
	if err != nil {
		return err
	}
	if meter == nil {
		return readingdomain.ErrMeterNotFound
	}

	if ok, err := s.households.HasAccess(ctx, meter.HouseholdID); err != nil {
		return err
	} else if !ok {
		return readingdomain.ErrForbidden
	}

	return s.repo.Delete(ctx, s.db, readingID)
}

func validateValue(value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return readingdomain.ErrInvalidValue
	}
	return nil
}

func toResponse(r *readingdomain.Reading) *readingdomain.Response {
	return &readingdomain.Response{
		ID:         r.ID.String(),
		MeterID:    r.MeterID.String(),
		Value:      r.Value,
		RecordedAt: r.RecordedAt,
		Notes:      r.Notes,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}
