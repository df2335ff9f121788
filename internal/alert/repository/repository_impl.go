package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	alertdomain "github.com/homewatt/homewatt/internal/alert/domain"
	"github.com/homewatt/homewatt/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() alertdomain.Repository {
	return &repo{}
}

func (r *repo) Upsert(ctx context.Context, dbx *gorm.DB, a *alertdomain.Alert) error {
	conflict := clause.OnConflict{
		Columns: []clause.Column{
			{Name: "goal_id"},
			{Name: "period_start"},
			{Name: "period_end"},
		},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"status":     alertdomain.StatusOpen,
			"message":    a.Message,
			"updated_at": a.UpdatedAt,
		}),
	}

	err := dbx.WithContext(ctx).Clauses(conflict).Create(a).Error
	if err == nil {
		return nil
	}
	if !db.IsDuplicateKeyErr(err) {
		return err
	}

	// Lost a race with a concurrent insert; converge on the update branch.
	return dbx.WithContext(ctx).Exec(
		`UPDATE alerts
		 SET status = ?, message = ?, updated_at = ?
		 WHERE goal_id = ? AND period_start = ? AND period_end = ?`,
		alertdomain.StatusOpen,
		a.Message,
		a.UpdatedAt,
		a.GoalID,
		a.PeriodStart,
		a.PeriodEnd,
	).Error
}

func (r *repo) FindByID(ctx context.Context, dbx *gorm.DB, id snowflake.ID) (*alertdomain.Alert, error) {
	var alert alertdomain.Alert
	err := dbx.WithContext(ctx).Raw(
		`SELECT id, household_id, goal_id, period_start, period_end, status, message,
		        acknowledged_at, acknowledged_by, created_at, updated_at
		 FROM alerts WHERE id = ?`,
		id,
	).Scan(&alert).Error
	if err != nil {
		return nil, err
	}
	if alert.ID == 0 {
		return nil, nil
	}
	return &alert, nil
}

func (r *repo) List(ctx context.Context, dbx *gorm.DB, filter alertdomain.ListFilter) ([]alertdomain.Alert, error) {
	query := dbx.WithContext(ctx).
		Model(&alertdomain.Alert{}).
		Where("household_id = ?", filter.HouseholdID)

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.OnlyAcknowledged {
		query = query.Where("status = ?", alertdomain.StatusAcknowledged)
	}

	var alerts []alertdomain.Alert
	if err := query.Order("created_at DESC").Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

func (r *repo) Acknowledge(ctx context.Context, dbx *gorm.DB, id snowflake.ID, by snowflake.ID, at time.Time) error {
	tx := dbx.WithContext(ctx).Exec(
		`UPDATE alerts
		 SET status = ?, acknowledged_at = ?, acknowledged_by = ?, updated_at = ?
		 WHERE id = ?`,
		alertdomain.StatusAcknowledged,
		at,
		by,
		at,
		id,
	)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repo) HouseholdMemberEmails(ctx context.Context, dbx *gorm.DB, householdID snowflake.ID) ([]string, error) {
	var emails []string
	err := dbx.WithContext(ctx).Raw(
		`SELECT u.email
		 FROM users u
		 JOIN household_members m ON m.user_id = u.id
		 WHERE m.household_id = ?
		 ORDER BY u.email ASC`,
		householdID,
	).Scan(&emails).Error
	if err != nil {
		return nil, err
	}
	return emails, nil
}
