package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/homewatt/homewatt/internal/auth/domain"
	"github.com/homewatt/homewatt/internal/auth/password"
	goaldomain "github.com/homewatt/homewatt/internal/goal/domain"
	householddomain "github.com/homewatt/homewatt/internal/household/domain"
	meterdomain "github.com/homewatt/homewatt/internal/meter/domain"
	"gorm.io/gorm"
)

const (
	defaultAdminEmail    = "admin@homewatt.local"
	defaultAdminPassword = "admin"
	defaultAdminDisplay  = "HomeWatt Admin"

	demoHouseholdName    = "Demo Home"
	demoHouseholdAddress = "1 Demo Street"
)

// EnsureDefaultAdmin seeds the bootstrap admin account so a fresh install
// is usable without manual setup. The password must be changed on first
// login.
func EnsureDefaultAdmin(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := ensureAdminTx(ctx, tx, node)
		return err
	})
}

// EnsureDemoHousehold seeds a household with one meter of each type and a
// daily electricity goal, owned by the default admin.
func EnsureDemoHousehold(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		admin, err := ensureAdminTx(ctx, tx, node)
		if err != nil {
			return err
		}

		var household householddomain.Household
		err = tx.WithContext(ctx).Where("name = ?", demoHouseholdName).First(&household).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := time.Now().UTC()
		household = householddomain.Household{
			ID:        node.Generate(),
			Name:      demoHouseholdName,
			Address:   demoHouseholdAddress,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.WithContext(ctx).Create(&household).Error; err != nil {
			return err
		}

		member := householddomain.Member{
			HouseholdID: household.ID,
			UserID:      admin.ID,
			JoinedAt:    now,
		}
		if err := tx.WithContext(ctx).Create(&member).Error; err != nil {
			return err
		}

		meters := []meterdomain.Meter{
			{
				ID:          node.Generate(),
				HouseholdID: household.ID,
				Label:       "Main electricity",
				Type:        meterdomain.TypeElectricity,
				Unit:        meterdomain.UnitKilowattHour,
				Active:      true,
				CreatedAt:   now,
				UpdatedAt:   now,
			},
			{
				ID:          node.Generate(),
				HouseholdID: household.ID,
				Label:       "Main water",
				Type:        meterdomain.TypeWater,
				Unit:        meterdomain.UnitLiter,
				Active:      true,
				CreatedAt:   now,
				UpdatedAt:   now,
			},
		}
		for i := range meters {
			if err := tx.WithContext(ctx).Create(&meters[i]).Error; err != nil {
				return err
			}
		}

		goal := goaldomain.Goal{
			ID:          node.Generate(),
			HouseholdID: household.ID,
			MeterType:   meterdomain.TypeElectricity,
			Period:      goaldomain.PeriodDaily,
			LimitValue:  30,
			Active:      true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return tx.WithContext(ctx).Create(&goal).Error
	})
}

func ensureAdminTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node) (authdomain.User, error) {
	var user authdomain.User
	err := tx.WithContext(ctx).
		Where("email = ?", strings.ToLower(defaultAdminEmail)).
		First(&user).Error
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return user, err
	}

	hashed, err := password.Hash(defaultAdminPassword)
	if err != nil {
		return user, err
	}
	now := time.Now().UTC()
	user = authdomain.User{
		ID:           node.Generate(),
		Email:        strings.ToLower(defaultAdminEmail),
		DisplayName:  defaultAdminDisplay,
		PasswordHash: &hashed,
		Role:         authdomain.RoleAdmin,
		IsDefault:    true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := tx.WithContext(ctx).Create(&user).Error; err != nil {
		return user, err
	}
	return user, nil
}
