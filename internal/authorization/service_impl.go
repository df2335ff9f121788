package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectHousehold = "household"
	ObjectMember    = "member"
	ObjectMeter     = "meter"
	ObjectReading   = "reading"
	ObjectGoal      = "goal"
	ObjectAlert     = "alert"
	ObjectUser      = "user"
)

const (
	ActionHouseholdView   = "household.view"
	ActionHouseholdCreate = "household.create"
	ActionHouseholdUpdate = "household.update"
	ActionHouseholdDelete = "household.delete"

	ActionMemberView   = "member.view"
	ActionMemberManage = "member.manage"

	ActionMeterView   = "meter.view"
	ActionMeterCreate = "meter.create"
	ActionMeterUpdate = "meter.update"
	ActionMeterDelete = "meter.delete"

	ActionReadingView   = "reading.view"
	ActionReadingIngest = "reading.ingest"
	ActionReadingUpdate = "reading.update"
	ActionReadingDelete = "reading.delete"

	ActionGoalView   = "goal.view"
	ActionGoalCreate = "goal.create"
	ActionGoalUpdate = "goal.update"
	ActionGoalDelete = "goal.delete"

	ActionAlertView        = "alert.view"
	ActionAlertAcknowledge = "alert.acknowledge"

	ActionUserCreate = "user.create"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, actor string, role string, object string, action string) error {
	_ = ctx

	actor = strings.TrimSpace(actor)
	if actor == "" {
		return ErrInvalidActor
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		return ErrInvalidActor
	}
	subject := fmt.Sprintf("user:%s", actor)
	roleName := fmt.Sprintf("role:%s", role)

	if err := s.ensureGrouping(subject, roleName); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Debug("authorization denied",
			zap.String("subject", subject),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) ensureGrouping(subject string, roleName string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 {
			continue
		}
		if rule[1] != roleName {
			params := make([]interface{}, 0, len(rule))
			for _, value := range rule {
				params = append(params, value)
			}
			_, _ = s.enforcer.RemoveGroupingPolicy(params...)
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName)
	return err
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Residents act within households they belong to. Membership itself
		// is checked at the handler layer.
		{"role:resident", ObjectHousehold, ActionHouseholdView},
		{"role:resident", ObjectHousehold, ActionHouseholdCreate},
		{"role:resident", ObjectHousehold, ActionHouseholdUpdate},
		{"role:resident", ObjectMember, ActionMemberView},
		{"role:resident", ObjectMeter, ActionMeterView},
		{"role:resident", ObjectMeter, ActionMeterCreate},
		{"role:resident", ObjectReading, ActionReadingView},
		{"role:resident", ObjectReading, ActionReadingIngest},
		{"role:resident", ObjectReading, ActionReadingUpdate},
		{"role:resident", ObjectGoal, ActionGoalView},
		{"role:resident", ObjectGoal, ActionGoalCreate},
		{"role:resident", ObjectGoal, ActionGoalUpdate},
		{"role:resident", ObjectGoal, ActionGoalDelete},
		{"role:resident", ObjectAlert, ActionAlertView},

		// Admins manage everything.
		{"role:admin", ObjectHousehold, ActionHouseholdView},
		{"role:admin", ObjectHousehold, ActionHouseholdCreate},
		{"role:admin", ObjectHousehold, ActionHouseholdUpdate},
		{"role:admin", ObjectHousehold, ActionHouseholdDelete},
		{"role:admin", ObjectMember, ActionMemberView},
		{"role:admin", ObjectMember, ActionMemberManage},
		{"role:admin", ObjectMeter, ActionMeterView},
		{"role:admin", ObjectMeter, ActionMeterCreate},
		{"role:admin", ObjectMeter, ActionMeterUpdate},
		{"role:admin", ObjectMeter, ActionMeterDelete},
		{"role:admin", ObjectReading, ActionReadingView},
		{"role:admin", ObjectReading, ActionReadingIngest},
		{"role:admin", ObjectReading, ActionReadingUpdate},
		{"role:admin", ObjectReading, ActionReadingDelete},
		{"role:admin", ObjectGoal, ActionGoalView},
		{"role:admin", ObjectGoal, ActionGoalCreate},
		{"role:admin", ObjectGoal, ActionGoalUpdate},
		{"role:admin", ObjectGoal, ActionGoalDelete},
		{"role:admin", ObjectAlert, ActionAlertView},
		{"role:admin", ObjectAlert, ActionAlertAcknowledge},
		{"role:admin", ObjectUser, ActionUserCreate},
	}

	for _, policy := range policies {
		if len(policy) < 3 {
			continue
		}
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
