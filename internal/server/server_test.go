package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	alertdomain "github.com/homewatt/homewatt/internal/alert/domain"
	alertrepo "github.com/homewatt/homewatt/internal/alert/repository"
	alertservice "github.com/homewatt/homewatt/internal/alert/service"
	authdomain "github.com/homewatt/homewatt/internal/auth/domain"
	authrepo "github.com/homewatt/homewatt/internal/auth/repository"
	authservice "github.com/homewatt/homewatt/internal/auth/service"
	"github.com/homewatt/homewatt/internal/auth/session"
	"github.com/homewatt/homewatt/internal/clock"
	"github.com/homewatt/homewatt/internal/config"
	"github.com/homewatt/homewatt/internal/evaluation"
	goaldomain "github.com/homewatt/homewatt/internal/goal/domain"
	goalrepo "github.com/homewatt/homewatt/internal/goal/repository"
	goalservice "github.com/homewatt/homewatt/internal/goal/service"
	householddomain "github.com/homewatt/homewatt/internal/household/domain"
	householdrepo "github.com/homewatt/homewatt/internal/household/repository"
	householdservice "github.com/homewatt/homewatt/internal/household/service"
	meterdomain "github.com/homewatt/homewatt/internal/meter/domain"
	meterrepo "github.com/homewatt/homewatt/internal/meter/repository"
	meterservice "github.com/homewatt/homewatt/internal/meter/service"
	"github.com/homewatt/homewatt/internal/observability"
	"github.com/homewatt/homewatt/internal/providers/email"
	readingdomain "github.com/homewatt/homewatt/internal/reading/domain"
	readingrepo "github.com/homewatt/homewatt/internal/reading/repository"
	readingservice "github.com/homewatt/homewatt/internal/reading/service"
	"github.com/homewatt/homewatt/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type allowAllAuthz struct{}

func (allowAllAuthz) Authorize(ctx context.Context, actor, role, object, action string) error {
	_ = ctx
	_ = actor
	_ = role
	_ = object
	_ = action
	return nil
}

type testServer struct {
	srv  *Server
	db   *gorm.DB
	node *snowflake.Node
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := db.NewTest()
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := gdb.AutoMigrate(
		&authdomain.User{},
		&authdomain.Session{},
		&householddomain.Household{},
		&householddomain.Member{},
		&meterdomain.Meter{},
		&readingdomain.Reading{},
		&goaldomain.Goal{},
		&alertdomain.Alert{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	log := zap.NewNop()
	cfg := config.Config{HTTPAddr: ":0"}

	userRepo, sessionRepo := authrepo.New(gdb)
	authsvc := authservice.New(log, userRepo, sessionRepo, node, clock.NewSystem())

	householdSvc := householdservice.New(householdservice.Params{
		DB:    gdb,
		Log:   log,
		GenID: node,
		Repo:  householdrepo.Provide(),
	})
	meters := meterrepo.Provide()
	meterSvc := meterservice.New(meterservice.Params{
		DB:         gdb,
		Log:        log,
		GenID:      node,
		Repo:       meters,
		Households: householdSvc,
	})
	goalSvc := goalservice.New(goalservice.Params{
		DB:         gdb,
		Log:        log,
		GenID:      node,
		Repo:       goalrepo.Provide(),
		Meters:     meters,
		Households: householdSvc,
	})
	alerts := alertrepo.Provide()
	alertSvc := alertservice.New(alertservice.Params{
		DB:         gdb,
		Log:        log,
		Repo:       alerts,
		Households: householdSvc,
		Email:      &email.NoOpProvider{},
	})
	evaluator := evaluation.New(evaluation.Params{
		DB:       gdb,
		Log:      log,
		GenID:    node,
		Meters:   meters,
		Goals:    goalrepo.Provide(),
		Readings: readingrepo.Provide(),
		Alerts:   alerts,
	})
	readingSvc := readingservice.New(readingservice.Params{
		DB:         gdb,
		Log:        log,
		GenID:      node,
		Repo:       readingrepo.Provide(),
		Meters:     meters,
		Households: householdSvc,
		Evaluator:  evaluator,
	})

	engine := NewEngine(observability.Config{}, nil)
	srv := NewServer(ServerParams{
		Gin:          engine,
		Cfg:          cfg,
		DB:           gdb,
		GenID:        node,
		Sessions:     session.NewManager(cfg),
		Authsvc:      authsvc,
		AuthzSvc:     allowAllAuthz{},
		HouseholdSvc: householdSvc,
		MeterSvc:     meterSvc,
		MeterRepo:    meters,
		ReadingSvc:   readingSvc,
		GoalSvc:      goalSvc,
		AlertSvc:     alertSvc,
	})

	return &testServer{srv: srv, db: gdb, node: node}
}

func (ts *testServer) createUser(t *testing.T, email, role string) *authdomain.User {
	t.Helper()
	user, err := ts.srv.authsvc.CreateUser(context.Background(), authdomain.CreateUserRequest{
		Email:    email,
		Password: "hunter2secret",
		Role:     role,
	})
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return user
}

func (ts *testServer) login(t *testing.T, email string) *http.Cookie {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": email, "password": "hunter2secret"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	ts.srv.Engine().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", email, w.Code, w.Body.String())
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == session.DefaultCookieName {
			return c
		}
	}
	t.Fatal("login response carried no session cookie")
	return nil
}

func (ts *testServer) do(t *testing.T, cookie *http.Cookie, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	ts.srv.Engine().ServeHTTP(w, req)
	return w
}

func (ts *testServer) seedHousehold(t *testing.T, memberIDs ...snowflake.ID) (*householddomain.Household, *meterdomain.Meter, *goaldomain.Goal) {
	t.Helper()
	now := time.Now().UTC()
	household := &householddomain.Household{
		ID:        ts.node.Generate(),
		Name:      "Test Home",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := ts.db.Create(household).Error; err != nil {
		t.Fatalf("create household: %v", err)
	}
	for _, userID := range memberIDs {
		member := &householddomain.Member{HouseholdID: household.ID, UserID: userID, JoinedAt: now}
		if err := ts.db.Create(member).Error; err != nil {
			t.Fatalf("add member: %v", err)
		}
	}
	meter := &meterdomain.Meter{
		ID:          ts.node.Generate(),
		HouseholdID: household.ID,
		Label:       "Main electricity",
		Type:        meterdomain.TypeElectricity,
		Unit:        meterdomain.UnitKilowattHour,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := ts.db.Create(meter).Error; err != nil {
		t.Fatalf("create meter: %v", err)
	}
	goal := &goaldomain.Goal{
		ID:          ts.node.Generate(),
		HouseholdID: household.ID,
		MeterType:   meterdomain.TypeElectricity,
		Period:      goaldomain.PeriodDaily,
		LimitValue:  10,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := ts.db.Create(goal).Error; err != nil {
		t.Fatalf("create goal: %v", err)
	}
	return household, meter, goal
}

func TestCreateReadingRequiresSession(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, nil, http.MethodPost, "/api/readings", map[string]any{})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestCreateReadingOpensAlert(t *testing.T) {
	ts := newTestServer(t)
	ts.createUser(t, "admin@example.com", authdomain.RoleAdmin)
	cookie := ts.login(t, "admin@example.com")
	household, meter, _ := ts.seedHousehold(t)

	w := ts.do(t, cookie, http.MethodPost, "/api/readings", map[string]any{
		"meter_id":    meter.ID.String(),
		"value":       12,
		"recorded_at": time.Now().UTC().Format(time.RFC3339),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create reading: status %d body %s", w.Code, w.Body.String())
	}

	list := ts.do(t, cookie, http.MethodGet, "/api/alerts?household_id="+household.ID.String(), nil)
	if list.Code != http.StatusOK {
		t.Fatalf("list alerts: status %d body %s", list.Code, list.Body.String())
	}
	var resp struct {
		Alerts []alertdomain.Response `json:"alerts"`
	}
	if err := json.Unmarshal(list.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode alerts: %v", err)
	}
	if len(resp.Alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(resp.Alerts))
	}
	if resp.Alerts[0].Status != alertdomain.StatusOpen {
		t.Fatalf("alert status = %q, want open", resp.Alerts[0].Status)
	}
}

func TestCreateReadingRejectsNonMember(t *testing.T) {
	ts := newTestServer(t)
	ts.createUser(t, "outsider@example.com", authdomain.RoleResident)
	cookie := ts.login(t, "outsider@example.com")
	_, meter, _ := ts.seedHousehold(t)

	w := ts.do(t, cookie, http.MethodPost, "/api/readings", map[string]any{
		"meter_id":    meter.ID.String(),
		"value":       1,
		"recorded_at": time.Now().UTC().Format(time.RFC3339),
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, http.StatusForbidden, w.Body.String())
	}
}

func TestResidentAlertListingShowsOnlyAcknowledged(t *testing.T) {
	ts := newTestServer(t)
	ts.createUser(t, "admin@example.com", authdomain.RoleAdmin)
	resident := ts.createUser(t, "resident@example.com", authdomain.RoleResident)
	adminCookie := ts.login(t, "admin@example.com")
	residentCookie := ts.login(t, "resident@example.com")
	household, meter, _ := ts.seedHousehold(t, resident.ID)

	w := ts.do(t, adminCookie, http.MethodPost, "/api/readings", map[string]any{
		"meter_id":    meter.ID.String(),
		"value":       12,
		"recorded_at": time.Now().UTC().Format(time.RFC3339),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create reading: status %d body %s", w.Code, w.Body.String())
	}

	listPath := "/api/alerts?household_id=" + household.ID.String()

	var resp struct {
		Alerts []alertdomain.Response `json:"alerts"`
	}
	before := ts.do(t, residentCookie, http.MethodGet, listPath, nil)
	if before.Code != http.StatusOK {
		t.Fatalf("resident list: status %d body %s", before.Code, before.Body.String())
	}
	if err := json.Unmarshal(before.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode alerts: %v", err)
	}
	if len(resp.Alerts) != 0 {
		t.Fatalf("resident must not see open alerts, got %d", len(resp.Alerts))
	}

	adminList := ts.do(t, adminCookie, http.MethodGet, listPath, nil)
	resp.Alerts = nil
	if err := json.Unmarshal(adminList.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode admin alerts: %v", err)
	}
	if len(resp.Alerts) != 1 {
		t.Fatalf("admin should see the open alert, got %d", len(resp.Alerts))
	}

	ack := ts.do(t, adminCookie, http.MethodPost, fmt.Sprintf("/api/alerts/%s/ack", resp.Alerts[0].ID), nil)
	if ack.Code != http.StatusOK {
		t.Fatalf("acknowledge: status %d body %s", ack.Code, ack.Body.String())
	}

	after := ts.do(t, residentCookie, http.MethodGet, listPath, nil)
	resp.Alerts = nil
	if err := json.Unmarshal(after.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode alerts: %v", err)
	}
	if len(resp.Alerts) != 1 {
		t.Fatalf("resident should see the acknowledged alert, got %d", len(resp.Alerts))
	}
	if resp.Alerts[0].Status != alertdomain.StatusAcknowledged {
		t.Fatalf("alert status = %q, want acknowledged", resp.Alerts[0].Status)
	}
}
