package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/homewatt/homewatt/internal/alert"
	alertdomain "github.com/homewatt/homewatt/internal/alert/domain"
	"github.com/homewatt/homewatt/internal/auth"
	authdomain "github.com/homewatt/homewatt/internal/auth/domain"
	"github.com/homewatt/homewatt/internal/auth/session"
	"github.com/homewatt/homewatt/internal/authorization"
	"github.com/homewatt/homewatt/internal/config"
	"github.com/homewatt/homewatt/internal/evaluation"
	"github.com/homewatt/homewatt/internal/goal"
	goaldomain "github.com/homewatt/homewatt/internal/goal/domain"
	"github.com/homewatt/homewatt/internal/household"
	householddomain "github.com/homewatt/homewatt/internal/household/domain"
	"github.com/homewatt/homewatt/internal/meter"
	meterdomain "github.com/homewatt/homewatt/internal/meter/domain"
	"github.com/homewatt/homewatt/internal/observability"
	obsmiddleware "github.com/homewatt/homewatt/internal/observability/logger"
	obsmetrics "github.com/homewatt/homewatt/internal/observability/metrics"
	obstracing "github.com/homewatt/homewatt/internal/observability/tracing"
	"github.com/homewatt/homewatt/internal/providers/email"
	"github.com/homewatt/homewatt/internal/ratelimit"
	"github.com/homewatt/homewatt/internal/reading"
	readingdomain "github.com/homewatt/homewatt/internal/reading/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	auth.Module,
	session.Module,
	email.Module,
	household.Module,
	meter.Module,
	reading.Module,
	goal.Module,
	alert.Module,
	evaluation.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine         *gin.Engine
	cfg            config.Config
	db             *gorm.DB
	genID          *snowflake.Node
	sessions       *session.Manager
	authsvc        authdomain.Service
	authzSvc       authorization.Service
	householdSvc   householddomain.Service
	meterSvc       meterdomain.Service
	meterRepo      meterdomain.Repository
	readingSvc     readingdomain.Service
	goalSvc        goaldomain.Service
	alertSvc       alertdomain.Service
	obsMetrics     *obsmetrics.Metrics
	readingLimiter *ratelimit.ReadingIngestLimiter
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	DB           *gorm.DB
	GenID        *snowflake.Node
	Sessions     *session.Manager
	Authsvc      authdomain.Service
	AuthzSvc     authorization.Service
	HouseholdSvc householddomain.Service
	MeterSvc     meterdomain.Service
	MeterRepo    meterdomain.Repository
	ReadingSvc   readingdomain.Service
	GoalSvc      goaldomain.Service
	AlertSvc     alertdomain.Service

	ObsMetrics     *obsmetrics.Metrics             `optional:"true"`
	ReadingLimiter *ratelimit.ReadingIngestLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		db:             p.DB,
		genID:          p.GenID,
		sessions:       p.Sessions,
		authsvc:        p.Authsvc,
		authzSvc:       p.AuthzSvc,
		householdSvc:   p.HouseholdSvc,
		meterSvc:       p.MeterSvc,
		meterRepo:      p.MeterRepo,
		readingSvc:     p.ReadingSvc,
		goalSvc:        p.GoalSvc,
		alertSvc:       p.AlertSvc,
		obsMetrics:     p.ObsMetrics,
		readingLimiter: p.ReadingLimiter,
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	authGroup := s.engine.Group("/auth")

	authGroup.POST("/login", s.Login)
	authGroup.POST("/logout", s.Logout)
	authGroup.GET("/me", s.Me)
	authGroup.POST("/change-password", s.ChangePassword)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(s.AuthRequired())

	// -------- Households --------
	api.GET("/households", s.ListHouseholds)
	api.POST("/households", s.authorizeAction(authorization.ObjectHousehold, authorization.ActionHouseholdCreate), s.CreateHousehold)
	api.GET("/households/:id", s.GetHouseholdByID)
	api.PATCH("/households/:id", s.authorizeAction(authorization.ObjectHousehold, authorization.ActionHouseholdUpdate), s.UpdateHousehold)
	api.DELETE("/households/:id", s.authorizeAction(authorization.ObjectHousehold, authorization.ActionHouseholdDelete), s.DeleteHousehold)
	api.GET("/households/:id/members", s.ListHouseholdMembers)
	api.POST("/households/:id/members", s.authorizeAction(authorization.ObjectMember, authorization.ActionMemberManage), s.AddHouseholdMember)
	api.DELETE("/households/:id/members/:userId", s.authorizeAction(authorization.ObjectMember, authorization.ActionMemberManage), s.RemoveHouseholdMember)

	// -------- Meters --------
	api.GET("/meters", s.ListMeters)
	api.POST("/meters", s.authorizeAction(authorization.ObjectMeter, authorization.ActionMeterCreate), s.CreateMeter)
	api.GET("/meters/:id", s.GetMeterByID)
	api.PATCH("/meters/:id", s.authorizeAction(authorization.ObjectMeter, authorization.ActionMeterUpdate), s.UpdateMeter)
	api.DELETE("/meters/:id", s.authorizeAction(authorization.ObjectMeter, authorization.ActionMeterDelete), s.DeleteMeter)

	// -------- Readings --------
	api.GET("/meters/:id/readings", s.ListMeterReadings)
	api.POST("/readings", s.authorizeAction(authorization.ObjectReading, authorization.ActionReadingIngest), s.ReadingIngestRateLimit(), s.CreateReading)
	api.PATCH("/readings/:id", s.authorizeAction(authorization.ObjectReading, authorization.ActionReadingUpdate), s.UpdateReading)
	api.DELETE("/readings/:id", s.authorizeAction(authorization.ObjectReading, authorization.ActionReadingDelete), s.DeleteReading)

	// -------- Goals --------
	api.GET("/goals", s.ListGoals)
	api.POST("/goals", s.authorizeAction(authorization.ObjectGoal, authorization.ActionGoalCreate), s.CreateGoal)
	api.GET("/goals/:id", s.GetGoalByID)
	api.PATCH("/goals/:id", s.authorizeAction(authorization.ObjectGoal, authorization.ActionGoalUpdate), s.UpdateGoal)
	api.DELETE("/goals/:id", s.authorizeAction(authorization.ObjectGoal, authorization.ActionGoalDelete), s.DeleteGoal)

	// -------- Alerts --------
	api.GET("/alerts", s.ListAlerts)
	api.GET("/alerts/:id", s.GetAlertByID)
	api.POST("/alerts/:id/ack", s.authorizeAction(authorization.ObjectAlert, authorization.ActionAlertAcknowledge), s.AcknowledgeAlert)

	// -------- Users (admin) --------
	api.POST("/users", s.authorizeAction(authorization.ObjectUser, authorization.ActionUserCreate), s.CreateUser)
}
