package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"

	"github.com/smallbiznis/debtbook/internal/config"
	ledgerdomain "github.com/smallbiznis/debtbook/internal/ledger/domain"
	"github.com/smallbiznis/debtbook/internal/observability"
	obsmiddleware "github.com/smallbiznis/debtbook/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/debtbook/internal/observability/metrics"
	obstracing "github.com/smallbiznis/debtbook/internal/observability/tracing"
	partnerdomain "github.com/smallbiznis/debtbook/internal/partner/domain"
	reconciledomain "github.com/smallbiznis/debtbook/internal/reconcile/domain"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
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

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
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
	engine       *gin.Engine
	cfg          config.Config
	genID        *snowflake.Node
	partnerSvc   partnerdomain.Service
	ledgerSvc    ledgerdomain.Service
	reconcileSvc reconciledomain.Service
	obsMetrics   *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	GenID        *snowflake.Node
	PartnerSvc   partnerdomain.Service
	LedgerSvc    ledgerdomain.Service
	ReconcileSvc reconciledomain.Service
	ObsMetrics   *obsmetrics.Metrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		genID:        p.GenID,
		partnerSvc:   p.PartnerSvc,
		ledgerSvc:    p.LedgerSvc,
		reconcileSvc: p.ReconcileSvc,
		obsMetrics:   p.ObsMetrics,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	api.POST("/partners", s.CreatePartner)
	api.GET("/partners", s.ListPartners)
	api.GET("/partners/:id", s.GetPartnerByID)
	api.GET("/partners/:id/statement", s.GetStatement)
	api.GET("/partners/:id/debt-cycles", s.GetDebtCycles)
	api.POST("/partners/:id/recalculate", s.RecalculateDebt)
	api.POST("/partners/:id/fix-opening-balance", s.FixOpeningBalance)
}
