package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/princinho/hrmbackend/config"
	"github.com/princinho/hrmbackend/controllers"
	"github.com/princinho/hrmbackend/logging"
	"github.com/princinho/hrmbackend/metrics"
	"github.com/princinho/hrmbackend/middleware"
	"github.com/princinho/hrmbackend/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var serveSkipSeed bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveSkipSeed, "skip-seed", false, "Do not create the admin account on startup")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	if err := a.ensureIndexes(ctx); err != nil {
		return err
	}
	if !serveSkipSeed && a.cfg.Admin.Username != "" {
		if _, err := seedAdmin(ctx, a); err != nil {
			return err
		}
	}

	ctrl := &controllers.Controller{
		Users:         a.users,
		Teams:         a.teams,
		Contracts:     a.contracts,
		Attendance:    a.attendance,
		Auth:          a.auth,
		Log:           a.log,
		SecureCookies: a.cfg.Env == "prod",
	}
	ctrl.LoginLimiter = loginLimiter(a.cfg.Auth)
	if a.cfg.R2.Enabled() {
		r2, err := storage.NewR2(ctx, a.cfg.R2)
		if err != nil {
			return err
		}
		ctrl.Avatars = storage.NewAvatars(r2, int64(a.cfg.R2.MaxUploadMB)<<20)
	} else {
		a.log.Warn("R2 not configured, avatar uploads disabled")
	}

	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           newRouter(a, ctrl),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newRouter(a *app, ctrl *controllers.Controller) *gin.Engine {
	if a.cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	allowedOrigins := map[string]bool{}
	for _, origin := range a.cfg.AllowedOrigins {
		allowedOrigins[origin] = true
	}
	a.log.Info("allowed origins", zap.Strings("origins", a.cfg.AllowedOrigins))
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return allowedOrigins[origin]
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(logging.GinLogger(a.log))
	r.Use(metrics.GinMiddleware())
	r.Use(gin.Recovery())

	ctrl.Register(r)
	return r
}

// loginLimiter returns nil when throttling is switched off.
func loginLimiter(cfg config.AuthConfig) *middleware.RateLimiter {
	if cfg.LoginPerMinute <= 0 {
		return nil
	}
	return middleware.NewRateLimiter(cfg.LoginPerMinute, cfg.LoginPerMinute)
}
