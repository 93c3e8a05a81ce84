package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"syscall"

	"github.com/enrichman/httpgrace"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/bassista/go_discover/internal/api/middleware"
	route "github.com/bassista/go_discover/internal/api/route"
	appctx "github.com/bassista/go_discover/internal/app"
	"github.com/bassista/go_discover/internal/config"
	"github.com/bassista/go_discover/internal/logger"
)

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard API with periodic feed refresh",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.cfg
			logger.WithComponent("main").Infof("Dashboard will run on port: %d", cfg.Server.Port)

			app, err := buildApp(cfg, newFeedClient(cfg))
			if err != nil {
				logger.WithComponent("main").Error(err)
				return err
			}

			persisted := app.StartBackground()
			defer func() {
				app.Shutdown()
				<-persisted
			}()

			gin.SetMode(cfg.Misc.GinMode)
			gin.DefaultWriter = logger.Logger.Writer()
			gin.DefaultErrorWriter = logger.Logger.Writer()

			r := newEngine(app, middleware.NewHoneybadger(os.Getenv("HONEYBADGER_API_KEY"), os.Getenv("GO_ENV")))
			srv := createGraceHttpServer(app.BaseCtx, "dashboard", cfg.Server, r)

			if err := srv.ListenAndServe(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.WithComponent("main").Error(err)
				return err
			}
			return nil
		},
	}
}

func newEngine(app *appctx.App, notifier middleware.Notifier) *gin.Engine {
	r := gin.New()
	r.Use(middleware.CORSMiddleware(app.Config.Server.CORSAllowedOrigins))
	r.Use(gin.Recovery())
	r.Use(middleware.HoneybadgerMiddleware(notifier, logger.WithComponent("honeybadger")))
	route.SetupRoutes(r, app)
	return r
}

func createGraceHttpServer(ctx context.Context, name string, serverConfig config.ServerConfig, r *gin.Engine) *httpgrace.Server {
	slogLogger := slog.New(slog.NewTextHandler(logger.Logger.Writer(), nil))

	srv := httpgrace.NewServer(r,
		httpgrace.WithTimeout(serverConfig.ShutDownTimeout),
		httpgrace.WithSignals(syscall.SIGTERM, syscall.SIGINT),
		httpgrace.WithLogger(slogLogger),
		httpgrace.WithBeforeShutdown(func() {
			logger.WithComponent("http").Infof("Shutting down %s server....", name)
		}),
		httpgrace.WithServerOptions(
			httpgrace.WithReadTimeout(serverConfig.ReadTimeout),
			httpgrace.WithWriteTimeout(serverConfig.WriteTimeout),
			httpgrace.WithIdleTimeout(serverConfig.IdleTimeout),
			func(srv *http.Server) {
				srv.BaseContext = func(_ net.Listener) context.Context {
					return ctx
				}
			},
			func(srv *http.Server) {
				srv.ErrorLog = log.New(logger.Logger.Writer(), fmt.Sprintf("[%s] ", name), log.LstdFlags)
			},
		),
	)
	return srv
}
