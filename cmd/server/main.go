package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/enrichman/httpgrace"

	route "github.com/LeMaitre4523/quelquechose-v6/internal/api/route"
	appctx "github.com/LeMaitre4523/quelquechose-v6/internal/app"
	"github.com/LeMaitre4523/quelquechose-v6/internal/cache"
	"github.com/LeMaitre4523/quelquechose-v6/internal/config"
	"github.com/LeMaitre4523/quelquechose-v6/internal/logger"
	"github.com/LeMaitre4523/quelquechose-v6/internal/provider"
	"github.com/LeMaitre4523/quelquechose-v6/internal/repository"
	"github.com/LeMaitre4523/quelquechose-v6/internal/service"
)

func main() {
	// A missing .env file is fine; env vars may come from the shell.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithComponent("main").Fatalf("configuration error: %v", err)
	}

	// Set log level from configuration
	logLevel, err := logrus.ParseLevel(cfg.Misc.LogLevel)
	if err != nil {
		logger.WithComponent("main").Warnf("invalid log level '%s', using 'info': %v", cfg.Misc.LogLevel, err)
		logLevel = logrus.InfoLevel
	}
	logger.Logger.SetLevel(logLevel)
	logger.WithComponent("main").Infof("papillond will run on port: %d", cfg.Server.Port)

	repo, err := repository.NewFileStore(cfg.Cache.FilePath)
	if err != nil {
		logger.WithComponent("main").Fatalf("cannot init repository: %v", err)
	}

	doc, err := repo.Load(context.Background())
	if err != nil {
		logger.WithComponent("main").Fatalf("cannot load cache file: %v", err)
	}

	cacheStore := cache.NewStore(*doc)

	client, err := provider.NewClientFromConfig(cfg.Provider)
	if err != nil {
		logger.WithComponent("main").Fatalf("cannot init provider: %v", err)
	}
	if gw, ok := client.(*provider.GatewayClient); ok {
		connectCtx, cancel := context.WithTimeout(context.Background(), cfg.Provider.Timeout)
		if err := gw.Connect(connectCtx); err != nil {
			// A dead gateway at boot is not fatal: the cache still serves.
			logger.WithComponent("main").Warnf("gateway connect failed, serving from cache: %v", err)
		}
		cancel()
	}

	loc := time.Local
	if tz := cfg.Cache.RefreshTZ; tz != "" && tz != "Local" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			logger.WithComponent("main").Fatalf("invalid refresh timezone: %v", err)
		}
		loc = l
	}

	manager := cache.NewManager(cacheStore, client, loc)
	holder := cache.NewHomeworkHolder()
	svc := service.New(client, manager, holder)

	app, err := appctx.New(cfg, repo, cacheStore, client, svc)
	if err != nil {
		logger.WithComponent("main").Fatalf("cannot init app: %v", err)
	}
	defer app.Shutdown()

	if err := app.StartWatchers(); err != nil {
		logger.WithComponent("main").Fatalf("cannot start watchers: %v", err)
	}

	gin.SetMode(cfg.Misc.GinMode)
	gin.DefaultWriter = logger.Logger.Writer()
	gin.DefaultErrorWriter = logger.Logger.Writer()

	r := route.SetupRoutes(app, logger.Logger)
	srv := createGraceHttpServer(app.BaseCtx, "papillond", cfg.Server, r)

	if err := srv.ListenAndServe(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithComponent("main").Fatal(err)
	}
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
