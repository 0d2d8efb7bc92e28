package main

import (
	"context"
	"errors"
	"fmt"
	"game-soul-technology/quickqueue/quickqueue-server/pkg/config"
	"game-soul-technology/quickqueue/quickqueue-server/pkg/infra"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	application *Application
	server      *http.Server

	loggerFactory *infra.LoggerFactory
	logger        *zap.SugaredLogger
}

func ProvideServer(application *Application, env *config.Env, loggerFactory *infra.LoggerFactory) *Server {
	logger := loggerFactory.Create("Server").Sugar()

	return &Server{
		application: application,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%v", env.ServerPort),
			Handler:           newEcho(application, logger),
			ReadHeaderTimeout: 10 * time.Second,
		},
		loggerFactory: loggerFactory,
		logger:        logger,
	}
}

func newEcho(application *Application, logger *zap.SugaredLogger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetLevel(log.OFF)

	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogLatency:   true,
		LogMethod:    true,
		LogURI:       true,
		LogRequestID: true,
		LogStatus:    true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Infof("%v %v id[%v] status[%v] latency[%vms]", v.Method, v.URI, v.RequestID, v.Status, v.Latency.Milliseconds())
			return nil
		},
	}))

	e.GET("/", application.HandleHome)
	e.POST("/join", application.HandleJoin)
	e.GET("/join/qr.png", application.HandleJoinQR)
	e.GET("/status", application.HandleStatus)
	e.GET("/status/:ticket", application.HandleTicketStatus)
	e.GET("/status/:ticket/qr.png", application.HandleTicketQR)
	e.GET("/ws", application.HandleWs)

	e.POST("/admin/login", application.HandleAdminLogin)
	e.POST("/admin/logout", application.HandleAdminLogout)

	admin := e.Group("/admin", application.RequireAdmin)
	admin.POST("/activate", application.HandleActivate)
	admin.POST("/deactivate", application.HandleDeactivate)
	admin.POST("/next", application.HandleServeNext)
	admin.POST("/add", application.HandleAddManual)
	admin.POST("/remove/:ticket", application.HandleRemove)
	admin.POST("/missing/:ticket", application.HandleMarkMissing)
	admin.POST("/recall/:ticket", application.HandleRecall)
	admin.GET("/overview", application.HandleOverview)

	admin.PUT("/debug", func(c echo.Context) error {
		infra.LoggerLevel.SetLevel(zapcore.DebugLevel)
		logger.Info("debug logging enabled")
		return c.NoContent(http.StatusOK)
	})

	admin.DELETE("/debug", func(c echo.Context) error {
		infra.LoggerLevel.SetLevel(zapcore.InfoLevel)
		logger.Info("debug logging disabled")
		return c.NoContent(http.StatusOK)
	})

	return e
}

// Run blocks until SIGINT/SIGTERM or until any worker fails.
func (s *Server) Run() error {
	defer s.loggerFactory.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	s.logger.Infof("server running application")
	g.Go(func() error {
		return s.application.Run(ctx)
	})

	g.Go(func() error {
		s.logger.Infof("server starts listening on addr[%v]", s.server.Addr)
		if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		s.logger.Infof("server shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		s.logger.Errorf("server stopped %v", err)
		return err
	}

	s.logger.Infof("server exited")
	return nil
}
