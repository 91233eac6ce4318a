package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/file-storage-backend/internal/conf"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/logger"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/metrics"
	"go.uber.org/zap"
)

// RouteRegistrar 各业务 service 在 /api/v1 下注册自己的路由
type RouteRegistrar interface {
	RegisterRoutes(r *gin.RouterGroup)
}

// HealthCheck 依赖探活，返回 nil 表示正常
type HealthCheck func(ctx context.Context) error

type HTTPServer struct {
	server *http.Server
	logger *logger.Logger
}

func NewHTTPServer(
	config *conf.Config,
	log *logger.Logger,
	m *metrics.Metrics,
	checks map[string]HealthCheck,
	services ...RouteRegistrar,
) *HTTPServer {
	gin.SetMode(config.Server.Mode)

	router := gin.New()
	router.MaxMultipartMemory = config.Server.MaxMultipartMemory
	router.Use(logger.GinRecovery(log))
	router.Use(logger.GinLogger(log, "/health", config.Metrics.Path))
	router.Use(cors.New(corsConfig(&config.Server.CORS)))
	if config.Metrics.Enabled {
		router.Use(m.GinMiddleware())
		router.GET(config.Metrics.Path, gin.WrapH(m.Handler()))
	}

	router.GET("/health", healthHandler(checks))

	api := router.Group("/api/v1")
	for _, s := range services {
		s.RegisterRoutes(api)
	}

	return &HTTPServer{
		server: &http.Server{
			Addr:         config.Server.Addr(),
			Handler:      router,
			ReadTimeout:  config.Server.ReadTimeout,
			WriteTimeout: config.Server.WriteTimeout,
		},
		logger: log,
	}
}

// Handler 返回路由，测试直接使用
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

func (s *HTTPServer) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")
	return s.server.Shutdown(ctx)
}

func corsConfig(c *conf.CORSConfig) cors.Config {
	cfg := cors.Config{
		AllowMethods:  c.AllowMethods,
		AllowHeaders:  c.AllowHeaders,
		ExposeHeaders: []string{logger.RequestIDHeader, "Content-Range", "Content-Disposition"},
		MaxAge:        c.MaxAge,
	}
	if len(c.AllowOrigins) == 0 || (len(c.AllowOrigins) == 1 && c.AllowOrigins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = c.AllowOrigins
	}
	return cfg
}

func healthHandler(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		deps := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				deps[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			deps[name] = "ok"
		}

		state := "ok"
		if status != http.StatusOK {
			state = "degraded"
		}
		c.JSON(status, gin.H{
			"status":       state,
			"time":         time.Now().Format(time.RFC3339),
			"dependencies": deps,
		})
	}
}
