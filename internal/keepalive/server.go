// Package keepalive отвечает 200 на любой HTTP запрос для внешнего мониторинга.
package keepalive

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Body возвращается на любой запрос
const Body = "Bot is alive!\n"

// Server представляет HTTP сервер проверки доступности
type Server struct {
	httpServer *http.Server
	log        *logrus.Logger
}

// NewRouter создает gin engine без маршрутов: NoRoute отвечает Body на любой
// метод и путь
func NewRouter(log *logrus.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(log))
	r.NoRoute(alive)
	return r
}

func alive(c *gin.Context) {
	c.String(http.StatusOK, Body)
}

// New создает сервер на порту port
func New(port int, log *logrus.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           NewRouter(log),
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// Start запускает сервер и блокируется до его остановки
func (s *Server) Start() error {
	s.log.WithField("addr", s.httpServer.Addr).Info("Keep-alive сервер запущен")
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("ошибка keep-alive сервера: %w", err)
	}
	return nil
}

// Shutdown останавливает сервер, дожидаясь активных запросов
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// RequestLogger пишет каждый запрос в лог
func RequestLogger(l *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header("X-Request-Id", reqID)

		c.Next()

		l.WithFields(logrus.Fields{
			"request_id": reqID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"ip":         c.ClientIP(),
		}).Debug("request")
	}
}
