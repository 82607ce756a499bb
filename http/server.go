// Package http 提供HTTP服务器功能
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"cardiai/config"
	"cardiai/predictor"
)

// Server HTTP服务器
type Server struct {
	server *http.Server
	logger *zap.Logger
}

// NewHandler 构建带中间件链的处理器
func NewHandler(cfg config.HTTPConfig, service *predictor.Service, logger *zap.Logger) (http.Handler, error) {
	mux := http.NewServeMux()

	// 注册所有处理器
	RegisterHandlers(mux, NewHandlers(service, logger))

	rateLimit, err := RateLimitMiddleware(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, cfg.RateLimit.MaxClients)
	if err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	// 创建中间件链
	chain := Chain(
		RecoveryMiddleware(logger),              // 1. 恢复中间件（最先执行，捕获panic）
		LoggerMiddleware(logger),                // 2. 日志中间件
		SecurityHeadersMiddleware,               // 3. 安全头中间件
		CORSMiddleware(cfg.AllowedOrigins),      // 4. CORS中间件
		rateLimit,                               // 5. 限流中间件
		RequestSizeMiddleware(cfg.MaxBodyBytes), // 6. 请求大小限制
	)

	// 包装处理器
	return chain(mux), nil
}

// NewServer 创建HTTP服务器
func NewServer(cfg config.HTTPConfig, service *predictor.Service, logger *zap.Logger) (*Server, error) {
	handler, err := NewHandler(cfg, service, logger)
	if err != nil {
		return nil, err
	}

	return &Server{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       cfg.Timeout,
			WriteTimeout:      cfg.Timeout,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}, nil
}

// Start 启动服务器
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop 停止服务器
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	return nil
}

// Addr 返回服务器地址
func (s *Server) Addr() string {
	return s.server.Addr
}
