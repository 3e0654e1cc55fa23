package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"cerebrocare/config"
)

// Server HTTP服务器
type Server struct {
	server *http.Server
	config ServerConfig
	logger *zap.Logger
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port           int
	Timeout        time.Duration
	MaxBodyBytes   int64
	AllowedOrigins []string
}

// DefaultServerConfig 默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:           8080,
		Timeout:        30 * time.Second,
		MaxBodyBytes:   1 << 20,
		AllowedOrigins: []string{"*"},
	}
}

// ServerConfigFrom 从应用配置生成服务器配置
func ServerConfigFrom(cfg config.HttpConfig) ServerConfig {
	sc := DefaultServerConfig()
	if cfg.Port > 0 {
		sc.Port = cfg.Port
	}
	if cfg.Timeout > 0 {
		sc.Timeout = cfg.Timeout
	}
	if cfg.MaxBodyBytes > 0 {
		sc.MaxBodyBytes = cfg.MaxBodyBytes
	}
	if len(cfg.AllowedOrigins) > 0 {
		sc.AllowedOrigins = cfg.AllowedOrigins
	}
	return sc
}

// NewServer 创建HTTP服务器
func NewServer(config ServerConfig, app *App) *Server {
	mux := http.NewServeMux()

	// 注册所有处理器
	app.RegisterPages(mux)
	app.RegisterAPI(mux)

	// 创建中间件链
	chain := Chain(
		RecoveryMiddleware(app.Logger),             // 1. 恢复中间件（最先执行，捕获panic）
		LoggerMiddleware(app.Logger),               // 2. 日志中间件
		SecurityHeadersMiddleware,                  // 3. 安全头中间件
		CORSMiddleware(config.AllowedOrigins),      // 4. CORS中间件
		RequestSizeMiddleware(config.MaxBodyBytes), // 5. 请求大小限制
		TimeoutMiddleware(config.Timeout),          // 6. 超时中间件
	)

	return &Server{
		server: &http.Server{
			Addr:        fmt.Sprintf(":%d", config.Port),
			Handler:     chain(mux),
			ReadTimeout: config.Timeout,
			// WebSocket连接是长连接，写超时由TimeoutMiddleware控制
			IdleTimeout: 120 * time.Second,
		},
		config: config,
		logger: app.Logger,
	}
}

// Start 启动服务器
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server",
		zap.String("addr", s.server.Addr),
		zap.String("ws", fmt.Sprintf("ws://localhost%s/api/ws/assessments", s.server.Addr)))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop 停止服务器
func (s *Server) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
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

// Handler 返回包装后的处理器，测试使用
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}
