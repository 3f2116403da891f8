package message

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/gatekeeper/internal/config"
	"github.com/nao1215/gatekeeper/pkg/apperr"
	"github.com/nao1215/gatekeeper/pkg/httpserver"
	"github.com/nao1215/gatekeeper/pkg/middleware"
)

// Server はメッセージサービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// httpConfig はHTTPサーバーの設定。
	httpConfig httpserver.Config
	// logger はロガー。
	logger *slog.Logger
}

// NewServer は新しいメッセージサーバーを生成する。
func NewServer(cfg *config.Config, logger *slog.Logger) *Server {
	router := gin.New()
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))

	s := &Server{
		router: router,
		httpConfig: httpserver.Config{
			Addr:            cfg.MessageAddr,
			ReadTimeout:     cfg.ReadTimeout,
			WriteTimeout:    cfg.WriteTimeout,
			ShutdownTimeout: cfg.ShutdownTimeout,
		},
		logger: logger,
	}
	s.setupRoutes()
	return s
}

// Handler はHTTPハンドラーを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run はctxがキャンセルされるまでHTTPサーバーを起動する。
func (s *Server) Run(ctx context.Context) error {
	return httpserver.Serve(ctx, s.httpConfig, s.router, s.logger)
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleHealth())
	s.router.GET("/health", s.handleHealth())
	s.router.POST("/get-message", s.handleGetMessage())
}

// Request はメッセージ取得リクエストのJSON構造。
// フィールドの欠落とfalseを区別するためポインタで受け取る。
type Request struct {
	IsValid *bool `json:"is_valid"`
	IsAdmin *bool `json:"is_admin"`
}

// Response はメッセージ取得のレスポンス。
type Response struct {
	Message  string `json:"message"`
	DateTime string `json:"date_time"`
}

func (s *Server) handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Message service is up and running!"})
	}
}

// handleGetMessage はフラグに対応するメッセージを返す。
func (s *Server) handleGetMessage() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req Request
		if err := c.ShouldBindJSON(&req); err != nil {
			apperr.Respond(c, s.logger, apperr.Wrap(apperr.KindValidation, "リクエストボディが不正です", err))
			return
		}
		if req.IsValid == nil || req.IsAdmin == nil {
			apperr.Respond(c, s.logger, apperr.Validation("is_valid, is_adminは必須です"))
			return
		}

		c.JSON(http.StatusOK, Response{
			Message:  Render(*req.IsValid, *req.IsAdmin),
			DateTime: time.Now().Format(apperr.DateTimeLayout),
		})
	}
}
