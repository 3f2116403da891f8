package gateway

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

// Server はGatewayサービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// httpConfig はHTTPサーバーの設定。
	httpConfig httpserver.Config
	// service はGatewayの処理。
	service *Service
	// logger はロガー。
	logger *slog.Logger
}

// NewServer は新しいGatewayサーバーを生成する。
func NewServer(cfg *config.Config, service *Service, logger *slog.Logger) *Server {
	router := gin.New()
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS(cfg.CORSOrigins))

	s := &Server{
		router: router,
		httpConfig: httpserver.Config{
			Addr:            cfg.GatewayAddr,
			ReadTimeout:     cfg.ReadTimeout,
			WriteTimeout:    cfg.WriteTimeout,
			ShutdownTimeout: cfg.ShutdownTimeout,
		},
		service: service,
		logger:  logger,
	}
	s.setupRoutes(cfg)
	return s
}

// NewServerFromConfig は設定から上流クライアントを組み立ててGatewayサーバーを生成する。
func NewServerFromConfig(cfg *config.Config, logger *slog.Logger) *Server {
	service := NewService(
		NewAuthClient(cfg.AuthURL, cfg.UpstreamTimeout),
		NewMessageClient(cfg.MessageURL, cfg.UpstreamTimeout),
		logger,
	)
	return NewServer(cfg, service, logger)
}

// Handler はHTTPハンドラーを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run はctxがキャンセルされるまでHTTPサーバーを起動する。
func (s *Server) Run(ctx context.Context) error {
	return httpserver.Serve(ctx, s.httpConfig, s.router, s.logger)
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes(cfg *config.Config) {
	// ヘルスチェック
	s.router.GET("/", s.handleHealth())
	s.router.GET("/health", s.handleHealth())

	user := s.router.Group("/user")
	{
		user.POST("/signup", s.handleSignup())
		user.POST("/login", middleware.RateLimitByIP(cfg.LoginRateLimit, cfg.LoginRateWindow), s.handleLogin())
		user.GET("/message", s.handleMessage())
	}
}

// Envelope はGatewayの成功レスポンス。
type Envelope struct {
	StatusCode int    `json:"status_code"`
	Detail     string `json:"detail"`
	Token      string `json:"token,omitempty"`
	DateTime   string `json:"date_time"`
}

// signupRequest はサインアップリクエストのJSON構造。
type signupRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	IsAdmin  bool   `json:"is_admin"`
}

// loginRequest はログインリクエストのJSON構造。
type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Gateway service is up and running!"})
	}
}

// handleSignup はサインアップを認証サービスへ転送する。
func (s *Server) handleSignup() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req signupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperr.Respond(c, s.logger, apperr.Wrap(apperr.KindValidation, "username, email, passwordは必須です", err))
			return
		}

		detail, err := s.service.Signup(c.Request.Context(), SignupInput(req))
		if err != nil {
			apperr.Respond(c, s.logger, err)
			return
		}
		respond(c, http.StatusCreated, Envelope{Detail: detail})
	}
}

// handleLogin はログインを認証サービスへ転送する。
func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperr.Respond(c, s.logger, apperr.Wrap(apperr.KindValidation, "username, passwordは必須です", err))
			return
		}

		tok, err := s.service.Login(c.Request.Context(), LoginInput(req))
		if err != nil {
			apperr.Respond(c, s.logger, err)
			return
		}
		respond(c, http.StatusOK, Envelope{Detail: "Login successful", Token: tok})
	}
}

// handleMessage は個人向けメッセージを返す。
func (s *Server) handleMessage() gin.HandlerFunc {
	return func(c *gin.Context) {
		msg, err := s.service.FetchPersonalMessage(c.Request.Context(), c.GetHeader(middleware.HeaderAuthorization))
		if err != nil {
			apperr.Respond(c, s.logger, err)
			return
		}
		respond(c, http.StatusOK, Envelope{Detail: msg})
	}
}

func respond(c *gin.Context, status int, env Envelope) {
	env.StatusCode = status
	env.DateTime = time.Now().Format(apperr.DateTimeLayout)
	c.JSON(status, env)
}
