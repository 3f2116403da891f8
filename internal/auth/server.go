package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/gatekeeper/internal/config"
	"github.com/nao1215/gatekeeper/pkg/apperr"
	"github.com/nao1215/gatekeeper/pkg/httpserver"
	"github.com/nao1215/gatekeeper/pkg/middleware"
)

// loginFailureDetail はログイン失敗時にクライアントへ返す詳細。
// 未知のユーザーとパスワード不一致を区別しない。
const loginFailureDetail = "ユーザー名またはパスワードが正しくありません"

// Server は認証サービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// httpConfig はHTTPサーバーの設定。
	httpConfig httpserver.Config
	// service は認証のビジネスロジック。
	service *Service
	// logger はロガー。
	logger *slog.Logger
}

// NewServer は新しい認証サーバーを生成する。
func NewServer(cfg *config.Config, service *Service, logger *slog.Logger) *Server {
	router := gin.New()
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))

	s := &Server{
		router: router,
		httpConfig: httpserver.Config{
			Addr:            cfg.AuthAddr,
			ReadTimeout:     cfg.ReadTimeout,
			WriteTimeout:    cfg.WriteTimeout,
			ShutdownTimeout: cfg.ShutdownTimeout,
		},
		service: service,
		logger:  logger,
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

// setupRoutes はAPIルーティングを設定する。
// ログインのレート制限はクライアントIPが見えるGateway側でのみ行う。
func (s *Server) setupRoutes() {
	// ヘルスチェック
	s.router.GET("/", s.handleHealth())
	s.router.GET("/health", s.handleHealth())

	s.router.POST("/signup", s.handleSignup())
	s.router.POST("/login", s.handleLogin())
	s.router.POST("/validate-token", s.handleValidateToken())
}

// SignupRequest はサインアップリクエストのJSON構造。
type SignupRequest struct {
	// Username はユーザー名。
	Username string `json:"username" binding:"required"`
	// Email はメールアドレス。
	Email string `json:"email" binding:"required,email"`
	// Password は平文のパスワード。
	Password string `json:"password" binding:"required"`
	// IsAdmin は管理者として登録するかどうか。
	IsAdmin bool `json:"is_admin"`
}

// SignupResponse はサインアップ成功時のレスポンス。
type SignupResponse struct {
	Detail   string     `json:"detail"`
	User     PublicUser `json:"user"`
	DateTime string     `json:"date_time"`
}

// PublicUser はクライアントに返すユーザー情報。
type PublicUser struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}

// LoginRequest はログインリクエストのJSON構造。
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse はログイン成功時のレスポンス。
type LoginResponse struct {
	Detail   string `json:"detail"`
	Token    string `json:"token"`
	DateTime string `json:"date_time"`
}

// ValidateResponse はトークン検証成功時のレスポンス。
type ValidateResponse struct {
	IsValid  bool   `json:"is_valid"`
	User     string `json:"user"`
	IsAdmin  bool   `json:"is_admin"`
	DateTime string `json:"date_time"`
}

func (s *Server) handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Authentication service is up and running!"})
	}
}

// handleSignup はユーザー登録を処理する。
func (s *Server) handleSignup() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SignupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperr.Respond(c, s.logger, apperr.Wrap(apperr.KindValidation, "username, email, passwordは必須です", err))
			return
		}

		result, err := s.service.Signup(c.Request.Context(), req.Username, req.Email, req.Password, req.IsAdmin)
		if err != nil {
			apperr.Respond(c, s.logger, classify(err))
			return
		}

		c.JSON(http.StatusCreated, SignupResponse{
			Detail:   fmt.Sprintf("User created successfully, user ID %s!", result.ID),
			User:     PublicUser{Email: result.Email, Username: result.Username},
			DateTime: now(),
		})
	}
}

// handleLogin はログインとトークン発行を処理する。
func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperr.Respond(c, s.logger, apperr.Wrap(apperr.KindValidation, "username, passwordは必須です", err))
			return
		}

		tok, err := s.service.Login(c.Request.Context(), req.Username, req.Password)
		if errors.Is(err, ErrUserInactive) {
			// 無効化されたユーザーもログイン失敗として同じ応答を返す
			apperr.Respond(c, s.logger, apperr.Credential(loginFailureDetail, err))
			return
		}
		if err != nil {
			apperr.Respond(c, s.logger, classify(err))
			return
		}

		c.JSON(http.StatusOK, LoginResponse{
			Detail:   "Login successful",
			Token:    tok,
			DateTime: now(),
		})
	}
}

// handleValidateToken はAuthorizationヘッダーのトークンを検証する。
func (s *Server) handleValidateToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, _ := middleware.BearerToken(c.GetHeader(middleware.HeaderAuthorization))

		result, err := s.service.Validate(c.Request.Context(), tok)
		if err != nil {
			apperr.Respond(c, s.logger, classify(err))
			return
		}

		c.JSON(http.StatusOK, ValidateResponse{
			IsValid:  result.IsValid,
			User:     result.Subject,
			IsAdmin:  result.IsAdmin,
			DateTime: now(),
		})
	}
}

// classify はドメインエラーをエラー分類に変換する。
func classify(err error) error {
	switch {
	case errors.Is(err, ErrDuplicateUsername), errors.Is(err, ErrDuplicateEmail):
		appErr := apperr.Credential(err.Error(), err)
		appErr.Status = http.StatusConflict
		return appErr
	case errors.Is(err, ErrUnknownUser), errors.Is(err, ErrBadCredentials):
		return apperr.Credential(loginFailureDetail, err)
	case errors.Is(err, ErrUserInactive):
		return apperr.Credential("ユーザーは無効化されています", err)
	case errors.Is(err, ErrMissingToken):
		return apperr.Wrap(apperr.KindValidation, "Authorizationヘッダーが指定されていません", err)
	case errors.Is(err, ErrInvalidToken):
		return apperr.Credential("トークンが無効です", err)
	default:
		// ErrPersistence、token.ErrEncodingを含む
		return apperr.Internal(err)
	}
}

func now() string {
	return time.Now().Format(apperr.DateTimeLayout)
}
