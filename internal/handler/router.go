package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/mentorlink/internal/metrics"
	"github.com/hitoshi/mentorlink/internal/middleware"
)

// HealthChecker はDB疎通確認のインターフェース。*sql.DBが実装する。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	Collector         middleware.StatusRecorder
	TokenVerifier     middleware.TokenVerifier
	UserFinder        middleware.UserFinder
	CORSAllowedOrigin string

	// 運用エンドポイント
	HealthChecker HealthChecker
	Gatherer      prometheus.Gatherer

	// サービス
	AuthService AuthServiceInterface
	UserService UserServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → CORS → Logging → (保護ルートのみ) Auth
//
// サインアップ・ログイン・トークン更新は検証ゲートの外、
// ログアウトとアカウント削除はゲートの内側に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.Collector))

	authHandler := NewAuthHandler(deps.AuthService)
	userHandler := NewUserHandler(deps.UserService)

	// --- 認証不要のルート ---

	r.Post("/signup", authHandler.SignUp)
	r.Post("/login", authHandler.Login)

	// トークン更新はリフレッシュトークンの提示自体が認証となる
	r.Get("/token/{id}", authHandler.RefreshTokens)

	// ヘルスチェック（DB疎通確認）
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if err := deps.HealthChecker.PingContext(req.Context()); err != nil {
			slog.Error("health check failed", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	// Prometheusスクレイプ
	if deps.Gatherer != nil {
		r.Get("/metrics", metrics.Handler(deps.Gatherer).ServeHTTP)
	}

	// --- 検証ゲートの内側のルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier, deps.UserFinder))

		r.Post("/logout", authHandler.Logout)

		r.Route("/api/users", func(r chi.Router) {
			r.Delete("/me", userHandler.Delete)
		})
	})

	return r
}
