// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/mentorlink/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userIDContextKey はリクエストコンテキストにユーザーIDを格納するためのキー。
var userIDContextKey = contextKey("user_id")

// TokenVerifier はアクセストークン検証のインターフェース。
// token.Serviceの部分集合として定義する。
type TokenVerifier interface {
	VerifyAccessToken(tokenString string) (string, error)
}

// UserFinder はアカウント存在確認に必要なインターフェース。
// repository.UserRepositoryの部分集合として定義する。
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// NewAuthMiddleware はAuthorizationヘッダーのBearerトークンを検証する
// ミドルウェアを返す。署名と有効期限の検証後、アカウントがまだ存在することを
// 確認する（トークン発行後・期限前にアカウントが削除されたケースを塞ぐ）。
// 検証失敗の理由は区別せず、単一の無効トークンエラーとして返す。
//
// このゲートは自身の状態を持たない読み取り専用の検査であり、
// 任意の並列度で安全に実行できる。検証済みユーザーIDは
// リクエストコンテキストに注入し、UserIDFromContextで取り出す。
func NewAuthMiddleware(verifier TokenVerifier, users UserFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. AuthorizationヘッダーからBearerトークンを取得
			header := r.Header.Get("Authorization")
			if header == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewMissingTokenError())
				return
			}
			tokenString := strings.TrimPrefix(header, "Bearer ")
			if tokenString == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewMissingTokenError())
				return
			}

			// 2. 署名と有効期限の検証
			userID, err := verifier.VerifyAccessToken(tokenString)
			if err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewInvalidTokenError())
				return
			}

			// 3. アカウントの存在確認
			user, err := users.FindByID(r.Context(), userID)
			if err != nil {
				slog.Error("failed to find user for token verification",
					slog.String("error", err.Error()),
				)
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewInvalidTokenError())
				return
			}
			if user == nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewInvalidTokenError())
				return
			}

			// 4. 検証済みユーザーIDをコンテキストに注入
			ctx := context.WithValue(r.Context(), userIDContextKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// ContextWithUserID はコンテキストにユーザーIDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}
