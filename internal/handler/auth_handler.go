// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/mentorlink/internal/auth"
	"github.com/hitoshi/mentorlink/internal/middleware"
	"github.com/hitoshi/mentorlink/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// SignUp は承認ゲート付きサインアップを実行し、トークンペアを返す。
	SignUp(ctx context.Context, in auth.SignUpInput) (*model.TokenPair, error)
	// Login は資格情報を検証し、トークンペアを返す。
	Login(ctx context.Context, email, password string) (*model.TokenPair, error)
	// Logout は指定ユーザーのセッションを失効させる。
	Logout(ctx context.Context, userID string) error
	// RefreshTokens はリフレッシュトークンと引き換えに新しいペアを発行する。
	RefreshTokens(ctx context.Context, userID, presented string) (*model.TokenPair, error)
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{
		service: service,
	}
}

// signUpRequest はサインアップリクエストのボディ。
// nameとtimeZoneは省略可能。
type signUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	TimeZone string `json:"timeZone"`
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp はサインアップを処理する。
// POST /signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewMissingFieldsError())
		return
	}

	pair, err := h.service.SignUp(r.Context(), auth.SignUpInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		TimeZone: req.TimeZone,
	})
	if err != nil {
		middleware.WriteServiceError(w, err)
		return
	}

	writeTokenPair(w, pair)
}

// Login はログインを処理する。
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewMissingFieldsError())
		return
	}

	pair, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		middleware.WriteServiceError(w, err)
		return
	}

	writeTokenPair(w, pair)
}

// Logout はログアウトを処理する。検証ゲートの背後に配置する。
// POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewMissingTokenError())
		return
	}

	if err := h.service.Logout(r.Context(), userID); err != nil {
		middleware.WriteServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// RefreshTokens はトークン更新を処理する。
// アクセストークンなしで到達するため検証ゲートの外に配置し、
// リフレッシュトークンの提示自体を認証とする。
// GET /token/{id}?refreshToken=xxx
func (h *AuthHandler) RefreshTokens(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	presented := r.URL.Query().Get("refreshToken")

	pair, err := h.service.RefreshTokens(r.Context(), userID, presented)
	if err != nil {
		middleware.WriteServiceError(w, err)
		return
	}

	writeTokenPair(w, pair)
}

// writeTokenPair はトークンペアを200で書き込む。
func writeTokenPair(w http.ResponseWriter, pair *model.TokenPair) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(pair)
}
