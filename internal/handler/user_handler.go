package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/mentorlink/internal/middleware"
	"github.com/hitoshi/mentorlink/internal/model"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// Delete はアカウントを削除する。
	// セッション失効とFCMトークン削除を待ってからユーザー行を削除する。
	Delete(ctx context.Context, userID string) error
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// Delete はアカウント削除を処理する。
// DELETE /api/users/me
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewMissingTokenError())
		return
	}

	if err := h.service.Delete(r.Context(), userID); err != nil {
		middleware.WriteServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
