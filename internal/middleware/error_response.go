package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hitoshi/mentorlink/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスのフォーマット。
// クライアントへはメッセージ文字列のみを公開し、
// エラーコードやカテゴリは内部（ログ・ステータス判定）に留める。
type ErrorResponseBody struct {
	Message string `json:"message"`
}

// WriteErrorResponse は統一フォーマットでHTTPエラーレスポンスを書き込む。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Message: apiErr.Message,
	})
}

// WriteServiceError はサービス層から返ったエラーをHTTPレスポンスへ変換する。
// APIErrorは認証カテゴリのトークン系コードのみ401、それ以外は400。
// APIError以外のエラー（ストレージ障害等）は詳細を漏らさず、
// 不透明な永続化エラーとして400で返す。
func WriteServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		WriteErrorResponse(w, http.StatusBadRequest, model.NewPersistenceError())
		return
	}

	switch apiErr.Code {
	case model.ErrCodeMissingToken, model.ErrCodeInvalidToken, model.ErrCodeInvalidRefresh:
		WriteErrorResponse(w, http.StatusUnauthorized, apiErr)
	default:
		WriteErrorResponse(w, http.StatusBadRequest, apiErr)
	}
}
