// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// CodeとCategoryは内部でのステータスコード判定とログ記録にのみ使用し、
// クライアントへはMessageのみをシリアライズする。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeMissingFields      = "MISSING_FIELDS"
	ErrCodeInvalidEmail       = "INVALID_EMAIL"
	ErrCodeDuplicateUser      = "DUPLICATE_USER"
	ErrCodeNotApproved        = "NOT_APPROVED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeMissingToken       = "MISSING_TOKEN"
	ErrCodeInvalidToken       = "INVALID_TOKEN"
	ErrCodeInvalidRefresh     = "INVALID_REFRESH_TOKEN"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodePersistence        = "PERSISTENCE_ERROR"
)

// NewMissingFieldsError は必須項目未入力エラーを生成する。
func NewMissingFieldsError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingFields,
		Message:  "必須項目が入力されていません。",
		Category: "validation",
		Action:   "メールアドレスとパスワードを入力してください。",
	}
}

// NewInvalidEmailError はメールアドレス形式エラーを生成する。
func NewInvalidEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidEmail,
		Message:  "有効なメールアドレスを入力してください。",
		Category: "validation",
		Action:   "メールアドレスの形式を確認してください。",
	}
}

// NewDuplicateUserError は登録済みメールアドレスでのサインアップエラーを生成する。
func NewDuplicateUserError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateUser,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "validation",
		Action:   "登録済みのアカウントでログインしてください。",
	}
}

// NewNotApprovedError は承認リスト未登録エラーを生成する。
// 承認済みか否かはメールアドレスの存在を部分的に開示するが、
// 承認ゲートの設計上避けられない仕様である。
func NewNotApprovedError() *APIError {
	return &APIError{
		Code:     ErrCodeNotApproved,
		Message:  "提携NGOの学生または提携企業の社員のみ登録できます。",
		Category: "auth",
		Action:   "所属団体の担当者に承認リストへの追加を依頼してください。",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// メールアドレスの存在を漏らさないよう、未登録とパスワード不一致で同一の文言を返す。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewMissingTokenError はトークン未提示エラーを生成する。
func NewMissingTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingToken,
		Message:  "トークンが提供されていません。",
		Category: "auth",
		Action:   "Authorizationヘッダーにアクセストークンを設定してください。",
	}
}

// NewInvalidTokenError はトークン検証失敗エラーを生成する。
// 失敗理由（形式不正・期限切れ・署名不一致・アカウント削除済み）は区別せず、
// 単一のカテゴリとして返す。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidToken,
		Message:  "提供されたトークンは無効です。",
		Category: "auth",
		Action:   "再度ログインしてください。",
	}
}

// NewInvalidRefreshTokenError はリフレッシュトークン不一致エラーを生成する。
func NewInvalidRefreshTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRefresh,
		Message:  "リフレッシュトークンが無効です。",
		Category: "auth",
		Action:   "再度ログインしてください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewPersistenceError はストレージ層の失敗を不透明に包むエラーを生成する。
// 内部の詳細はログにのみ記録する。
func NewPersistenceError() *APIError {
	return &APIError{
		Code:     ErrCodePersistence,
		Message:  "処理中にエラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
