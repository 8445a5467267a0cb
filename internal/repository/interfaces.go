// Package repository はデータ永続化のインターフェースを定義する。
//
// database.Querierを受け取るメソッドは、呼び出し側が所有する
// トランザクションに参加する。サインアップの複数行書き込みが
// 単一トランザクションで完結するのはこの仕組みによる。
package repository

import (
	"context"

	"github.com/hitoshi/mentorlink/internal/database"
	"github.com/hitoshi/mentorlink/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	// 検証ゲートが接続プールから直接呼び出すため、Querierを取らない。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	// 照合は保存値との完全一致（大文字小文字を区別する）。
	FindByEmail(ctx context.Context, q database.Querier, email string) (*model.User, error)

	// EmailExists は指定メールアドレスのユーザーが存在するか返す。
	EmailExists(ctx context.Context, q database.Querier, email string) (bool, error)

	// Create はユーザー行を挿入する。
	Create(ctx context.Context, q database.Querier, user *model.User) error

	// SetAvailability はユーザーの受付可能フラグを更新する。
	SetAvailability(ctx context.Context, q database.Querier, userID string, available bool) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連行（リフレッシュトークン、プロフィール既定値等）はCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// ApprovedUserRepository は事前承認リストの読み取りインターフェース。
// 承認リストは外部の管理プロセスが投入するため、書き込みメソッドを持たない。
type ApprovedUserRepository interface {
	// FindByEmail はメールアドレスで承認レコードを検索する。
	// 照合は大文字小文字を区別しない。見つからない場合はnilを返す
	// （未承認はエラーではなく、呼び出し側が拒否として扱う）。
	FindByEmail(ctx context.Context, q database.Querier, email string) (*model.ApprovedUser, error)
}

// RefreshTokenRepository はリフレッシュトークンの永続化インターフェース。
// 1ユーザーにつき最大1行の不変条件はUpsertが担保する。
type RefreshTokenRepository interface {
	// Find は指定ユーザーの保存済みリフレッシュトークン値を返す。
	// 行が存在しない場合は空文字列を返す。
	Find(ctx context.Context, q database.Querier, userID string) (string, error)

	// Upsert はリフレッシュトークン値を挿入または上書きする。
	// 既存行の上書き（追記ではない）がシングルセッションの仕組みそのもの。
	Upsert(ctx context.Context, q database.Querier, userID, refreshToken string) error

	// Delete は指定ユーザーのリフレッシュトークン行を削除する。
	// 行が存在しなくてもエラーにしない（冪等）。
	Delete(ctx context.Context, q database.Querier, userID string) error
}

// ProfileRepository はプロフィール既定値の読み取りと初期行の作成インターフェース。
type ProfileRepository interface {
	// GetDefaultProfile はuser_default_profileシングルトン行を取得する。
	GetDefaultProfile(ctx context.Context, q database.Querier) (*model.DefaultProfile, error)

	// CreateLessonsAvailability はメンターのレッスン受け入れポリシー行を挿入する。
	CreateLessonsAvailability(ctx context.Context, q database.Querier, userID string, la model.LessonsAvailability) error

	// CreateNotificationsSettings は通知設定行を挿入する。
	CreateNotificationsSettings(ctx context.Context, q database.Querier, userID string, ns model.NotificationsSettings) error
}

// OnboardingRepository はサインアップ時に初期投入する周辺行のインターフェース。
type OnboardingRepository interface {
	// SeedAppFlags は機能フラグの初期行を挿入する。
	SeedAppFlags(ctx context.Context, q database.Querier, userID string, trainingEnabled, mentoringEnabled bool) error

	// SeedTimeZone はタイムゾーン行を挿入する。
	SeedTimeZone(ctx context.Context, q database.Querier, userID, name string) error

	// CreateGoal は学生の初期目標行を挿入する。
	CreateGoal(ctx context.Context, q database.Querier, goal *model.Goal) error
}

// DeviceTokenRepository はプッシュ通知トークンの削除インターフェース。
// 登録は通知系コラボレーター（本コアの対象外）が行い、
// ここではログアウト・退会時の削除のみを扱う。
type DeviceTokenRepository interface {
	// DeleteByUserID は指定ユーザーの全FCMトークン行を削除する。
	DeleteByUserID(ctx context.Context, q database.Querier, userID string) error
}
