package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/mentorlink/internal/database"
)

// PostgresDeviceTokenRepo はPostgreSQLを使用したFCMトークンリポジトリ。
// トークンの登録は通知系コラボレーターが行い、ここでは削除のみを提供する。
type PostgresDeviceTokenRepo struct {
	db *sql.DB
}

// NewPostgresDeviceTokenRepo はPostgresDeviceTokenRepoを生成する。
func NewPostgresDeviceTokenRepo(db *sql.DB) *PostgresDeviceTokenRepo {
	return &PostgresDeviceTokenRepo{db: db}
}

// DeleteByUserID は指定ユーザーの全FCMトークン行を削除する。
// 行が存在しなくてもエラーにしない。
func (r *PostgresDeviceTokenRepo) DeleteByUserID(ctx context.Context, q database.Querier, userID string) error {
	_, err := q.ExecContext(ctx,
		`DELETE FROM users_fcm_tokens WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete fcm tokens: %w", err)
	}
	return nil
}

// compile-time interface check
var _ DeviceTokenRepository = (*PostgresDeviceTokenRepo)(nil)
