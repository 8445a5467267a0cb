package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/mentorlink/internal/database"
)

// PostgresRefreshTokenRepo はPostgreSQLを使用したリフレッシュトークンリポジトリ。
type PostgresRefreshTokenRepo struct {
	db *sql.DB
}

// NewPostgresRefreshTokenRepo はPostgresRefreshTokenRepoを生成する。
func NewPostgresRefreshTokenRepo(db *sql.DB) *PostgresRefreshTokenRepo {
	return &PostgresRefreshTokenRepo{db: db}
}

// Find は指定ユーザーの保存済みリフレッシュトークン値を返す。
// 行が存在しない場合は空文字列を返す。
func (r *PostgresRefreshTokenRepo) Find(ctx context.Context, q database.Querier, userID string) (string, error) {
	var value string
	err := q.QueryRowContext(ctx,
		`SELECT refresh_token FROM users_refresh_tokens WHERE user_id = $1`,
		userID,
	).Scan(&value)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to find refresh token: %w", err)
	}

	return value, nil
}

// Upsert はリフレッシュトークン値を挿入または上書きする。
// user_idが主キーのため、ON CONFLICTによる上書きが
// 「1ユーザーにつき最大1セッション」の不変条件を競合なしで担保する。
func (r *PostgresRefreshTokenRepo) Upsert(ctx context.Context, q database.Querier, userID, refreshToken string) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO users_refresh_tokens (user_id, refresh_token)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET refresh_token = EXCLUDED.refresh_token`,
		userID, refreshToken,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert refresh token: %w", err)
	}
	return nil
}

// Delete は指定ユーザーのリフレッシュトークン行を削除する。
// 行が存在しなくてもエラーにしない（冪等）。
func (r *PostgresRefreshTokenRepo) Delete(ctx context.Context, q database.Querier, userID string) error {
	_, err := q.ExecContext(ctx,
		`DELETE FROM users_refresh_tokens WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}
	return nil
}

// compile-time interface check
var _ RefreshTokenRepository = (*PostgresRefreshTokenRepo)(nil)
