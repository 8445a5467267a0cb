package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hitoshi/mentorlink/internal/database"
	"github.com/hitoshi/mentorlink/internal/model"
)

// PostgresApprovedUserRepo はPostgreSQLを使用した事前承認リストリポジトリ。
type PostgresApprovedUserRepo struct {
	db *sql.DB
}

// NewPostgresApprovedUserRepo はPostgresApprovedUserRepoを生成する。
func NewPostgresApprovedUserRepo(db *sql.DB) *PostgresApprovedUserRepo {
	return &PostgresApprovedUserRepo{db: db}
}

// FindByEmail はメールアドレスで承認レコードを検索する。
// 照合は大文字小文字を区別しない。見つからない場合はnilを返す。
func (r *PostgresApprovedUserRepo) FindByEmail(ctx context.Context, q database.Querier, email string) (*model.ApprovedUser, error) {
	approved := &model.ApprovedUser{Email: email}
	err := q.QueryRowContext(ctx,
		`SELECT name, field_id, organization_id, is_mentor, goal
		 FROM approved_users WHERE LOWER(email) = $1`,
		strings.ToLower(email),
	).Scan(&approved.Name, &approved.FieldID, &approved.OrganizationID, &approved.IsMentor, &approved.Goal)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find approved user: %w", err)
	}

	return approved, nil
}

// compile-time interface check
var _ ApprovedUserRepository = (*PostgresApprovedUserRepo)(nil)
