package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/mentorlink/internal/database"
	"github.com/hitoshi/mentorlink/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password, field_id, organization_id, is_mentor, is_available, available_from, registered_on
		 FROM users WHERE id = $1`,
		id,
	).Scan(&user.ID, &user.Name, &user.Email, &user.Password, &user.FieldID,
		&user.OrganizationID, &user.IsMentor, &user.IsAvailable, &user.AvailableFrom, &user.RegisteredOn)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	return user, nil
}

// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, q database.Querier, email string) (*model.User, error) {
	user := &model.User{}
	err := q.QueryRowContext(ctx,
		`SELECT id, name, email, password, field_id, organization_id, is_mentor, is_available, available_from, registered_on
		 FROM users WHERE email = $1`,
		email,
	).Scan(&user.ID, &user.Name, &user.Email, &user.Password, &user.FieldID,
		&user.OrganizationID, &user.IsMentor, &user.IsAvailable, &user.AvailableFrom, &user.RegisteredOn)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	return user, nil
}

// EmailExists は指定メールアドレスのユーザーが存在するか返す。
func (r *PostgresUserRepo) EmailExists(ctx context.Context, q database.Querier, email string) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`,
		email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return exists, nil
}

// Create はユーザー行を挿入する。
// emailの一意制約違反は呼び出し側がpq.Errorのコード23505で判定する。
func (r *PostgresUserRepo) Create(ctx context.Context, q database.Querier, user *model.User) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password, field_id, organization_id, is_mentor, is_available, available_from, registered_on)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		user.ID, user.Name, user.Email, user.Password, user.FieldID,
		user.OrganizationID, user.IsMentor, user.IsAvailable, user.AvailableFrom, user.RegisteredOn,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// SetAvailability はユーザーの受付可能フラグを更新する。
func (r *PostgresUserRepo) SetAvailability(ctx context.Context, q database.Querier, userID string, available bool) error {
	_, err := q.ExecContext(ctx,
		`UPDATE users SET is_available = $1 WHERE id = $2`,
		available, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user availability: %w", err)
	}
	return nil
}

// DeleteByID は指定IDのユーザーを削除する。関連行はCASCADE削除される。
func (r *PostgresUserRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %s", id)
	}
	return nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
