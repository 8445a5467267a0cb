package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/mentorlink/internal/database"
	"github.com/hitoshi/mentorlink/internal/model"
)

// PostgresOnboardingRepo はサインアップ時の周辺行を投入するリポジトリ。
type PostgresOnboardingRepo struct {
	db *sql.DB
}

// NewPostgresOnboardingRepo はPostgresOnboardingRepoを生成する。
func NewPostgresOnboardingRepo(db *sql.DB) *PostgresOnboardingRepo {
	return &PostgresOnboardingRepo{db: db}
}

// SeedAppFlags は機能フラグの初期行を挿入する。
func (r *PostgresOnboardingRepo) SeedAppFlags(ctx context.Context, q database.Querier, userID string, trainingEnabled, mentoringEnabled bool) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO users_app_flags (user_id, is_training_enabled, is_mentoring_enabled)
		 VALUES ($1, $2, $3)`,
		userID, trainingEnabled, mentoringEnabled,
	)
	if err != nil {
		return fmt.Errorf("failed to insert app flags: %w", err)
	}
	return nil
}

// SeedTimeZone はタイムゾーン行を挿入する。
func (r *PostgresOnboardingRepo) SeedTimeZone(ctx context.Context, q database.Querier, userID, name string) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO users_timezones (user_id, name)
		 VALUES ($1, $2)`,
		userID, name,
	)
	if err != nil {
		return fmt.Errorf("failed to insert timezone: %w", err)
	}
	return nil
}

// CreateGoal は学生の初期目標行を挿入する。
func (r *PostgresOnboardingRepo) CreateGoal(ctx context.Context, q database.Querier, goal *model.Goal) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO users_goals (id, user_id, text, "index", date_time)
		 VALUES ($1, $2, $3, $4, $5)`,
		goal.ID, goal.UserID, goal.Text, goal.Index, goal.DateTime,
	)
	if err != nil {
		return fmt.Errorf("failed to insert goal: %w", err)
	}
	return nil
}

// compile-time interface check
var _ OnboardingRepository = (*PostgresOnboardingRepo)(nil)
