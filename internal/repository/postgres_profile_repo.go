package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/mentorlink/internal/database"
	"github.com/hitoshi/mentorlink/internal/model"
)

// PostgresProfileRepo はPostgreSQLを使用したプロフィール既定値リポジトリ。
type PostgresProfileRepo struct {
	db *sql.DB
}

// NewPostgresProfileRepo はPostgresProfileRepoを生成する。
func NewPostgresProfileRepo(db *sql.DB) *PostgresProfileRepo {
	return &PostgresProfileRepo{db: db}
}

// GetDefaultProfile はuser_default_profileシングルトン行を取得する。
func (r *PostgresProfileRepo) GetDefaultProfile(ctx context.Context, q database.Querier) (*model.DefaultProfile, error) {
	profile := &model.DefaultProfile{}
	err := q.QueryRowContext(ctx,
		`SELECT lessons_availability_min_interval_in_days, lessons_availability_min_interval_unit,
		        lessons_availability_max_students, notifications_enabled, notifications_time, is_available
		 FROM user_default_profile`,
	).Scan(
		&profile.LessonsAvailability.MinInterval,
		&profile.LessonsAvailability.MinIntervalUnit,
		&profile.LessonsAvailability.MaxStudents,
		&profile.NotificationsSettings.Enabled,
		&profile.NotificationsSettings.Time,
		&profile.IsAvailable,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get default profile: %w", err)
	}

	return profile, nil
}

// CreateLessonsAvailability はメンターのレッスン受け入れポリシー行を挿入する。
func (r *PostgresProfileRepo) CreateLessonsAvailability(ctx context.Context, q database.Querier, userID string, la model.LessonsAvailability) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO users_lessons_availabilities (user_id, min_interval_in_days, min_interval_unit, max_students)
		 VALUES ($1, $2, $3, $4)`,
		userID, la.MinInterval, la.MinIntervalUnit, la.MaxStudents,
	)
	if err != nil {
		return fmt.Errorf("failed to insert lessons availability: %w", err)
	}
	return nil
}

// CreateNotificationsSettings は通知設定行を挿入する。
func (r *PostgresProfileRepo) CreateNotificationsSettings(ctx context.Context, q database.Querier, userID string, ns model.NotificationsSettings) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO users_notifications_settings (user_id, enabled, time)
		 VALUES ($1, $2, $3)`,
		userID, ns.Enabled, ns.Time,
	)
	if err != nil {
		return fmt.Errorf("failed to insert notifications settings: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ProfileRepository = (*PostgresProfileRepo)(nil)
