// Package user はアカウント削除のドメインロジックを提供する。
// プロフィール編集等のその他のユーザー操作は別コラボレーターが担う。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/mentorlink/internal/database"
	"github.com/hitoshi/mentorlink/internal/model"
	"github.com/hitoshi/mentorlink/internal/repository"
)

// SessionRevoker はセッション失効のインターフェース。
// token.Serviceの部分集合として定義する。
type SessionRevoker interface {
	Revoke(ctx context.Context, q database.Querier, userID string) error
}

// Service はアカウント削除のサービス層。
type Service struct {
	txRunner        database.TxRunner
	userRepo        repository.UserRepository
	deviceTokenRepo repository.DeviceTokenRepository
	sessions        SessionRevoker
}

// NewService はServiceを生成する。
func NewService(
	txRunner database.TxRunner,
	userRepo repository.UserRepository,
	deviceTokenRepo repository.DeviceTokenRepository,
	sessions SessionRevoker,
) *Service {
	return &Service{
		txRunner:        txRunner,
		userRepo:        userRepo,
		deviceTokenRepo: deviceTokenRepo,
		sessions:        sessions,
	}
}

// Delete はアカウントを削除する。
// セッション失効とFCMトークン削除を先に実行して完了を待ち、
// 失敗した場合は削除を中断する（失効が黙って失敗すると、
// アカウント削除後もセッションが生きたまま残るため）。
// その後ユーザー行を削除し、関連行はCASCADE削除に任せる。
func (s *Service) Delete(ctx context.Context, userID string) error {
	existing, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if existing == nil {
		return model.NewUserNotFoundError()
	}

	err = s.txRunner.RunTx(ctx, func(q database.Querier) error {
		if err := s.sessions.Revoke(ctx, q, userID); err != nil {
			return err
		}
		return s.deviceTokenRepo.DeleteByUserID(ctx, q, userID)
	})
	if err != nil {
		return fmt.Errorf("failed to revoke session for deletion: %w", err)
	}

	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return err
	}

	slog.Info("user account deleted", slog.String("user_id", userID))
	return nil
}
