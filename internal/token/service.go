package token

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/mentorlink/internal/database"
	"github.com/hitoshi/mentorlink/internal/model"
	"github.com/hitoshi/mentorlink/internal/repository"
)

// Service はトークンペアの発行・更新・失効を提供する。
// アクセストークンは署名のみで検証できる自己完結型、
// リフレッシュトークンはusers_refresh_tokensに保存する不透明値。
type Service struct {
	repo           repository.RefreshTokenRepository
	secret         []byte
	accessTokenTTL time.Duration
}

// NewService はServiceを生成する。
func NewService(repo repository.RefreshTokenRepository, secret string, accessTokenTTL time.Duration) *Service {
	return &Service{
		repo:           repo,
		secret:         []byte(secret),
		accessTokenTTL: accessTokenTTL,
	}
}

// IssuePair は新しいトークンペアを発行する。
// リフレッシュトークンは暗号的に安全な乱数由来のUUIDを新規生成し、
// 既存行があれば上書きする。この上書きにより、以前に発行された
// リフレッシュトークンは即座に無効になる（発行済みアクセストークンは
// 自己完結型のため、自身の有効期限までは使用可能なまま）。
func (s *Service) IssuePair(ctx context.Context, q database.Querier, userID string) (*model.TokenPair, error) {
	accessToken, err := GenerateAccessToken(userID, s.secret, s.accessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken := uuid.New().String()
	if err := s.repo.Upsert(ctx, q, userID, refreshToken); err != nil {
		return nil, err
	}

	return &model.TokenPair{
		UserID:       userID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Renew は提示されたリフレッシュトークンを検証し、新しいトークンペアを発行する。
// 検証成功時も古いリフレッシュトークンは必ず置き換える（ローテーション）ため、
// 同じ更新リクエストの再送は2度と成功しない。
// 保存値と一致しない、または行が存在しない場合は、盗難・陳腐化した
// トークンの可能性があるため既存セッションを失効させてから拒否する。
// この失効は待機し、失敗した場合はエラーとして呼び出し側に返す。
func (s *Service) Renew(ctx context.Context, q database.Querier, userID, presented string) (*model.TokenPair, error) {
	stored, err := s.repo.Find(ctx, q, userID)
	if err != nil {
		return nil, err
	}

	if stored == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) != 1 {
		if err := s.repo.Delete(ctx, q, userID); err != nil {
			return nil, err
		}
		return nil, model.NewInvalidRefreshTokenError()
	}

	return s.IssuePair(ctx, q, userID)
}

// Revoke は指定ユーザーのセッションを無条件に失効させる。
// セッションが存在しなくてもエラーにしない（冪等）。
func (s *Service) Revoke(ctx context.Context, q database.Querier, userID string) error {
	return s.repo.Delete(ctx, q, userID)
}

// VerifyAccessToken はアクセストークンを検証し、ユーザーIDを返す。
// 検証ゲートミドルウェアから使用する。
func (s *Service) VerifyAccessToken(tokenString string) (string, error) {
	return ParseAccessToken(tokenString, s.secret)
}
