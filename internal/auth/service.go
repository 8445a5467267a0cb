// Package auth はサインアップ・ログイン・ログアウト・トークン更新の
// セッションオーケストレーションを提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/hitoshi/mentorlink/internal/database"
	"github.com/hitoshi/mentorlink/internal/model"
	"github.com/hitoshi/mentorlink/internal/password"
	"github.com/hitoshi/mentorlink/internal/repository"
)

// emailPattern はメールアドレスの形式検査に使用する。
// 厳密なRFC準拠ではなく「何か@何か.何か」の最小限の検査で、
// 最終的な正しさは承認リストとの照合が担保する。
var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// TokenIssuer はオーケストレーターが必要とするトークン操作のインターフェース。
// token.Serviceの部分集合として定義する。
type TokenIssuer interface {
	IssuePair(ctx context.Context, q database.Querier, userID string) (*model.TokenPair, error)
	Renew(ctx context.Context, q database.Querier, userID, presented string) (*model.TokenPair, error)
	Revoke(ctx context.Context, q database.Querier, userID string) error
}

// Metrics は認証操作の結果を記録するインターフェース。
// metrics.Collectorが実装する。nilの場合は記録しない。
type Metrics interface {
	RecordSignup(result string)
	RecordLogin(result string)
	RecordTokenRenewal(result string)
	RecordRevocation()
}

// SignUpInput はサインアップリクエストの入力値。
// NameとTimeZoneは省略可能で、Nameの省略時は承認レコードの値を使用する。
type SignUpInput struct {
	Name     string
	Email    string
	Password string
	TimeZone string
}

// Service はセッションオーケストレーター。
// サインアップの複数行ブートストラップを単一トランザクションで実行し、
// ログイン・ログアウト・トークン更新を調整する。
type Service struct {
	txRunner        database.TxRunner
	userRepo        repository.UserRepository
	approvedRepo    repository.ApprovedUserRepository
	profileRepo     repository.ProfileRepository
	onboardingRepo  repository.OnboardingRepository
	deviceTokenRepo repository.DeviceTokenRepository
	tokens          TokenIssuer
	metrics         Metrics
}

// NewService はServiceを生成する。metricsはnilを許容する。
func NewService(
	txRunner database.TxRunner,
	userRepo repository.UserRepository,
	approvedRepo repository.ApprovedUserRepository,
	profileRepo repository.ProfileRepository,
	onboardingRepo repository.OnboardingRepository,
	deviceTokenRepo repository.DeviceTokenRepository,
	tokens TokenIssuer,
	metrics Metrics,
) *Service {
	return &Service{
		txRunner:        txRunner,
		userRepo:        userRepo,
		approvedRepo:    approvedRepo,
		profileRepo:     profileRepo,
		onboardingRepo:  onboardingRepo,
		deviceTokenRepo: deviceTokenRepo,
		tokens:          tokens,
		metrics:         metrics,
	}
}

// SignUp は承認ゲート付きサインアップを実行する。
//
// 入力検証はトランザクションを開く前に行う。以降の重複チェック・承認照合・
// ユーザー行挿入・プロフィール初期化・トークン発行はすべて単一トランザクションで
// 実行し、途中のどの失敗でも全体をロールバックする（部分的なアカウントは残らない）。
// 同一メールアドレスの同時サインアップはusers.emailの一意制約が最終的に調停し、
// 挿入時・コミット時いずれの制約違反も登録済みエラーとして返す。
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*model.TokenPair, error) {
	if in.Email == "" || in.Password == "" {
		return nil, model.NewMissingFieldsError()
	}
	if !emailPattern.MatchString(in.Email) {
		return nil, model.NewInvalidEmailError()
	}

	var pair *model.TokenPair
	var isMentor bool

	err := s.txRunner.RunTx(ctx, func(q database.Querier) error {
		exists, err := s.userRepo.EmailExists(ctx, q, in.Email)
		if err != nil {
			return err
		}
		if exists {
			return model.NewDuplicateUserError()
		}

		approved, err := s.approvedRepo.FindByEmail(ctx, q, in.Email)
		if err != nil {
			return err
		}
		if approved == nil {
			return model.NewNotApprovedError()
		}
		isMentor = approved.IsMentor

		hash, err := password.Hash(in.Password)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		// リクエストで省略された属性は承認レコードの値で補完する
		name := in.Name
		if name == "" {
			name = approved.Name
		}

		now := time.Now().UTC()
		user := &model.User{
			ID:             uuid.New().String(),
			Name:           name,
			Email:          in.Email,
			Password:       hash,
			FieldID:        approved.FieldID,
			OrganizationID: approved.OrganizationID,
			IsMentor:       approved.IsMentor,
			AvailableFrom:  now,
			RegisteredOn:   now,
		}
		if err := s.userRepo.Create(ctx, q, user); err != nil {
			return err
		}

		if err := s.bootstrapProfile(ctx, q, user.ID, approved.IsMentor); err != nil {
			return err
		}

		if err := s.onboardingRepo.SeedAppFlags(ctx, q, user.ID, true, true); err != nil {
			return err
		}
		if in.TimeZone != "" {
			if err := s.onboardingRepo.SeedTimeZone(ctx, q, user.ID, in.TimeZone); err != nil {
				return err
			}
		}

		// 学生には承認レコードの目標テキストを初期目標として設定する
		if !approved.IsMentor {
			goal := &model.Goal{
				ID:       uuid.New().String(),
				UserID:   user.ID,
				Text:     approved.Goal,
				Index:    1,
				DateTime: now,
			}
			if err := s.onboardingRepo.CreateGoal(ctx, q, goal); err != nil {
				return err
			}
		}

		pair, err = s.tokens.IssuePair(ctx, q, user.ID)
		return err
	})
	if err != nil {
		// 事前チェックをすり抜けた同時サインアップは一意制約違反として現れる
		if isUniqueViolation(err) {
			err = model.NewDuplicateUserError()
		}
		s.recordSignup(resultOf(err))
		return nil, err
	}

	s.recordSignup("success")
	slog.Info("user signed up",
		slog.String("user_id", pair.UserID),
		slog.Bool("is_mentor", isMentor),
	)
	return pair, nil
}

// bootstrapProfile はプロフィール既定値を新規ユーザーへコピーする。
// user_default_profileシングルトン行を読み、(1)受付可能フラグの設定、
// (2)メンターの場合はレッスン受け入れポリシー行の挿入、(3)通知設定行の挿入を行う。
// 3つの書き込みはすべて呼び出し側のトランザクションに参加し、単独ではコミットしない。
func (s *Service) bootstrapProfile(ctx context.Context, q database.Querier, userID string, isMentor bool) error {
	profile, err := s.profileRepo.GetDefaultProfile(ctx, q)
	if err != nil {
		return err
	}

	if err := s.userRepo.SetAvailability(ctx, q, userID, profile.IsAvailable); err != nil {
		return err
	}

	if isMentor {
		if err := s.profileRepo.CreateLessonsAvailability(ctx, q, userID, profile.LessonsAvailability); err != nil {
			return err
		}
	}

	return s.profileRepo.CreateNotificationsSettings(ctx, q, userID, profile.NotificationsSettings)
}

// Login はメールアドレスとパスワードを検証し、トークンペアを発行する。
// 未登録メールアドレスとパスワード不一致は同一のエラーを返し、
// アカウントの存在を推測できないようにする。
func (s *Service) Login(ctx context.Context, email, plainPassword string) (*model.TokenPair, error) {
	if email == "" || plainPassword == "" {
		return nil, model.NewMissingFieldsError()
	}
	if !emailPattern.MatchString(email) {
		return nil, model.NewInvalidEmailError()
	}

	var pair *model.TokenPair
	err := s.txRunner.RunTx(ctx, func(q database.Querier) error {
		user, err := s.userRepo.FindByEmail(ctx, q, email)
		if err != nil {
			return err
		}
		if user == nil {
			return model.NewInvalidCredentialsError()
		}
		if !password.Compare(user.Password, plainPassword) {
			return model.NewInvalidCredentialsError()
		}

		pair, err = s.tokens.IssuePair(ctx, q, user.ID)
		return err
	})
	if err != nil {
		s.recordLogin(resultOf(err))
		return nil, err
	}

	s.recordLogin("success")
	slog.Info("user logged in", slog.String("user_id", pair.UserID))
	return pair, nil
}

// Logout は指定ユーザーのセッションを失効させ、FCMトークンを削除する。
// 検証ゲートを通過した後に呼ばれるため、認可済みであれば常に成功する。
// 失効の失敗は黙殺せずエラーとして返す（失敗したまま200を返すと
// セッションが生きたまま残るため）。
func (s *Service) Logout(ctx context.Context, userID string) error {
	err := s.txRunner.RunTx(ctx, func(q database.Querier) error {
		if err := s.tokens.Revoke(ctx, q, userID); err != nil {
			return err
		}
		return s.deviceTokenRepo.DeleteByUserID(ctx, q, userID)
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.RecordRevocation()
	}
	slog.Info("user logged out", slog.String("user_id", userID))
	return nil
}

// RefreshTokens は提示されたリフレッシュトークンと引き換えに
// 新しいトークンペアを発行する。このエンドポイントはアクセストークンなしで
// 到達する設計のため、提示値と保存値の完全一致が唯一の認証手段となる。
//
// 不一致時のフェイルクローズ失効（既存セッションの削除）は拒否応答とともに
// コミットされなければならないため、拒否はトランザクション内ではエラーとして
// 返さず、コミット後に呼び出し側へ返す。
func (s *Service) RefreshTokens(ctx context.Context, userID, presented string) (*model.TokenPair, error) {
	var pair *model.TokenPair
	var rejected *model.APIError

	err := s.txRunner.RunTx(ctx, func(q database.Querier) error {
		p, renewErr := s.tokens.Renew(ctx, q, userID, presented)
		var apiErr *model.APIError
		if errors.As(renewErr, &apiErr) && apiErr.Code == model.ErrCodeInvalidRefresh {
			rejected = apiErr
			return nil
		}
		if renewErr != nil {
			return renewErr
		}
		pair = p
		return nil
	})
	if err != nil {
		s.recordRenewal("error")
		return nil, err
	}
	if rejected != nil {
		s.recordRenewal("rejected")
		slog.Warn("refresh token rejected, session revoked", slog.String("user_id", userID))
		return nil, rejected
	}

	s.recordRenewal("success")
	return pair, nil
}

// isUniqueViolation はPostgreSQLの一意制約違反（SQLSTATE 23505）か判定する。
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation"
}

// resultOf はメトリクス用にエラーを結果ラベルへ分類する。
// ユーザー起因の拒否（検証・承認・認証）はrejected、それ以外はerror。
func resultOf(err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) && apiErr.Category != "system" {
		return "rejected"
	}
	return "error"
}

func (s *Service) recordSignup(result string) {
	if s.metrics != nil {
		s.metrics.RecordSignup(result)
	}
}

func (s *Service) recordLogin(result string) {
	if s.metrics != nil {
		s.metrics.RecordLogin(result)
	}
}

func (s *Service) recordRenewal(result string) {
	if s.metrics != nil {
		s.metrics.RecordTokenRenewal(result)
	}
}
