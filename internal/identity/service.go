// Package identity は外部IDプロバイダーへのゲートウェイを提供する。
// トークンの発行・検証はすべてプロバイダー側の責務であり、
// このパッケージはローカルにセッションもトークンキャッシュも持たない。
package identity

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hitoshi/taskman/internal/model"
)

// Provider はIDプロバイダーのインターフェース。
// ホスト型プロバイダー（GoTrue等）と組み込みプロバイダーの差し替えを可能にする抽象化。
type Provider interface {
	// SignUp はユーザーを新規登録し、作成されたユーザーを返す。
	SignUp(ctx context.Context, email, password string) (*model.User, error)
	// SignIn は資格情報を検証し、トークンペアを発行する。
	SignIn(ctx context.Context, email, password string) (*model.Session, error)
	// Resolve はアクセストークンを検証し、対応するユーザーを返す。
	Resolve(ctx context.Context, token string) (*model.User, error)
}

// MetricsRecorder はゲートウェイが記録するメトリクスのインターフェース。
type MetricsRecorder interface {
	RecordTokenResolve(outcome string)
	RecordSignIn(outcome string)
}

// Service はIDプロバイダーへのゲートウェイ。
// プロバイダーの失敗を統一エラー（INVALID_CREDENTIALS / INVALID_TOKEN）に変換する。
type Service struct {
	provider Provider
	metrics  MetricsRecorder
}

// NewService はServiceを生成する。metricsはnil可。
func NewService(provider Provider, metrics MetricsRecorder) *Service {
	return &Service{provider: provider, metrics: metrics}
}

// SignUp はユーザーを新規登録する。
// プロバイダーがユーザーを返さなかった場合（重複メール・脆弱なパスワード・
// プロバイダー障害を含む）はINVALID_CREDENTIALSに丸める。
func (s *Service) SignUp(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, model.NewInvalidCredentialsError()
	}

	user, err := s.provider.SignUp(ctx, email, password)
	if err != nil {
		slog.Warn("signup rejected by provider",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return nil, model.NewInvalidCredentialsError()
	}
	if user == nil || user.ID == "" {
		return nil, model.NewInvalidCredentialsError()
	}

	slog.Info("user signed up", slog.String("user_id", user.ID))
	return user, nil
}

// SignIn は資格情報を検証しトークンペアを返す。
// プロバイダーがセッションを返さなかった場合はINVALID_CREDENTIALSに丸める。
func (s *Service) SignIn(ctx context.Context, email, password string) (*model.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, model.NewInvalidCredentialsError()
	}

	session, err := s.provider.SignIn(ctx, email, password)
	if err != nil || session == nil || session.AccessToken == "" {
		if err != nil {
			slog.Warn("signin rejected by provider",
				slog.String("email", email),
				slog.String("error", err.Error()),
			)
		}
		s.recordSignIn("failure")
		return nil, model.NewInvalidCredentialsError()
	}

	s.recordSignIn("success")
	return session, nil
}

// Resolve はBearerトークンを検証済みユーザーに解決する。
// 認証の唯一の手段であり、リクエストごとにプロバイダーへ1回問い合わせる。
func (s *Service) Resolve(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		s.recordResolve("failure")
		return nil, model.NewInvalidTokenError()
	}

	user, err := s.provider.Resolve(ctx, token)
	if err != nil || user == nil || user.ID == "" {
		if err != nil {
			slog.Warn("token resolve failed", slog.String("error", err.Error()))
		}
		s.recordResolve("failure")
		return nil, model.NewInvalidTokenError()
	}

	s.recordResolve("success")
	return user, nil
}

func (s *Service) recordResolve(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordTokenResolve(outcome)
	}
}

func (s *Service) recordSignIn(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordSignIn(outcome)
	}
}
