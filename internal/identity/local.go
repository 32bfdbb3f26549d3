package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/taskman/internal/model"
	"github.com/hitoshi/taskman/internal/repository"
)

// minPasswordLength は組み込みプロバイダーが受け付けるパスワードの最小長。
const minPasswordLength = 8

// LocalConfig は組み込みIDプロバイダーの設定。
type LocalConfig struct {
	// Secret はHS256署名に使う共有鍵。
	Secret string
	// TokenTTL はアクセストークンの有効期間。
	TokenTTL time.Duration
}

// LocalProvider はaccountsテーブルとJWTによる組み込みIDプロバイダー。
// 外部サービスなしで動かす開発・セルフホスト構成向け。
type LocalProvider struct {
	accounts repository.AccountRepository
	config   LocalConfig
	now      func() time.Time
}

// NewLocalProvider はLocalProviderを生成する。
func NewLocalProvider(accounts repository.AccountRepository, config LocalConfig) *LocalProvider {
	return &LocalProvider{
		accounts: accounts,
		config:   config,
		now:      time.Now,
	}
}

// SignUp はパスワードをbcryptでハッシュ化しアカウントを作成する。
// メールアドレス重複・パスワード不足はエラーを返す。
func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (*model.User, error) {
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &model.Account{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
	}

	if err := p.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return &model.User{ID: account.ID, Email: account.Email}, nil
}

// SignIn は資格情報を検証し、署名付きアクセストークンとリフレッシュトークンを発行する。
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*model.Session, error) {
	account, err := p.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	if account == nil {
		return nil, fmt.Errorf("unknown email")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("password mismatch")
	}

	accessToken, err := p.signToken(account)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	refreshToken, err := generateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &model.Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Resolve はアクセストークンの署名と有効期限を検証し、クレームからユーザーを復元する。
// サーバー側に状態を持たないため、DBへの問い合わせは発生しない。
func (p *LocalProvider) Resolve(ctx context.Context, token string) (*model.User, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(p.config.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("missing sub claim")
	}
	email, _ := claims["email"].(string)

	return &model.User{ID: sub, Email: email}, nil
}

// signToken はアカウントに対するHS256アクセストークンを発行する。
func (p *LocalProvider) signToken(account *model.Account) (string, error) {
	now := p.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   account.ID,
		"email": account.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(p.config.TokenTTL).Unix(),
	})
	return token.SignedString([]byte(p.config.Secret))
}

// generateRefreshToken は暗号的に安全なランダムトークンを生成する。
func generateRefreshToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// compile-time interface check
var _ Provider = (*LocalProvider)(nil)
