package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/hitoshi/taskman/internal/model"
)

// GoTrueConfig はGoTrue互換プロバイダーの設定。
type GoTrueConfig struct {
	// BaseURL はauthエンドポイントのベースURL（例: "https://xyz.supabase.co/auth/v1"）。
	BaseURL string
	// AnonKey は全リクエストのapikeyヘッダーに付与する公開キー。
	AnonKey string
}

// GoTrueProvider はGoTrue互換のREST APIを話すホスト型IDプロバイダーアダプタ。
type GoTrueProvider struct {
	config GoTrueConfig
	client *http.Client
}

// NewGoTrueProvider はGoTrueProviderを生成する。
func NewGoTrueProvider(config GoTrueConfig) *GoTrueProvider {
	return &GoTrueProvider{
		config: config,
		client: http.DefaultClient,
	}
}

// gotrueUser はGoTrueのユーザーレスポンス。
// エンドポイントによりトップレベルまたはuserキー配下で返る。
type gotrueUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type gotrueUserEnvelope struct {
	gotrueUser
	User *gotrueUser `json:"user"`
}

func (e *gotrueUserEnvelope) resolve() *gotrueUser {
	if e.User != nil && e.User.ID != "" {
		return e.User
	}
	return &e.gotrueUser
}

// gotrueTokenResponse はパスワードグラントのレスポンス。
type gotrueTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// SignUp はPOST /signupでユーザーを登録する。
func (p *GoTrueProvider) SignUp(ctx context.Context, email, password string) (*model.User, error) {
	body, err := p.post(ctx, "/signup", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	var envelope gotrueUserEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse signup response: %w", err)
	}

	user := envelope.resolve()
	if user.ID == "" {
		return nil, fmt.Errorf("no user in signup response")
	}

	return &model.User{ID: user.ID, Email: user.Email}, nil
}

// SignIn はPOST /token?grant_type=passwordでトークンペアを取得する。
func (p *GoTrueProvider) SignIn(ctx context.Context, email, password string) (*model.Session, error) {
	body, err := p.post(ctx, "/token?grant_type=password", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	var tokenResp gotrueTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}

	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("no session in token response")
	}

	return &model.Session{
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
	}, nil
}

// Resolve はGET /userでトークンをユーザーに解決する（トークンイントロスペクション）。
func (p *GoTrueProvider) Resolve(ctx context.Context, token string) (*model.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.BaseURL+"/user", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create user request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", p.config.AnonKey)

	body, err := p.do(req)
	if err != nil {
		return nil, err
	}

	var envelope gotrueUserEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse user response: %w", err)
	}

	user := envelope.resolve()
	if user.ID == "" {
		return nil, fmt.Errorf("no user for token")
	}

	return &model.User{ID: user.ID, Email: user.Email}, nil
}

// post はJSONボディをPOSTし、レスポンスボディを返す。
func (p *GoTrueProvider) post(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", p.config.AnonKey)

	return p.do(req)
}

// do はリクエストを実行し、2xx以外をエラーに変換する。リトライは行わない。
func (p *GoTrueProvider) do(req *http.Request) ([]byte, error) {
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read provider response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// compile-time interface check
var _ Provider = (*GoTrueProvider)(nil)
