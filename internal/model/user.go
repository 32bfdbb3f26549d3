package model

import "time"

// User は外部IDプロバイダーが管理するユーザーを表す。
// ローカルには永続化せず、タスクの所有者キーとしてIDのみを参照する。
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session はサインイン成功時にプロバイダーが発行するトークンペアを表す。
// 有効期限や失効の管理はプロバイダー側の責務であり、サーバーには保存しない。
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Account は組み込みIDプロバイダー使用時のみ利用するアカウントレコード。
// ホスト型プロバイダー（GoTrue等）使用時はテーブル自体を使用しない。
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
