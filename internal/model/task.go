package model

import "time"

// Task はユーザーが管理するタスクを表す。
// UserIDは作成時に認証済みユーザーから設定され、以後変更されない。
type Task struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Title      string     `json:"title"`
	Category   *string    `json:"category"`
	Deadline   *time.Time `json:"deadline"`
	IsComplete bool       `json:"is_complete"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
