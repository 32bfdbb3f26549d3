// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, task, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeInvalidToken       = "INVALID_TOKEN"
	ErrCodeCreateFailed       = "CREATE_FAILED"
	ErrCodeNothingToUpdate    = "NOTHING_TO_UPDATE"
	ErrCodeTaskNotFound       = "TASK_NOT_FOUND"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
)

// NewInvalidCredentialsError はサインアップ/サインインがプロバイダーに拒否された場合のエラーを生成する。
// 重複メール・脆弱なパスワード・認証失敗のいずれも同じコードに丸め、詳細を漏らさない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが受け付けられませんでした。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewInvalidTokenError はBearerトークンが欠落・不正・期限切れの場合のエラーを生成する。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidToken,
		Message:  "トークンが無効または期限切れです。",
		Category: "auth",
		Action:   "サインインし直してください。",
	}
}

// NewCreateFailedError はストアがINSERT結果の行を返さなかった場合のエラーを生成する。
func NewCreateFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeCreateFailed,
		Message:  "タスクの作成に失敗しました。",
		Category: "task",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewNothingToUpdateError は更新フィールドが1つも指定されていない場合のエラーを生成する。
// ストアへの問い合わせ前に検出される。
func NewNothingToUpdateError() *APIError {
	return &APIError{
		Code:     ErrCodeNothingToUpdate,
		Message:  "更新するフィールドが指定されていません。",
		Category: "validation",
		Action:   "title、category、deadline、is_completeのいずれかを指定してください。",
	}
}

// NewTaskNotFoundError はタスクが存在しないか、他ユーザーの所有である場合のエラーを生成する。
// 両者を区別しないことで、他ユーザーのタスクの存在を推測できないようにする。
func NewTaskNotFoundError(taskID string) *APIError {
	return &APIError{
		Code:     ErrCodeTaskNotFound,
		Message:  fmt.Sprintf("指定されたタスクが見つかりません: %s", taskID),
		Category: "task",
		Action:   "タスクIDを確認してください。",
	}
}

// NewInvalidRequestError はリクエストの形式が不正な場合のエラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが不正です: %s", reason),
		Category: "validation",
		Action:   "リクエストの形式を確認してください。",
	}
}
