// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hitoshi/taskman/internal/model"
)

// ErrDuplicateEmail は同一メールアドレスのアカウントが既に存在する場合に返される。
var ErrDuplicateEmail = errors.New("account email already exists")

// TaskQuery はタスク一覧取得のクエリ仕様を表す。
// フィルタ・順序・ページネーションを1つの値にまとめ、実行メソッドに1回で渡す。
// OwnerIDは必須で、全アクセスがこのテナントキーでスコープされる。
type TaskQuery struct {
	OwnerID string

	// フィルタ（すべて任意、独立に組み合わせ可能）
	IsComplete     *bool
	Category       string     // 空文字は未指定
	DeadlineBefore *time.Time // deadline <= DeadlineBefore（境界含む）
	DeadlineAfter  *time.Time // deadline >= DeadlineAfter（境界含む）

	// ページネーション。Offsetが0より大きい場合は[Offset, Offset+Limit-1]の
	// 範囲取得になり、0の場合は先頭からLimit件を返す。
	Limit  int
	Offset int
}

// TaskChanges は部分更新で変更するカラムの集合を表す。
// Setフラグがfalseのカラムは変更されない。CategoryとDeadlineは
// Setフラグがtrueかつ値がnilの場合にNULLへクリアされる。
type TaskChanges struct {
	SetTitle bool
	Title    string

	SetCategory bool
	Category    *string

	SetDeadline bool
	Deadline    *time.Time

	SetIsComplete bool
	IsComplete    bool
}

// Empty は変更対象のカラムが1つもないかどうかを返す。
func (c TaskChanges) Empty() bool {
	return !c.SetTitle && !c.SetCategory && !c.SetDeadline && !c.SetIsComplete
}

// TaskRepository はタスクデータの永続化インターフェース。
// すべての読み書きは所有者IDでスコープされる。
type TaskRepository interface {
	// Insert はタスクを作成し、ストアがID・タイムスタンプを割り当てた行を返す。
	// 行が得られなかった場合はnilを返す。
	Insert(ctx context.Context, task *model.Task) (*model.Task, error)

	// List はクエリ仕様に従いタスク一覧を返す。
	// 順序: deadline昇順（NULLが先頭）、同値はcreated_at降順。
	List(ctx context.Context, q TaskQuery) ([]*model.Task, error)

	// UpdateOwned はid・所有者の両方が一致する行のみを部分更新し、更新後の行を返す。
	// 一致する行がない場合は(nil, nil)を返す。
	UpdateOwned(ctx context.Context, ownerID, taskID string, changes TaskChanges) (*model.Task, error)

	// DeleteOwned はid・所有者の両方が一致する行を削除する。
	// 一致する行がなくてもエラーにしない（冪等）。
	DeleteOwned(ctx context.Context, ownerID, taskID string) error
}

// AccountRepository は組み込みIDプロバイダー用アカウントの永続化インターフェース。
type AccountRepository interface {
	// Create はアカウントを作成する。メールアドレス重複時はErrDuplicateEmailを返す。
	Create(ctx context.Context, account *model.Account) error

	// FindByEmail はメールアドレスでアカウントを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.Account, error)
}
