// Package task はタスクの作成・一覧・更新・削除のビジネスロジックを提供する。
package task

import (
	"context"
	"strings"
	"time"

	"github.com/hitoshi/taskman/internal/model"
	"github.com/hitoshi/taskman/internal/repository"
)

const (
	// defaultListLimit は一覧取得でlimit未指定時に適用される件数。
	defaultListLimit = 50
	// maxListLimit は1回の一覧取得で返す件数の上限。
	maxListLimit = 200
)

// MetricsRecorder はタスク操作のメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordTaskCreated()
	RecordStoreOp(op string, duration time.Duration)
}

// TaskService はタスクCRUDのサービス。
// 全操作が呼び出し元ユーザーのIDでスコープされ、他ユーザーのタスクは
// 存在しないものとして扱われる。
type TaskService struct {
	taskRepo repository.TaskRepository
	metrics  MetricsRecorder
}

// NewTaskService はTaskServiceの新しいインスタンスを生成する。
func NewTaskService(taskRepo repository.TaskRepository, metrics MetricsRecorder) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		metrics:  metrics,
	}
}

// CreateInput はタスク作成の入力。
type CreateInput struct {
	Title      string
	Category   *string
	Deadline   *time.Time
	IsComplete bool
}

// UpdateInput はタスク部分更新の入力。
// JSONボディに現れなかったフィールドはSet=falseのまま残り、変更対象にならない。
type UpdateInput struct {
	Title      model.Patch[string]
	Category   model.Patch[string]
	Deadline   model.Patch[time.Time]
	IsComplete model.Patch[bool]
}

// ListQuery はタスク一覧取得のパラメータ。
type ListQuery struct {
	IsComplete *bool
	Category   string
	Before     *time.Time
	After      *time.Time
	Limit      int
	Offset     int
}

// CreateTask は新しいタスクを作成する。
// 所有者IDはサーバー側で必ず上書きされ、リクエストボディの値は使われない。
func (s *TaskService) CreateTask(ctx context.Context, userID string, input CreateInput) (*model.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, model.NewInvalidRequestError("title is required")
	}

	task := &model.Task{
		UserID:     userID,
		Title:      title,
		Category:   input.Category,
		Deadline:   input.Deadline,
		IsComplete: input.IsComplete,
	}

	start := time.Now()
	created, err := s.taskRepo.Insert(ctx, task)
	s.recordStoreOp("insert", start)
	if err != nil {
		return nil, model.NewCreateFailedError()
	}
	if created == nil {
		return nil, model.NewCreateFailedError()
	}

	if s.metrics != nil {
		s.metrics.RecordTaskCreated()
	}
	return created, nil
}

// ListTasks はユーザーのタスク一覧をフィルタ・ページネーション付きで返す。
// 並び順は締切昇順（NULLが先頭）、同一締切内は作成日時降順で固定される。
func (s *TaskService) ListTasks(ctx context.Context, userID string, query ListQuery) ([]*model.Task, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := query.Offset
	if offset < 0 {
		offset = 0
	}

	start := time.Now()
	tasks, err := s.taskRepo.List(ctx, repository.TaskQuery{
		OwnerID:        userID,
		IsComplete:     query.IsComplete,
		Category:       query.Category,
		DeadlineBefore: query.Before,
		DeadlineAfter:  query.After,
		Limit:          limit,
		Offset:         offset,
	})
	s.recordStoreOp("list", start)
	if err != nil {
		return nil, err
	}

	if tasks == nil {
		tasks = []*model.Task{}
	}
	return tasks, nil
}

// UpdateTask は自分のタスクを部分更新する。
// 更新対象フィールドが1つもない場合はストアに問い合わせる前に拒否する。
// タスクが存在しない場合と他ユーザーの所有だった場合は区別せず
// 同じNotFoundエラーを返す。
func (s *TaskService) UpdateTask(ctx context.Context, userID, taskID string, input UpdateInput) (*model.Task, error) {
	changes, err := buildChanges(input)
	if err != nil {
		return nil, err
	}
	if changes.Empty() {
		return nil, model.NewNothingToUpdateError()
	}

	start := time.Now()
	updated, err := s.taskRepo.UpdateOwned(ctx, userID, taskID, changes)
	s.recordStoreOp("update", start)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, model.NewTaskNotFoundError(taskID)
	}
	return updated, nil
}

// DeleteTask は自分のタスクを削除する。
// 対象が存在しない場合も成功として扱う（冪等）。
func (s *TaskService) DeleteTask(ctx context.Context, userID, taskID string) error {
	start := time.Now()
	err := s.taskRepo.DeleteOwned(ctx, userID, taskID)
	s.recordStoreOp("delete", start)
	return err
}

// buildChanges はUpdateInputをストア向けの変更セットへ変換する。
// titleとis_completeは明示的なnullを受け付けない。categoryとdeadlineの
// nullはNULLへのクリアを意味する。
func buildChanges(input UpdateInput) (repository.TaskChanges, error) {
	var changes repository.TaskChanges

	if input.Title.Set {
		if input.Title.Null {
			return changes, model.NewInvalidRequestError("title cannot be null")
		}
		title := strings.TrimSpace(input.Title.Value)
		if title == "" {
			return changes, model.NewInvalidRequestError("title cannot be empty")
		}
		changes.SetTitle = true
		changes.Title = title
	}

	if input.Category.Set {
		changes.SetCategory = true
		if !input.Category.Null {
			category := input.Category.Value
			changes.Category = &category
		}
	}

	if input.Deadline.Set {
		changes.SetDeadline = true
		if !input.Deadline.Null {
			deadline := input.Deadline.Value
			changes.Deadline = &deadline
		}
	}

	if input.IsComplete.Set {
		if input.IsComplete.Null {
			return changes, model.NewInvalidRequestError("is_complete cannot be null")
		}
		changes.SetIsComplete = true
		changes.IsComplete = input.IsComplete.Value
	}

	return changes, nil
}

func (s *TaskService) recordStoreOp(op string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordStoreOp(op, time.Since(start))
	}
}
