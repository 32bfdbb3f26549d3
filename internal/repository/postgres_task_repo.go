package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/hitoshi/taskman/internal/model"
)

// taskColumns はSELECT/RETURNINGで取得するカラムの並び。
const taskColumns = "id, user_id, title, category, deadline, is_complete, created_at, updated_at"

// PostgresTaskRepo はPostgreSQLを使用したタスクリポジトリ。
type PostgresTaskRepo struct {
	db *sql.DB
}

// NewPostgresTaskRepo はPostgresTaskRepoを生成する。
func NewPostgresTaskRepo(db *sql.DB) *PostgresTaskRepo {
	return &PostgresTaskRepo{db: db}
}

// Insert はタスクを作成し、ストアがID・タイムスタンプを割り当てた行を返す。
func (r *PostgresTaskRepo) Insert(ctx context.Context, task *model.Task) (*model.Task, error) {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO tasks (id, user_id, title, category, deadline, is_complete)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+taskColumns,
		uuid.New().String(), task.UserID, task.Title, task.Category, task.Deadline, task.IsComplete,
	)

	created, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}
	return created, nil
}

// List はクエリ仕様に従いタスク一覧を返す。
func (r *PostgresTaskRepo) List(ctx context.Context, q TaskQuery) ([]*model.Task, error) {
	query, args := buildListQuery(q)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*model.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	return tasks, nil
}

// UpdateOwned はid・所有者の両方が一致する行のみを部分更新し、更新後の行を返す。
// 一致する行がない場合は(nil, nil)を返す。
func (r *PostgresTaskRepo) UpdateOwned(ctx context.Context, ownerID, taskID string, changes TaskChanges) (*model.Task, error) {
	query, args := buildUpdateQuery(ownerID, taskID, changes)

	row := r.db.QueryRowContext(ctx, query, args...)

	updated, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return updated, nil
}

// DeleteOwned はid・所有者の両方が一致する行を削除する。一致0行でも成功とする。
func (r *PostgresTaskRepo) DeleteOwned(ctx context.Context, ownerID, taskID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = $1 AND user_id = $2`,
		taskID, ownerID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// scanner はsql.Rowとsql.Rowsの共通スキャンインターフェース。
type scanner interface {
	Scan(dest ...any) error
}

// scanTask は1行分のタスクカラムをスキャンする。
func scanTask(s scanner) (*model.Task, error) {
	task := &model.Task{}
	err := s.Scan(
		&task.ID, &task.UserID, &task.Title, &task.Category,
		&task.Deadline, &task.IsComplete, &task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// buildListQuery はTaskQueryからSELECT文とプレースホルダ引数を構築する。
// WHERE句は常にuser_idで始まり、指定されたフィルタのみが追加される。
func buildListQuery(q TaskQuery) (string, []any) {
	var sb strings.Builder
	args := []any{q.OwnerID}

	sb.WriteString("SELECT " + taskColumns + " FROM tasks WHERE user_id = $1")

	if q.IsComplete != nil {
		args = append(args, *q.IsComplete)
		sb.WriteString(" AND is_complete = $" + strconv.Itoa(len(args)))
	}
	if q.Category != "" {
		args = append(args, q.Category)
		sb.WriteString(" AND category = $" + strconv.Itoa(len(args)))
	}
	if q.DeadlineBefore != nil {
		args = append(args, *q.DeadlineBefore)
		sb.WriteString(" AND deadline <= $" + strconv.Itoa(len(args)))
	}
	if q.DeadlineAfter != nil {
		args = append(args, *q.DeadlineAfter)
		sb.WriteString(" AND deadline >= $" + strconv.Itoa(len(args)))
	}

	sb.WriteString(" ORDER BY deadline ASC NULLS FIRST, created_at DESC")

	args = append(args, q.Limit)
	sb.WriteString(" LIMIT $" + strconv.Itoa(len(args)))

	// オフセット指定時は[Offset, Offset+Limit-1]の範囲取得
	if q.Offset > 0 {
		args = append(args, q.Offset)
		sb.WriteString(" OFFSET $" + strconv.Itoa(len(args)))
	}

	return sb.String(), args
}

// buildUpdateQuery はTaskChangesからUPDATE文とプレースホルダ引数を構築する。
// updated_atは常にストア側の現在時刻で更新される。
func buildUpdateQuery(ownerID, taskID string, changes TaskChanges) (string, []any) {
	sets := []string{}
	args := []any{}

	appendSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}

	if changes.SetTitle {
		appendSet("title", changes.Title)
	}
	if changes.SetCategory {
		appendSet("category", changes.Category)
	}
	if changes.SetDeadline {
		appendSet("deadline", changes.Deadline)
	}
	if changes.SetIsComplete {
		appendSet("is_complete", changes.IsComplete)
	}
	sets = append(sets, "updated_at = now()")

	args = append(args, taskID)
	idPos := len(args)
	args = append(args, ownerID)
	ownerPos := len(args)

	query := fmt.Sprintf(
		"UPDATE tasks SET %s WHERE id = $%d AND user_id = $%d RETURNING %s",
		strings.Join(sets, ", "), idPos, ownerPos, taskColumns,
	)

	return query, args
}

// compile-time interface check
var _ TaskRepository = (*PostgresTaskRepo)(nil)
