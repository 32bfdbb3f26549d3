package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/taskman/internal/middleware"
	"github.com/hitoshi/taskman/internal/model"
	"github.com/hitoshi/taskman/internal/task"
)

// TaskServiceInterface はタスクハンドラーが必要とするサービスインターフェース。
type TaskServiceInterface interface {
	CreateTask(ctx context.Context, userID string, input task.CreateInput) (*model.Task, error)
	ListTasks(ctx context.Context, userID string, query task.ListQuery) ([]*model.Task, error)
	UpdateTask(ctx context.Context, userID, taskID string, input task.UpdateInput) (*model.Task, error)
	DeleteTask(ctx context.Context, userID, taskID string) error
}

// TaskHandler はタスク管理のHTTPハンドラー。
type TaskHandler struct {
	service TaskServiceInterface
}

// NewTaskHandler はTaskHandlerを生成する。
func NewTaskHandler(service TaskServiceInterface) *TaskHandler {
	return &TaskHandler{service: service}
}

// createTaskRequest はタスク作成リクエストのボディ。
// user_idはサーバー側で決定するため、ボディに含まれていても無視される。
type createTaskRequest struct {
	Title      string     `json:"title"`
	Category   *string    `json:"category"`
	Deadline   *time.Time `json:"deadline"`
	IsComplete bool       `json:"is_complete"`
}

// updateTaskRequest はタスク部分更新リクエストのボディ。
// フィールドの未指定と明示的なnullを区別する。
type updateTaskRequest struct {
	Title      model.Patch[string]    `json:"title"`
	Category   model.Patch[string]    `json:"category"`
	Deadline   model.Patch[time.Time] `json:"deadline"`
	IsComplete model.Patch[bool]      `json:"is_complete"`
}

// deleteTaskResponse はタスク削除の成功レスポンス。
type deleteTaskResponse struct {
	Status string `json:"status"`
}

// Create は新しいタスクを作成する。
// POST /tasks
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewInvalidTokenError())
		return
	}

	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("invalid JSON body"))
		return
	}

	created, err := h.service.CreateTask(r.Context(), userID, task.CreateInput{
		Title:      req.Title,
		Category:   req.Category,
		Deadline:   req.Deadline,
		IsComplete: req.IsComplete,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, created)
}

// List はタスク一覧をフィルタ・ページネーション付きで返す。
// GET /tasks
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewInvalidTokenError())
		return
	}

	query, apiErr := parseListQuery(r)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	tasks, err := h.service.ListTasks(r.Context(), userID, query)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

// Update は自分のタスクを部分更新する。
// PUT /tasks/{id}
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewInvalidTokenError())
		return
	}

	taskID := chi.URLParam(r, "id")

	var req updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("invalid JSON body"))
		return
	}

	updated, err := h.service.UpdateTask(r.Context(), userID, taskID, task.UpdateInput{
		Title:      req.Title,
		Category:   req.Category,
		Deadline:   req.Deadline,
		IsComplete: req.IsComplete,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// Delete は自分のタスクを削除する。対象が存在しなくても成功を返す。
// DELETE /tasks/{id}
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewInvalidTokenError())
		return
	}

	taskID := chi.URLParam(r, "id")

	if err := h.service.DeleteTask(r.Context(), userID, taskID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, deleteTaskResponse{Status: "deleted"})
}

// parseListQuery はクエリパラメータをListQueryに変換する。
// 解釈できないパラメータはエラーとして拒否する。
func parseListQuery(r *http.Request) (task.ListQuery, *model.APIError) {
	var query task.ListQuery
	params := r.URL.Query()

	if raw := params.Get("is_complete"); raw != "" {
		value, ok := parseBoolParam(raw)
		if !ok {
			return query, model.NewInvalidRequestError("is_complete must be true, false, 1 or 0")
		}
		query.IsComplete = &value
	}

	query.Category = params.Get("category")

	if raw := params.Get("before"); raw != "" {
		parsed, err := parseTimeParam(raw)
		if err != nil {
			return query, model.NewInvalidRequestError("before must be an RFC3339 timestamp or a date")
		}
		query.Before = &parsed
	}

	if raw := params.Get("after"); raw != "" {
		parsed, err := parseTimeParam(raw)
		if err != nil {
			return query, model.NewInvalidRequestError("after must be an RFC3339 timestamp or a date")
		}
		query.After = &parsed
	}

	if raw := params.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return query, model.NewInvalidRequestError("limit must be an integer")
		}
		query.Limit = limit
	}

	if raw := params.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			return query, model.NewInvalidRequestError("offset must be an integer")
		}
		query.Offset = offset
	}

	return query, nil
}

// parseTimeParam はbefore/afterフィルタの値を解釈する。
// RFC3339形式に加えて日付のみ(2006-01-02)も受け付け、その場合はUTCの0時とみなす。
func parseTimeParam(raw string) (time.Time, error) {
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed, nil
	}
	return time.Parse("2006-01-02", raw)
}

// parseBoolParam はis_completeフィルタの値を厳密に解釈する。
func parseBoolParam(raw string) (bool, bool) {
	switch raw {
	case "true", "1":
		return true, true
	case "false", "0":
		return false, true
	default:
		return false, false
	}
}

// --- ヘルパー関数 ---

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	writeJSON(w, statusCode, apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidCredentials:
		return http.StatusBadRequest
	case model.ErrCodeInvalidToken:
		return http.StatusUnauthorized
	case model.ErrCodeCreateFailed, model.ErrCodeNothingToUpdate, model.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case model.ErrCodeTaskNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
