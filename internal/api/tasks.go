// ABOUTME: Task handlers: list, create, partial update and delete
// ABOUTME: Tasks are reached through boards the caller owns

package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/2389/taskboard/internal/auth"
	"github.com/2389/taskboard/internal/repository"
	"github.com/2389/taskboard/internal/store"
)

type createTaskRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	DueDate     *string `json:"dueDate"`
	BoardID     string  `json:"boardId"`
	Priority    string  `json:"priority"`
}

// updateTaskRequest leaves absent fields nil. DueDate stays raw so that an
// explicit null can be told apart from an omitted key.
type updateTaskRequest struct {
	ID          string          `json:"id"`
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Status      *string         `json:"status"`
	Completed   *bool           `json:"completed"`
	Priority    *string         `json:"priority"`
	DueDate     json.RawMessage `json:"dueDate"`
}

type deleteTaskRequest struct {
	ID string `json:"id"`
}

const msgBadPriority = "Priority must be one of low, medium, high"

// normalizeDueDate maps an empty due date to null.
func normalizeDueDate(d *string) *string {
	if d == nil || strings.TrimSpace(*d) == "" {
		return nil
	}
	return d
}

// ownedBoard loads a board and checks the caller owns it, writing the error
// response when not. It returns nil if the handler should stop.
func (a *API) ownedBoard(w http.ResponseWriter, r *http.Request, op, boardID, userID string) *store.Board {
	board, err := a.repo.GetBoardByID(r.Context(), boardID)
	if err != nil {
		a.writeRepoError(w, op, err)
		return nil
	}
	if board == nil {
		writeError(w, http.StatusNotFound, "Board not found")
		return nil
	}
	if board.UserID != userID {
		writeError(w, http.StatusForbidden, "Unauthorized")
		return nil
	}
	return board
}

// ownedTask is ownedBoard for tasks.
func (a *API) ownedTask(w http.ResponseWriter, r *http.Request, op, taskID, userID string) *store.Task {
	task, err := a.repo.GetTaskByID(r.Context(), taskID)
	if err != nil {
		a.writeRepoError(w, op, err)
		return nil
	}
	if task == nil {
		writeError(w, http.StatusNotFound, "Task not found")
		return nil
	}
	if task.UserID != userID {
		writeError(w, http.StatusForbidden, "Unauthorized")
		return nil
	}
	return task
}

func (a *API) handleListTasks(w http.ResponseWriter, r *http.Request) {
	userID := auth.MustFromContext(r.Context()).UserID

	boardID := r.URL.Query().Get("boardId")
	if boardID == "" {
		writeError(w, http.StatusBadRequest, "Board ID is required")
		return
	}
	if a.ownedBoard(w, r, "list tasks", boardID, userID) == nil {
		return
	}

	tasks, err := a.repo.GetTasksByBoardID(r.Context(), boardID)
	if err != nil {
		a.writeRepoError(w, "list tasks", err)
		return
	}

	if r.URL.Query().Get("format") == "html" {
		views, err := a.renderTasks(tasks)
		if err != nil {
			a.logger.Error("rendering task descriptions failed", "board_id", boardID, "error", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		writeJSON(w, http.StatusOK, views)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (a *API) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	userID := auth.MustFromContext(r.Context()).UserID

	var req createTaskRequest
	if err := decodeBody(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		writeError(w, http.StatusBadRequest, "Task title is required")
		return
	}
	if req.BoardID == "" {
		writeError(w, http.StatusBadRequest, "Board ID is required")
		return
	}
	priority := store.Priority(req.Priority)
	if priority != "" && !priority.Valid() {
		writeError(w, http.StatusBadRequest, msgBadPriority)
		return
	}

	if a.ownedBoard(w, r, "create task", req.BoardID, userID) == nil {
		return
	}

	claim, ok := a.claimIdempotencyKey(w, r, userID)
	if !ok {
		return
	}
	defer claim.releaseUnlessKept()

	task, err := a.repo.CreateTask(r.Context(), repository.NewTask{
		ID:          a.newID(),
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Priority:    priority,
		DueDate:     normalizeDueDate(req.DueDate),
		BoardID:     req.BoardID,
		UserID:      userID,
	})
	if err != nil {
		a.writeRepoError(w, "create task", err)
		return
	}

	claim.keep()
	writeJSON(w, http.StatusCreated, task)
}

func (a *API) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	userID := auth.MustFromContext(r.Context()).UserID

	var req updateTaskRequest
	if err := decodeBody(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "Task ID is required")
		return
	}

	patch, msg := buildTaskPatch(req)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if a.ownedTask(w, r, "update task", req.ID, userID) == nil {
		return
	}

	updated, err := a.repo.UpdateTask(r.Context(), req.ID, patch)
	if err != nil {
		a.writeRepoError(w, "update task", err)
		return
	}
	if updated == nil {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// buildTaskPatch converts a request into a sparse patch. It returns a
// client-facing message when a supplied field is invalid.
func buildTaskPatch(req updateTaskRequest) (repository.TaskPatch, string) {
	var patch repository.TaskPatch

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return patch, "Task title is required"
		}
		patch.Title = &title
	}
	if req.Description != nil {
		desc := strings.TrimSpace(*req.Description)
		patch.Description = &desc
	}
	patch.Status = req.Status
	patch.Completed = req.Completed
	if req.Priority != nil {
		p := store.Priority(*req.Priority)
		if !p.Valid() {
			return patch, msgBadPriority
		}
		patch.Priority = &p
	}

	if len(req.DueDate) > 0 {
		patch.SetDueDate = true
		if !bytes.Equal(req.DueDate, []byte("null")) {
			var due string
			if err := json.Unmarshal(req.DueDate, &due); err != nil {
				return patch, "Due date must be a string or null"
			}
			patch.DueDate = normalizeDueDate(&due)
		}
	}

	return patch, ""
}

func (a *API) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	userID := auth.MustFromContext(r.Context()).UserID

	var req deleteTaskRequest
	if err := decodeBody(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "Task ID is required")
		return
	}

	if a.ownedTask(w, r, "delete task", req.ID, userID) == nil {
		return
	}

	deleted, err := a.repo.DeleteTask(r.Context(), req.ID)
	if err != nil {
		a.writeRepoError(w, "delete task", err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted successfully"})
}
