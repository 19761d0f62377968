// ABOUTME: Debug endpoint dumping the caller's boards, tasks and store counts
// ABOUTME: Only registered when debug.enabled is set

package api

import (
	"net/http"

	"github.com/2389/taskboard/internal/auth"
	"github.com/2389/taskboard/internal/repository"
	"github.com/2389/taskboard/internal/store"
)

type debugResponse struct {
	UserID string           `json:"userId"`
	Stats  repository.Stats `json:"stats"`
	Boards []store.Board    `json:"boards"`
	Tasks  []store.Task     `json:"tasks"`
}

// handleDebug dumps the caller's own boards and tasks with document counts.
// Other users' records are never included.
func (a *API) handleDebug(w http.ResponseWriter, r *http.Request) {
	userID := auth.MustFromContext(r.Context()).UserID
	ctx := r.Context()

	stats, err := a.repo.Stats(ctx)
	if err != nil {
		a.writeRepoError(w, "debug", err)
		return
	}
	boards, err := a.repo.GetBoardsByUserID(ctx, userID)
	if err != nil {
		a.writeRepoError(w, "debug", err)
		return
	}

	tasks := []store.Task{}
	for _, b := range boards {
		bt, err := a.repo.GetTasksByBoardID(ctx, b.ID)
		if err != nil {
			a.writeRepoError(w, "debug", err)
			return
		}
		tasks = append(tasks, bt...)
	}

	writeJSON(w, http.StatusOK, debugResponse{
		UserID: userID,
		Stats:  stats,
		Boards: boards,
		Tasks:  tasks,
	})
}
