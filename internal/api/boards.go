// ABOUTME: Board handlers: list, create, rename and delete the caller's boards
// ABOUTME: Ownership is checked here; the repository only reports absence

package api

import (
	"net/http"
	"strings"

	"github.com/2389/taskboard/internal/auth"
	"github.com/2389/taskboard/internal/repository"
)

type boardRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (a *API) handleListBoards(w http.ResponseWriter, r *http.Request) {
	userID := auth.MustFromContext(r.Context()).UserID

	boards, err := a.repo.GetBoardsByUserID(r.Context(), userID)
	if err != nil {
		a.writeRepoError(w, "list boards", err)
		return
	}
	writeJSON(w, http.StatusOK, boards)
}

func (a *API) handleCreateBoard(w http.ResponseWriter, r *http.Request) {
	userID := auth.MustFromContext(r.Context()).UserID

	var req boardRequest
	if err := decodeBody(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "Board name is required")
		return
	}

	claim, ok := a.claimIdempotencyKey(w, r, userID)
	if !ok {
		return
	}
	defer claim.releaseUnlessKept()

	board, err := a.repo.CreateBoard(r.Context(), repository.NewBoard{
		ID:     a.newID(),
		Name:   name,
		UserID: userID,
	})
	if err != nil {
		a.writeRepoError(w, "create board", err)
		return
	}

	claim.keep()
	writeJSON(w, http.StatusCreated, board)
}

func (a *API) handleUpdateBoard(w http.ResponseWriter, r *http.Request) {
	userID := auth.MustFromContext(r.Context()).UserID

	var req boardRequest
	if err := decodeBody(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	name := strings.TrimSpace(req.Name)
	if req.ID == "" || name == "" {
		writeError(w, http.StatusBadRequest, "Board ID and name are required")
		return
	}

	board, err := a.repo.GetBoardByID(r.Context(), req.ID)
	if err != nil {
		a.writeRepoError(w, "update board", err)
		return
	}
	if board == nil {
		writeError(w, http.StatusNotFound, "Board not found")
		return
	}
	if board.UserID != userID {
		writeError(w, http.StatusForbidden, "Unauthorized")
		return
	}

	updated, err := a.repo.UpdateBoard(r.Context(), req.ID, repository.BoardPatch{Name: &name})
	if err != nil {
		a.writeRepoError(w, "update board", err)
		return
	}
	if updated == nil {
		writeError(w, http.StatusNotFound, "Board not found")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) handleDeleteBoard(w http.ResponseWriter, r *http.Request) {
	userID := auth.MustFromContext(r.Context()).UserID

	var req boardRequest
	if err := decodeBody(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "Board ID is required")
		return
	}

	board, err := a.repo.GetBoardByID(r.Context(), req.ID)
	if err != nil {
		a.writeRepoError(w, "delete board", err)
		return
	}
	if board == nil {
		writeError(w, http.StatusNotFound, "Board not found")
		return
	}
	if board.UserID != userID {
		writeError(w, http.StatusForbidden, "Unauthorized")
		return
	}

	deleted, err := a.repo.DeleteBoard(r.Context(), req.ID)
	if err != nil {
		a.writeRepoError(w, "delete board", err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "Board not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Board deleted successfully"})
}
