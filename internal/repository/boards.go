// ABOUTME: Board operations on the stored document
// ABOUTME: Deleting a board removes its tasks in the same save

package repository

import (
	"context"
	"fmt"

	"github.com/2389/taskboard/internal/store"
)

// NewBoard holds the fields supplied when creating a board.
type NewBoard struct {
	ID     string
	Name   string
	UserID string
}

// BoardPatch lists the board fields to change; nil fields are left alone.
type BoardPatch struct {
	Name *string
}

// CreateBoard appends a board owned by in.UserID. The owner must exist.
func (r *Repository) CreateBoard(ctx context.Context, in NewBoard) (*store.Board, error) {
	board := store.Board{
		ID:        in.ID,
		Name:      in.Name,
		UserID:    in.UserID,
		CreatedAt: r.timestamp(),
	}

	err := r.mutate(ctx, func(doc *store.Document) (bool, error) {
		if indexUser(doc.Users, func(u *store.User) bool { return u.ID == in.UserID }) < 0 {
			return false, fmt.Errorf("creating board %s: %w", in.ID, ErrUnknownUser)
		}
		doc.Boards = append(doc.Boards, board)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return &board, nil
}

// GetBoardsByUserID returns the user's boards in insertion order. The slice is never nil.
func (r *Repository) GetBoardsByUserID(ctx context.Context, userID string) ([]store.Board, error) {
	doc, err := r.view(ctx)
	if err != nil {
		return nil, err
	}

	boards := []store.Board{}
	for _, b := range doc.Boards {
		if b.UserID == userID {
			boards = append(boards, b)
		}
	}
	return boards, nil
}

// GetBoardByID returns the board with the given id, or nil.
func (r *Repository) GetBoardByID(ctx context.Context, id string) (*store.Board, error) {
	doc, err := r.view(ctx)
	if err != nil {
		return nil, err
	}
	i := indexBoard(doc.Boards, id)
	if i < 0 {
		return nil, nil
	}
	board := doc.Boards[i]
	return &board, nil
}

// UpdateBoard applies patch to the board and returns the result, or nil if the board is absent.
func (r *Repository) UpdateBoard(ctx context.Context, id string, patch BoardPatch) (*store.Board, error) {
	var updated *store.Board

	err := r.mutate(ctx, func(doc *store.Document) (bool, error) {
		i := indexBoard(doc.Boards, id)
		if i < 0 {
			return false, nil
		}
		if patch.Name != nil {
			doc.Boards[i].Name = *patch.Name
		}
		board := doc.Boards[i]
		updated = &board
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteBoard removes the board and every task on it in a single save.
// It reports false if the board does not exist.
func (r *Repository) DeleteBoard(ctx context.Context, id string) (bool, error) {
	var deleted bool

	err := r.mutate(ctx, func(doc *store.Document) (bool, error) {
		i := indexBoard(doc.Boards, id)
		if i < 0 {
			return false, nil
		}
		doc.Boards = append(doc.Boards[:i], doc.Boards[i+1:]...)

		kept := doc.Tasks[:0]
		for _, t := range doc.Tasks {
			if t.BoardID != id {
				kept = append(kept, t)
			}
		}
		doc.Tasks = kept

		deleted = true
		return true, nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}
