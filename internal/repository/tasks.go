// ABOUTME: Task operations on the stored document
// ABOUTME: Partial updates stamp updatedAt so it strictly increases

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/2389/taskboard/internal/store"
)

// NewTask holds the fields supplied when creating a task.
// Zero values are replaced with defaults: status "pending", priority "medium".
// Description defaults to "" and DueDate to null.
type NewTask struct {
	ID          string
	Title       string
	Description string
	Status      string
	Completed   bool
	Priority    store.Priority
	DueDate     *string
	BoardID     string
	UserID      string
}

// TaskPatch lists the task fields to change; nil fields are left alone.
// DueDate is applied only when SetDueDate is true, so it can be cleared with a nil value.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *string
	Completed   *bool
	Priority    *store.Priority
	DueDate     *string
	SetDueDate  bool
}

// CreateTask appends a task to an existing board and returns the stored record.
func (r *Repository) CreateTask(ctx context.Context, in NewTask) (*store.Task, error) {
	now := r.timestamp()
	task := store.Task{
		ID:          in.ID,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Completed:   in.Completed,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		BoardID:     in.BoardID,
		UserID:      in.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if task.Status == "" {
		task.Status = store.StatusPending
	}
	if task.Priority == "" {
		task.Priority = store.PriorityMedium
	}

	err := r.mutate(ctx, func(doc *store.Document) (bool, error) {
		if indexUser(doc.Users, func(u *store.User) bool { return u.ID == in.UserID }) < 0 {
			return false, fmt.Errorf("creating task %s: %w", in.ID, ErrUnknownUser)
		}
		if indexBoard(doc.Boards, in.BoardID) < 0 {
			return false, fmt.Errorf("creating task %s: %w", in.ID, ErrUnknownBoard)
		}
		doc.Tasks = append(doc.Tasks, task)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// GetTasksByBoardID returns the board's tasks in insertion order. The slice is never nil.
func (r *Repository) GetTasksByBoardID(ctx context.Context, boardID string) ([]store.Task, error) {
	doc, err := r.view(ctx)
	if err != nil {
		return nil, err
	}

	tasks := []store.Task{}
	for _, t := range doc.Tasks {
		if t.BoardID == boardID {
			tasks = append(tasks, t)
		}
	}
	return tasks, nil
}

// GetTaskByID returns the task with the given id, or nil.
func (r *Repository) GetTaskByID(ctx context.Context, id string) (*store.Task, error) {
	doc, err := r.view(ctx)
	if err != nil {
		return nil, err
	}
	i := indexTask(doc.Tasks, id)
	if i < 0 {
		return nil, nil
	}
	task := doc.Tasks[i]
	return &task, nil
}

// UpdateTask merges patch into the task, stamps updatedAt and returns the result.
// It returns nil if the task does not exist.
func (r *Repository) UpdateTask(ctx context.Context, id string, patch TaskPatch) (*store.Task, error) {
	var updated *store.Task

	err := r.mutate(ctx, func(doc *store.Document) (bool, error) {
		i := indexTask(doc.Tasks, id)
		if i < 0 {
			return false, nil
		}
		t := &doc.Tasks[i]

		if patch.Title != nil {
			t.Title = *patch.Title
		}
		if patch.Description != nil {
			t.Description = *patch.Description
		}
		if patch.Status != nil {
			t.Status = *patch.Status
		}
		if patch.Completed != nil {
			t.Completed = *patch.Completed
		}
		if patch.Priority != nil {
			t.Priority = *patch.Priority
		}
		if patch.SetDueDate {
			t.DueDate = patch.DueDate
		}
		t.UpdatedAt = nextUpdate(t.UpdatedAt, r.timestamp())

		task := *t
		updated = &task
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteTask removes the task, reporting false if it does not exist.
func (r *Repository) DeleteTask(ctx context.Context, id string) (bool, error) {
	var deleted bool

	err := r.mutate(ctx, func(doc *store.Document) (bool, error) {
		i := indexTask(doc.Tasks, id)
		if i < 0 {
			return false, nil
		}
		doc.Tasks = append(doc.Tasks[:i], doc.Tasks[i+1:]...)
		deleted = true
		return true, nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// nextUpdate returns now, or prev+1ns when the clock has not moved past prev.
func nextUpdate(prev, now time.Time) time.Time {
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Nanosecond)
}
