// ABOUTME: Document model and Backend interface for taskboard persistence
// ABOUTME: Defines User, Board, Task records and the whole-document load/save contract

package store

import (
	"context"
	"errors"
	"time"
)

// ErrStorageUnavailable is returned when the backing medium cannot be read or written.
var ErrStorageUnavailable = errors.New("storage unavailable")

// Priority is the urgency of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// StatusPending is the status every task starts with.
const StatusPending = "pending"

// User is a registered account. PasswordHash is persisted under the "password" key.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Board groups tasks and is owned by a single user.
type Board struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Task is a unit of work on a board.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Completed   bool      `json:"completed"`
	Priority    Priority  `json:"priority"`
	DueDate     *string   `json:"dueDate"`
	BoardID     string    `json:"boardId"`
	UserID      string    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Document is the complete persisted state: three independent collections
// kept in insertion order.
type Document struct {
	Users  []User  `json:"users"`
	Boards []Board `json:"boards"`
	Tasks  []Task  `json:"tasks"`
}

// NewDocument returns a document with three empty collections.
func NewDocument() *Document {
	return &Document{
		Users:  []User{},
		Boards: []Board{},
		Tasks:  []Task{},
	}
}

// normalize replaces nil collections with empty ones so they serialize as [].
func (d *Document) normalize() {
	if d.Users == nil {
		d.Users = []User{}
	}
	if d.Boards == nil {
		d.Boards = []Board{}
	}
	if d.Tasks == nil {
		d.Tasks = []Task{}
	}
}

// Backend is the durable home of the document. Every mutation in the system is
// a Load, an in-memory edit, and a Save of the whole document.
type Backend interface {
	// Load returns the full document, creating an empty one if none exists yet.
	Load(ctx context.Context) (*Document, error)

	// Save replaces the stored document with doc.
	Save(ctx context.Context, doc *Document) error

	// Close releases any resources held by the backend.
	Close() error
}
