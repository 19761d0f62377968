// ABOUTME: Entity repository for users, boards and tasks over a whole-document Backend
// ABOUTME: Each operation loads the document, edits it in memory and saves it back

package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/2389/taskboard/internal/store"
)

// Reference errors returned when a record would point at something that does not exist.
var (
	ErrUnknownUser  = errors.New("referenced user does not exist")
	ErrUnknownBoard = errors.New("referenced board does not exist")
)

// Option configures a Repository.
type Option func(*Repository)

// WithClock overrides the time source used for createdAt/updatedAt.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		r.now = now
	}
}

// Repository provides typed CRUD over the three collections.
//
// Lookups report absence as a nil record (or false for deletes) with a nil error.
// Errors are reserved for storage failures and creation-time reference checks.
// Ownership is not checked here; callers verify it with the records they read.
type Repository struct {
	backend store.Backend
	now     func() time.Time

	// mu serializes read-modify-write cycles issued through this Repository.
	// Other processes writing the same backend are not coordinated with.
	mu sync.Mutex
}

// New creates a Repository on top of backend.
func New(backend store.Backend, opts ...Option) *Repository {
	r := &Repository{
		backend: backend,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// timestamp returns the current time in UTC.
func (r *Repository) timestamp() time.Time {
	return r.now().UTC()
}

// view loads the document for a read-only operation.
func (r *Repository) view(ctx context.Context) (*store.Document, error) {
	return r.backend.Load(ctx)
}

// mutate runs fn against a freshly loaded document and saves it if fn reports a change.
func (r *Repository) mutate(ctx context.Context, fn func(doc *store.Document) (changed bool, err error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.backend.Load(ctx)
	if err != nil {
		return err
	}

	changed, err := fn(doc)
	if err != nil || !changed {
		return err
	}

	return r.backend.Save(ctx, doc)
}

// Stats returns the number of records in each collection.
func (r *Repository) Stats(ctx context.Context) (Stats, error) {
	doc, err := r.view(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Users:  len(doc.Users),
		Boards: len(doc.Boards),
		Tasks:  len(doc.Tasks),
	}, nil
}

// Stats holds collection sizes.
type Stats struct {
	Users  int `json:"users"`
	Boards int `json:"boards"`
	Tasks  int `json:"tasks"`
}

func indexUser(users []store.User, match func(*store.User) bool) int {
	for i := range users {
		if match(&users[i]) {
			return i
		}
	}
	return -1
}

func indexBoard(boards []store.Board, id string) int {
	for i := range boards {
		if boards[i].ID == id {
			return i
		}
	}
	return -1
}

func indexTask(tasks []store.Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}
