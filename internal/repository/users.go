// ABOUTME: User operations on the stored document
// ABOUTME: Lookups return nil when no user matches

package repository

import (
	"context"

	"github.com/2389/taskboard/internal/store"
)

// NewUser holds the fields supplied when registering a user.
// ID is generated by the caller; PasswordHash is already hashed.
type NewUser struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
}

// CreateUser appends a user and returns the stored record.
// Email uniqueness is checked by the caller before calling.
func (r *Repository) CreateUser(ctx context.Context, in NewUser) (*store.User, error) {
	user := store.User{
		ID:           in.ID,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		Name:         in.Name,
		CreatedAt:    r.timestamp(),
	}

	err := r.mutate(ctx, func(doc *store.Document) (bool, error) {
		doc.Users = append(doc.Users, user)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindUserByEmail returns the first user whose email matches exactly, or nil.
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*store.User, error) {
	return r.findUser(ctx, func(u *store.User) bool { return u.Email == email })
}

// FindUserByID returns the user with the given id, or nil.
func (r *Repository) FindUserByID(ctx context.Context, id string) (*store.User, error) {
	return r.findUser(ctx, func(u *store.User) bool { return u.ID == id })
}

func (r *Repository) findUser(ctx context.Context, match func(*store.User) bool) (*store.User, error) {
	doc, err := r.view(ctx)
	if err != nil {
		return nil, err
	}
	i := indexUser(doc.Users, match)
	if i < 0 {
		return nil, nil
	}
	user := doc.Users[i]
	return &user, nil
}
