// ABOUTME: Register and login handlers issuing bearer tokens
// ABOUTME: Email format and password length checks live here

package api

import (
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/2389/taskboard/internal/auth"
	"github.com/2389/taskboard/internal/repository"
	"github.com/2389/taskboard/internal/store"
)

// MinPasswordLength is the shortest accepted password, in characters.
const MinPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether email is accepted by register and login.
// The address is matched as given, without trimming.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userView is a user without the password hash.
type userView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type authResponse struct {
	User  userView `json:"user"`
	Token string   `json:"token"`
}

func viewUser(u *store.User) userView {
	return userView{ID: u.ID, Email: u.Email, Name: u.Name, CreatedAt: u.CreatedAt}
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Name, email, and password are required")
		return
	}
	if !ValidEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "Please enter a valid email address")
		return
	}
	if utf8.RuneCountInString(req.Password) < MinPasswordLength {
		writeError(w, http.StatusBadRequest, "Password must be at least 6 characters long")
		return
	}
	if len(req.Password) > auth.MaxPasswordBytes {
		writeError(w, http.StatusBadRequest, "Password must be at most 72 bytes long")
		return
	}

	hash, err := a.hasher.Hash(req.Password)
	if err != nil {
		a.logger.Error("hashing password failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	a.registerMu.Lock()
	existing, err := a.repo.FindUserByEmail(r.Context(), req.Email)
	if err != nil {
		a.registerMu.Unlock()
		a.writeRepoError(w, "register", err)
		return
	}
	if existing != nil {
		a.registerMu.Unlock()
		writeError(w, http.StatusConflict, "User with this email already exists")
		return
	}
	user, err := a.repo.CreateUser(r.Context(), repository.NewUser{
		ID:           a.newID(),
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
	})
	a.registerMu.Unlock()
	if err != nil {
		a.writeRepoError(w, "register", err)
		return
	}

	a.respondWithToken(w, http.StatusOK, user)
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}
	if !ValidEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "Please enter a valid email address")
		return
	}

	user, err := a.repo.FindUserByEmail(r.Context(), req.Email)
	if err != nil {
		a.writeRepoError(w, "login", err)
		return
	}
	if user == nil {
		a.hasher.VerifyMissing(req.Password)
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if !a.hasher.Verify(req.Password, user.PasswordHash) {
		a.logger.Debug("login rejected", "user_id", user.ID)
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	a.respondWithToken(w, http.StatusOK, user)
}

func (a *API) respondWithToken(w http.ResponseWriter, status int, user *store.User) {
	token, err := a.tokens.Issue(user.ID)
	if err != nil {
		a.logger.Error("issuing token failed", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, status, authResponse{User: viewUser(user), Token: token})
}
