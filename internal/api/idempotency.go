// ABOUTME: Idempotency-Key handling for create requests
// ABOUTME: A claimed key is released again when the create fails

package api

import (
	"net/http"

	"github.com/2389/taskboard/internal/idempotency"
)

// keyClaim is a held Idempotency-Key. The zero value holds nothing.
type keyClaim struct {
	cache *idempotency.Cache
	key   string
	kept  bool
}

// claimIdempotencyKey claims the request's Idempotency-Key for userID.
// It writes 409 and returns false when the key was already used.
func (a *API) claimIdempotencyKey(w http.ResponseWriter, r *http.Request, userID string) (*keyClaim, bool) {
	key := r.Header.Get(idempotency.Header)
	if key == "" || a.idem == nil {
		return &keyClaim{}, true
	}

	scoped := idempotency.Scope(userID, key)
	if !a.idem.Claim(scoped) {
		writeError(w, http.StatusConflict, "Duplicate request")
		return nil, false
	}
	return &keyClaim{cache: a.idem, key: scoped}, true
}

func (c *keyClaim) keep() {
	c.kept = true
}

// releaseUnlessKept frees the key after a failed create so the client can retry.
func (c *keyClaim) releaseUnlessKept() {
	if c.cache != nil && !c.kept {
		c.cache.Release(c.key)
	}
}
