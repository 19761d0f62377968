// Package idempotency tracks Idempotency-Key headers on create requests.
//
// A handler claims Scope(userID, key) before creating a record. If the claim
// fails the request is a replay and is answered with 409 Conflict. If the
// create itself fails the handler releases the key so a retry can succeed.
package idempotency
