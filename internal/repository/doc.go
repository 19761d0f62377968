// Package repository implements typed CRUD for users, boards and tasks on top
// of a store.Backend.
//
// Every call loads the whole document, works on it in memory and, for
// mutations, saves it back. Reads never return errors for missing records:
//
//	board, err := repo.GetBoardByID(ctx, id)
//	if err != nil { ... }   // storage failure
//	if board == nil { ... } // not found
//
// Deleting a board removes its tasks in the same save.
//
// The repository trusts its callers: ids are generated upstream, strings are
// already trimmed, and ownership has been checked against records the caller
// read first. The only relational checks it performs are at creation time
// (ErrUnknownUser, ErrUnknownBoard).
package repository
