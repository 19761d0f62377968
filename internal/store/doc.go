// Package store provides the durable home of taskboard's data.
//
// # Architecture
//
// All state lives in a single Document holding three collections:
//
//   - Users: registered accounts (password stored as a bcrypt hash)
//   - Boards: named containers owned by one user
//   - Tasks: units of work belonging to a board and an owner
//
// Access goes through the Backend interface, which only knows how to load and
// save the whole document. There is no per-record update: every mutation is a
// Load, an in-memory edit, and a Save. Write cost grows with the total data size.
//
// # Backends
//
//   - FileStore: one JSON file, replaced atomically (temp file + rename) on
//     every save. An optional mirror path receives a best-effort copy and is
//     used to restore the primary when it goes missing.
//   - SQLiteStore: the same document stored as a single row in an embedded
//     SQLite database (modernc.org/sqlite, no cgo).
//   - MemoryStore: in-memory, for tests. Supports injected failures.
//
// # File Format
//
//	{
//	  "users":  [{"id", "email", "password", "name", "createdAt"}],
//	  "boards": [{"id", "name", "userId", "createdAt"}],
//	  "tasks":  [{"id", "title", "description", "status", "completed",
//	              "priority", "dueDate", "boardId", "userId",
//	              "createdAt", "updatedAt"}]
//	}
//
// Files are written with 2-space indentation and a trailing newline.
// ValidateDocument checks raw bytes against the embedded JSON Schema.
//
// # Error Handling
//
// Every failure to create, read, parse or write the medium wraps
// ErrStorageUnavailable:
//
//	if errors.Is(err, store.ErrStorageUnavailable) { ... }
package store
