package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDocument_Valid(t *testing.T) {
	data, err := encodeDocument(sampleDocument())
	require.NoError(t, err)

	assert.NoError(t, ValidateDocument(data))
}

func TestValidateDocument_Empty(t *testing.T) {
	data, err := encodeDocument(NewDocument())
	require.NoError(t, err)

	assert.NoError(t, ValidateDocument(data))
}

func TestValidateDocument_Violations(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		wantPath string
	}{
		{
			name:     "missing collection",
			doc:      `{"users": [], "boards": []}`,
			wantPath: "",
		},
		{
			name: "bad priority",
			doc: `{"users": [], "boards": [], "tasks": [{
				"id": "t1", "title": "x", "description": "", "status": "pending",
				"completed": false, "priority": "urgent", "dueDate": null,
				"boardId": "b1", "userId": "u1",
				"createdAt": "2025-01-01T00:00:00Z", "updatedAt": "2025-01-01T00:00:00Z"}]}`,
			wantPath: "tasks[0].priority",
		},
		{
			name:     "empty board name",
			doc:      `{"users": [], "tasks": [], "boards": [{"id": "b1", "name": "", "userId": "u1", "createdAt": "2025-01-01T00:00:00Z"}]}`,
			wantPath: "boards[0].name",
		},
		{
			name:     "bad timestamp",
			doc:      `{"boards": [], "tasks": [], "users": [{"id": "u1", "email": "a@b.c", "password": "h", "name": "A", "createdAt": "yesterday"}]}`,
			wantPath: "users[0].createdAt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument([]byte(tt.doc))
			require.Error(t, err)

			var schemaErr *SchemaError
			require.True(t, errors.As(err, &schemaErr), "expected *SchemaError, got %T", err)
			require.NotEmpty(t, schemaErr.Violations)

			var paths []string
			for _, v := range schemaErr.Violations {
				paths = append(paths, v.Path)
			}
			assert.Contains(t, paths, tt.wantPath)
		})
	}
}

func TestValidateDocument_NotJSON(t *testing.T) {
	err := ValidateDocument([]byte("nope"))
	require.Error(t, err)

	var schemaErr *SchemaError
	assert.False(t, errors.As(err, &schemaErr))
}

func TestPointerToPath(t *testing.T) {
	assert.Equal(t, "", pointerToPath(""))
	assert.Equal(t, "tasks[3].priority", pointerToPath("/tasks/3/priority"))
	assert.Equal(t, "users", pointerToPath("#/users"))
	assert.Equal(t, "a/b", pointerToPath("/a~1b"))
}
