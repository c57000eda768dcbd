package domain

import (
	"strings"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestTodoValidate(t *testing.T) {
	tests := []struct {
		name    string
		todo    Todo
		wantErr string
	}{
		{name: "minimal", todo: Todo{Title: "x"}},
		{name: "max lengths", todo: Todo{Title: strings.Repeat("a", 100), Description: strings.Repeat("b", 300)}},
		{name: "multibyte counted as characters", todo: Todo{Title: strings.Repeat("買", 100)}},
		{name: "empty title", todo: Todo{}, wantErr: "title must be between 1 and 100 characters, got 0"},
		{name: "long title", todo: Todo{Title: strings.Repeat("a", 101)}, wantErr: "title must be between 1 and 100 characters, got 101"},
		{name: "long description", todo: Todo{Title: "x", Description: strings.Repeat("b", 301)}, wantErr: "description must be at most 300 characters, got 301"},
		{name: "invalid utf-8 title", todo: Todo{Title: "\xff"}, wantErr: "title must be valid UTF-8"},
		{name: "invalid utf-8 description", todo: Todo{Title: "x", Description: "ok\xfe"}, wantErr: "description must be valid UTF-8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.todo.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.NotValid))
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestTodoPatchValidateChecksPresentFieldsOnly(t *testing.T) {
	assert.NoError(t, TodoPatch{}.Validate())
	assert.NoError(t, TodoPatch{Done: boolPtr(true)}.Validate())

	err := TodoPatch{Title: strPtr("")}.Validate()
	assert.True(t, errors.Is(err, errors.NotValid))

	err = TodoPatch{Description: strPtr(strings.Repeat("d", 301))}.Validate()
	assert.True(t, errors.Is(err, errors.NotValid))

	err = TodoPatch{Title: strPtr("bad\xff")}.Validate()
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestTodoPatchApply(t *testing.T) {
	todo := Todo{TodoID: 7, Title: "old", Description: "keep", Done: true}

	TodoPatch{Title: strPtr("new")}.Apply(&todo)
	assert.Equal(t, Todo{TodoID: 7, Title: "new", Description: "keep", Done: true}, todo)

	TodoPatch{Description: strPtr(""), Done: boolPtr(false)}.Apply(&todo)
	assert.Equal(t, Todo{TodoID: 7, Title: "new", Description: "", Done: false}, todo)

	assert.True(t, TodoPatch{}.Empty())
	assert.False(t, TodoPatch{Done: boolPtr(false)}.Empty())
}

func TestTodoFilterMatch(t *testing.T) {
	open := Todo{Done: false}
	closed := Todo{Done: true}

	assert.True(t, TodoFilter{}.Match(open))
	assert.True(t, TodoFilter{}.Match(closed))
	assert.True(t, TodoFilter{Done: boolPtr(true)}.Match(closed))
	assert.False(t, TodoFilter{Done: boolPtr(true)}.Match(open))
}

func TestSeedTodosAreValid(t *testing.T) {
	seed := SeedTodos()
	require.Len(t, seed, 2)
	for _, todo := range seed {
		assert.NoError(t, todo.Validate())
	}
	assert.False(t, seed[0].Done)
	assert.True(t, seed[1].Done)
}
