package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tomlord1122/todo-service/internal/domain"
	"github.com/Tomlord1122/todo-service/internal/repository"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
func intPtr(i int) *int       { return &i }

func newSeededService() TodoService {
	return NewTodoService(repository.NewMemoryTodoRepository(domain.SeedTodos()...))
}

func TestCreateTodoDefaults(t *testing.T) {
	svc := newSeededService()
	ctx := context.Background()

	created, err := svc.CreateTodo(ctx, CreateTodoRequest{Title: "x"})
	require.NoError(t, err)
	assert.Equal(t, &domain.Todo{TodoID: 3, Title: "x", Description: "", Done: false}, created)

	fetched, err := svc.GetTodoByID(ctx, created.TodoID)
	require.NoError(t, err)
	assert.Equal(t, created, fetched)

	created, err = svc.CreateTodo(ctx, CreateTodoRequest{Title: "y", Description: strPtr("d"), Done: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, &domain.Todo{TodoID: 4, Title: "y", Description: "d", Done: true}, created)
}

func TestCreateTodoValidation(t *testing.T) {
	svc := newSeededService()
	ctx := context.Background()

	for _, req := range []CreateTodoRequest{
		{Title: ""},
		{Title: strings.Repeat("t", 101)},
		{Title: "ok", Description: strPtr(strings.Repeat("d", 301))},
	} {
		_, err := svc.CreateTodo(ctx, req)
		assert.True(t, errors.Is(err, errors.NotValid), "request %+v", req)
	}

	todos, err := svc.ListTodos(ctx, ListTodosRequest{})
	require.NoError(t, err)
	assert.Len(t, todos, 2, "invalid creates must not mutate the store")
}

func TestGetTodoByIDNotFound(t *testing.T) {
	_, err := newSeededService().GetTodoByID(context.Background(), 404)
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestListTodos(t *testing.T) {
	svc := newSeededService()
	ctx := context.Background()

	done, err := svc.ListTodos(ctx, ListTodosRequest{Done: boolPtr(true)})
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.EqualValues(t, 2, done[0].TodoID)

	limited, err := svc.ListTodos(ctx, ListTodosRequest{Size: intPtr(1)})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.EqualValues(t, 1, limited[0].TodoID)

	unlimited, err := svc.ListTodos(ctx, ListTodosRequest{Size: intPtr(0)})
	require.NoError(t, err)
	assert.Len(t, unlimited, 2)

	_, err = svc.ListTodos(ctx, ListTodosRequest{Size: intPtr(-1)})
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestUpdateTodoPartial(t *testing.T) {
	svc := newSeededService()
	ctx := context.Background()
	seed := domain.SeedTodos()[1]

	updated, err := svc.UpdateTodo(ctx, 2, UpdateTodoRequest{Title: strPtr("renamed")})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
	assert.Equal(t, seed.Description, updated.Description)
	assert.Equal(t, seed.Done, updated.Done)

	unchanged, err := svc.UpdateTodo(ctx, 2, UpdateTodoRequest{})
	require.NoError(t, err)
	assert.Equal(t, updated, unchanged)

	_, err = svc.UpdateTodo(ctx, 2, UpdateTodoRequest{Title: strPtr("")})
	assert.True(t, errors.Is(err, errors.NotValid))

	_, err = svc.UpdateTodo(ctx, 9, UpdateTodoRequest{Done: boolPtr(false)})
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestDeleteTodo(t *testing.T) {
	svc := newSeededService()
	ctx := context.Background()

	removed, err := svc.DeleteTodo(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.SeedTodos()[0], *removed)

	_, err = svc.GetTodoByID(ctx, 1)
	assert.True(t, errors.Is(err, errors.NotFound))

	_, err = svc.DeleteTodo(ctx, 1)
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestCreateTodoRequestRejectsNull(t *testing.T) {
	for _, body := range []string{
		`{"title":null}`,
		`{"title":"a","description":null}`,
		`{"title":"a","Done": null}`,
	} {
		var req CreateTodoRequest
		err := json.Unmarshal([]byte(body), &req)
		assert.True(t, errors.Is(err, errors.NotValid), "body %s", body)
	}

	var req CreateTodoRequest
	require.NoError(t, json.Unmarshal([]byte(`{"title":"a","description":"d","done":true}`), &req))
	assert.Equal(t, "a", req.Title)
	assert.Equal(t, "d", *req.Description)
	assert.True(t, *req.Done)
}
