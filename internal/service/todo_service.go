package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"github.com/Tomlord1122/todo-service/internal/domain"
	"github.com/Tomlord1122/todo-service/internal/repository"
)

var logger = loggo.GetLogger("todo.service")

// CreateTodoRequest holds the data needed to create a new todo.
// Omitted optional fields take their defaults: empty description, not done.
type CreateTodoRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Done        *bool   `json:"done"`
}

// UnmarshalJSON rejects an explicit null for any field. Omitting a field
// is how a client asks for its default.
func (r *CreateTodoRequest) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for key, value := range fields {
		for _, name := range []string{"title", "description", "done"} {
			if strings.EqualFold(key, name) && bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
				return errors.NewNotValid(nil, fmt.Sprintf("%s must not be null", name))
			}
		}
	}

	type plain CreateTodoRequest
	return json.Unmarshal(data, (*plain)(r))
}

// UpdateTodoRequest holds the data for updating an existing todo.
// Pointers distinguish an omitted field from one set to its zero value;
// only non-nil fields are written.
type UpdateTodoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Done        *bool   `json:"done"`
}

// ListTodosRequest selects a filtered view of all todos.
// A nil or zero Size means no limit.
type ListTodosRequest struct {
	Size *int
	Done *bool
}

// TodoService defines the operations for managing todos.
type TodoService interface {
	CreateTodo(ctx context.Context, req CreateTodoRequest) (*domain.Todo, error)
	GetTodoByID(ctx context.Context, id int64) (*domain.Todo, error)
	ListTodos(ctx context.Context, req ListTodosRequest) ([]domain.Todo, error)
	UpdateTodo(ctx context.Context, id int64, req UpdateTodoRequest) (*domain.Todo, error)

	// DeleteTodo removes a todo and returns what it held.
	DeleteTodo(ctx context.Context, id int64) (*domain.Todo, error)
}

// todoService implements the TodoService interface on top of a TodoRepository.
type todoService struct {
	repo repository.TodoRepository
}

// NewTodoService creates a new instance of todoService.
func NewTodoService(repo repository.TodoRepository) TodoService {
	return &todoService{
		repo: repo,
	}
}

func (s *todoService) CreateTodo(ctx context.Context, req CreateTodoRequest) (*domain.Todo, error) {
	newTodo := domain.Todo{Title: req.Title}
	if req.Description != nil {
		newTodo.Description = *req.Description
	}
	if req.Done != nil {
		newTodo.Done = *req.Done
	}
	if err := newTodo.Validate(); err != nil {
		return nil, errors.Trace(err)
	}

	created, err := s.repo.Create(ctx, newTodo)
	if err != nil {
		return nil, errors.Annotate(err, "creating todo")
	}
	logger.Debugf("created todo %d", created.TodoID)
	return &created, nil
}

func (s *todoService) GetTodoByID(ctx context.Context, id int64) (*domain.Todo, error) {
	todo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Annotatef(err, "getting todo %d", id)
	}
	return &todo, nil
}

func (s *todoService) ListTodos(ctx context.Context, req ListTodosRequest) ([]domain.Todo, error) {
	filter := domain.TodoFilter{Done: req.Done}
	if req.Size != nil {
		if *req.Size < 0 {
			return nil, errors.NewNotValid(nil, fmt.Sprintf("size must not be negative, got %d", *req.Size))
		}
		filter.Size = *req.Size
	}

	todos, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, errors.Annotate(err, "listing todos")
	}
	return todos, nil
}

func (s *todoService) UpdateTodo(ctx context.Context, id int64, req UpdateTodoRequest) (*domain.Todo, error) {
	patch := domain.TodoPatch{
		Title:       req.Title,
		Description: req.Description,
		Done:        req.Done,
	}
	if err := patch.Validate(); err != nil {
		return nil, errors.Trace(err)
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, errors.Annotatef(err, "updating todo %d", id)
	}
	if patch.Empty() {
		logger.Debugf("no changes supplied for todo %d", id)
	}
	return &updated, nil
}

func (s *todoService) DeleteTodo(ctx context.Context, id int64) (*domain.Todo, error) {
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, errors.Annotatef(err, "deleting todo %d", id)
	}
	logger.Debugf("deleted todo %d", id)
	return &removed, nil
}
