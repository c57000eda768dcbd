package repository

import (
	"context"
	"slices"
	"strconv"
	"sync"

	"github.com/juju/errors"

	"github.com/Tomlord1122/todo-service/internal/domain"
)

// memoryTodoRepository keeps todos in a slice in insertion order. A single
// mutex guards the slice; every method is one critical section.
type memoryTodoRepository struct {
	mu    sync.Mutex
	todos []domain.Todo
}

// NewMemoryTodoRepository creates an in-memory todo repository holding todos.
func NewMemoryTodoRepository(todos ...domain.Todo) TodoRepository {
	return &memoryTodoRepository{todos: slices.Clone(todos)}
}

func (r *memoryTodoRepository) Create(_ context.Context, todo domain.Todo) (domain.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	todo.TodoID = r.nextID()
	r.todos = append(r.todos, todo)
	return todo, nil
}

func (r *memoryTodoRepository) FindByID(_ context.Context, id int64) (domain.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return domain.Todo{}, errors.NotFoundf("todo %d", id)
	}
	return r.todos[i], nil
}

func (r *memoryTodoRepository) List(_ context.Context, filter domain.TodoFilter) ([]domain.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := []domain.Todo{}
	for _, todo := range r.todos {
		if filter.Size > 0 && len(result) == filter.Size {
			break
		}
		if filter.Match(todo) {
			result = append(result, todo)
		}
	}
	return result, nil
}

func (r *memoryTodoRepository) Update(_ context.Context, id int64, patch domain.TodoPatch) (domain.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return domain.Todo{}, errors.NotFoundf("todo %d", id)
	}
	patch.Apply(&r.todos[i])
	return r.todos[i], nil
}

func (r *memoryTodoRepository) Delete(_ context.Context, id int64) (domain.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return domain.Todo{}, errors.NotFoundf("todo %d", id)
	}
	removed := r.todos[i]
	r.todos = slices.Delete(r.todos, i, i+1)
	return removed, nil
}

func (r *memoryTodoRepository) Seed(_ context.Context, todos []domain.Todo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.todos) > 0 {
		logger.Debugf("skipping seed, store holds %d todos", len(r.todos))
		return nil
	}
	logger.Infof("seeding %d todos", len(todos))
	r.todos = slices.Clone(todos)
	return nil
}

func (r *memoryTodoRepository) Health() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return map[string]string{
		"store":  "memory",
		"status": "up",
		"todos":  strconv.Itoa(len(r.todos)),
	}
}

// nextID returns max(id)+1, or 1 when the store is empty. Callers hold mu.
func (r *memoryTodoRepository) nextID() int64 {
	var maxID int64
	for _, todo := range r.todos {
		maxID = max(maxID, todo.TodoID)
	}
	return maxID + 1
}

// indexOf returns the position of the first todo with id, or -1. Callers hold mu.
func (r *memoryTodoRepository) indexOf(id int64) int {
	return slices.IndexFunc(r.todos, func(t domain.Todo) bool { return t.TodoID == id })
}
