package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Tomlord1122/todo-service/internal/domain"
)

var logger = loggo.GetLogger("todo.repository")

// TodoRepository defines the interface for todo data operations.
// Implementations must keep todo ids unique and assign new ids as the
// current maximum plus one (1 for an empty collection). A missing id is
// reported as an errors.NotFound.
type TodoRepository interface {
	Create(ctx context.Context, todo domain.Todo) (domain.Todo, error)
	FindByID(ctx context.Context, id int64) (domain.Todo, error)
	List(ctx context.Context, filter domain.TodoFilter) ([]domain.Todo, error)
	Update(ctx context.Context, id int64, patch domain.TodoPatch) (domain.Todo, error)
	Delete(ctx context.Context, id int64) (domain.Todo, error)

	// Seed installs todos only when the collection is empty.
	Seed(ctx context.Context, todos []domain.Todo) error

	Health() map[string]string
}

// gormTodoRepository implements TodoRepository using GORM
type gormTodoRepository struct {
	db *gorm.DB
}

// NewGormTodoRepository creates a new GORM todo repository
func NewGormTodoRepository(db *gorm.DB) TodoRepository {
	return &gormTodoRepository{db: db}
}

// Create assigns the next id and inserts the todo. The table lock
// serialises concurrent creates so two inserts never compute the same max.
func (r *gormTodoRepository) Create(ctx context.Context, todo domain.Todo) (domain.Todo, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("LOCK TABLE todos IN SHARE ROW EXCLUSIVE MODE").Error; err != nil {
			return errors.Annotate(err, "locking todos")
		}
		var maxID int64
		if err := tx.Model(&domain.Todo{}).Select("COALESCE(MAX(todo_id), 0)").Scan(&maxID).Error; err != nil {
			return errors.Annotate(err, "reading max todo id")
		}
		todo.TodoID = maxID + 1
		return errors.Annotate(tx.Create(&todo).Error, "inserting todo")
	})
	if err != nil {
		return domain.Todo{}, errors.Trace(err)
	}
	return todo, nil
}

// FindByID retrieves a todo by its ID
func (r *gormTodoRepository) FindByID(ctx context.Context, id int64) (domain.Todo, error) {
	var todo domain.Todo
	result := r.db.WithContext(ctx).Where("todo_id = ?", id).Take(&todo)
	if result.Error != nil {
		return domain.Todo{}, notFoundOrTrace(result.Error, id)
	}
	return todo, nil
}

// List retrieves todos in insertion order. New ids are always larger than
// every live id, so ordering by id is insertion order.
func (r *gormTodoRepository) List(ctx context.Context, filter domain.TodoFilter) ([]domain.Todo, error) {
	query := r.db.WithContext(ctx).Order("todo_id")
	if filter.Done != nil {
		query = query.Where("done = ?", *filter.Done)
	}
	if filter.Size > 0 {
		query = query.Limit(filter.Size)
	}
	todos := []domain.Todo{}
	if err := query.Find(&todos).Error; err != nil {
		return nil, errors.Annotate(err, "listing todos")
	}
	return todos, nil
}

// Update merges the patch into the stored row under a row lock.
func (r *gormTodoRepository) Update(ctx context.Context, id int64, patch domain.TodoPatch) (domain.Todo, error) {
	var todo domain.Todo
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("todo_id = ?", id).Take(&todo)
		if result.Error != nil {
			return notFoundOrTrace(result.Error, id)
		}
		if patch.Empty() {
			return nil
		}
		patch.Apply(&todo)
		return errors.Annotatef(tx.Save(&todo).Error, "saving todo %d", id)
	})
	if err != nil {
		return domain.Todo{}, errors.Trace(err)
	}
	return todo, nil
}

// Delete removes a todo by its ID and returns what was stored.
func (r *gormTodoRepository) Delete(ctx context.Context, id int64) (domain.Todo, error) {
	var todo domain.Todo
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("todo_id = ?", id).Take(&todo)
		if result.Error != nil {
			return notFoundOrTrace(result.Error, id)
		}
		return errors.Annotatef(tx.Where("todo_id = ?", id).Delete(&domain.Todo{}).Error, "deleting todo %d", id)
	})
	if err != nil {
		return domain.Todo{}, errors.Trace(err)
	}
	return todo, nil
}

func (r *gormTodoRepository) Seed(ctx context.Context, todos []domain.Todo) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("LOCK TABLE todos IN SHARE ROW EXCLUSIVE MODE").Error; err != nil {
			return errors.Annotate(err, "locking todos")
		}
		var count int64
		if err := tx.Model(&domain.Todo{}).Count(&count).Error; err != nil {
			return errors.Annotate(err, "counting todos")
		}
		if count > 0 || len(todos) == 0 {
			logger.Debugf("skipping seed, table holds %d todos", count)
			return nil
		}
		logger.Infof("seeding %d todos", len(todos))
		return errors.Annotate(tx.Create(&todos).Error, "seeding todos")
	})
}

func (r *gormTodoRepository) Health() map[string]string {
	stats := map[string]string{"store": "postgres"}
	var count int64
	if err := r.db.Model(&domain.Todo{}).Count(&count).Error; err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("counting todos: %v", err)
		return stats
	}
	stats["status"] = "up"
	stats["todos"] = strconv.FormatInt(count, 10)
	return stats
}

func notFoundOrTrace(err error, id int64) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.NotFoundf("todo %d", id)
	}
	return errors.Trace(err)
}
