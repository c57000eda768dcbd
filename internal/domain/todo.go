package domain

import (
	"fmt"
	"unicode/utf8"

	"github.com/juju/errors"
)

const (
	TitleMinLength       = 1
	TitleMaxLength       = 100
	DescriptionMaxLength = 300
)

// Todo is the stored record. The column names match the JSON field names so
// the Postgres table reads the same as the API.
type Todo struct {
	TodoID      int64  `json:"todo_id" gorm:"column:todo_id;primaryKey;autoIncrement:false"`
	Title       string `json:"title" gorm:"column:title;size:100;not null"`
	Description string `json:"description" gorm:"column:description;size:300;not null;default:''"`
	Done        bool   `json:"done" gorm:"column:done;not null;default:false"`
}

// Validate checks the field constraints shared by create and update.
func (t Todo) Validate() error {
	if err := validateTitle(t.Title); err != nil {
		return err
	}
	return validateDescription(t.Description)
}

// TodoPatch carries a partial update. Nil fields are left untouched.
type TodoPatch struct {
	Title       *string
	Description *string
	Done        *bool
}

// Validate checks only the fields present in the patch.
func (p TodoPatch) Validate() error {
	if p.Title != nil {
		if err := validateTitle(*p.Title); err != nil {
			return err
		}
	}
	if p.Description != nil {
		if err := validateDescription(*p.Description); err != nil {
			return err
		}
	}
	return nil
}

// Empty reports whether the patch changes nothing.
func (p TodoPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Done == nil
}

// Apply merges the present fields into t.
func (p TodoPatch) Apply(t *Todo) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Done != nil {
		t.Done = *p.Done
	}
}

// TodoFilter selects a view of the collection. A zero Size means unlimited.
type TodoFilter struct {
	Done *bool
	Size int
}

// Match reports whether t passes the done filter.
func (f TodoFilter) Match(t Todo) bool {
	return f.Done == nil || t.Done == *f.Done
}

// SeedTodos returns the records installed into an empty store at startup.
func SeedTodos() []Todo {
	return []Todo{
		{TodoID: 1, Title: "買い物", Description: "牛乳、卵、パン", Done: false},
		{TodoID: 2, Title: "本を読む", Description: "Python の本を終わらせる", Done: true},
	}
}

func validateTitle(title string) error {
	if !utf8.ValidString(title) {
		return errors.NewNotValid(nil, "title must be valid UTF-8")
	}
	n := utf8.RuneCountInString(title)
	if n < TitleMinLength || n > TitleMaxLength {
		return errors.NewNotValid(nil, fmt.Sprintf(
			"title must be between %d and %d characters, got %d", TitleMinLength, TitleMaxLength, n))
	}
	return nil
}

func validateDescription(description string) error {
	if !utf8.ValidString(description) {
		return errors.NewNotValid(nil, "description must be valid UTF-8")
	}
	if n := utf8.RuneCountInString(description); n > DescriptionMaxLength {
		return errors.NewNotValid(nil, fmt.Sprintf(
			"description must be at most %d characters, got %d", DescriptionMaxLength, n))
	}
	return nil
}
