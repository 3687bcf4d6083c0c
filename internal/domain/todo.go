package domain

import (
	"fmt"
	"strings"
)

// Todo is a task owned by a user, as served by the resource service.
type Todo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	UserID      string `json:"userId"`
	IsCompleted bool   `json:"isCompleted"`
}

// TodoDraft is the writable part of a Todo.
type TodoDraft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	UserID      string `json:"userId"`
	IsCompleted *bool  `json:"isCompleted,omitempty"`
}

// Validate checks the fields the forms mark as required.
func (d TodoDraft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("title is required: %w", ErrInvalidInput)
	}
	if strings.TrimSpace(d.Description) == "" {
		return fmt.Errorf("description is required: %w", ErrInvalidInput)
	}
	if d.UserID == "" {
		return fmt.Errorf("user id is required: %w", ErrInvalidInput)
	}
	return nil
}

// Toggled returns the draft that flips the completion flag of t.
func (t Todo) Toggled() TodoDraft {
	completed := !t.IsCompleted
	return TodoDraft{
		Title:       t.Title,
		Description: t.Description,
		UserID:      t.UserID,
		IsCompleted: &completed,
	}
}
