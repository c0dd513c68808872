// Package model holds the relational schemas owned by the task platform.
// The database connector migrates them at startup.
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Worker is a person tasks can be assigned to.
type Worker struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Age       int       `json:"age"`
	Bio       string    `gorm:"type:text" json:"bio"`
	Address   string    `gorm:"type:text" json:"address"`
	Email     string    `gorm:"size:255;uniqueIndex" json:"email"`
	Photo     string    `gorm:"size:255" json:"photo"` // object key in the attachment bucket
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Task is a unit of work, optionally assigned to a worker.
type Task struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Job        string     `gorm:"type:text;not null" json:"job"`
	AssigneeID *uuid.UUID `gorm:"type:uuid;index" json:"assigneeId,omitempty"`
	Assignee   *Worker    `gorm:"constraint:OnDelete:SET NULL" json:"assignee,omitempty"`
	Attachment string     `gorm:"size:255" json:"attachment"` // object key in the attachment bucket
	Done       bool       `gorm:"not null;default:false" json:"done"`
	Cancelled  bool       `gorm:"not null;default:false" json:"cancelled"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func (w *Worker) BeforeCreate(_ *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

func (t *Task) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// All lists every schema in migration order.
func All() []any {
	return []any{&Worker{}, &Task{}}
}
