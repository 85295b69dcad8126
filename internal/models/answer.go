package models

import "time"

// Answer is a reply to a Problem.
type Answer struct {
	ID              uint         `gorm:"primaryKey" json:"id"`
	ProblemID       uint         `gorm:"not null;index" json:"problemId"`
	CreatedByID     uint         `gorm:"column:created_by;not null;index" json:"createdById"`
	CreatedBy       *UserSummary `gorm:"-" json:"createdBy,omitempty"`
	ContentMarkdown string       `gorm:"type:text;not null" json:"contentMarkdown"`
	Upvotes         int          `gorm:"not null;default:0" json:"upvotes"`
	Downvotes       int          `gorm:"not null;default:0" json:"downvotes"`
	Accepted        bool         `gorm:"not null;default:false;index" json:"accepted"`
	Problem         *ProblemRef  `gorm:"-" json:"problem,omitempty"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// ProblemRef is the minimal problem shape embedded in answer listings.
type ProblemRef struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}
