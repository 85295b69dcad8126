package models

import "time"

// MaxCommentLength bounds Comment.Content in runes.
const MaxCommentLength = 1000

// Comment is a short remark on a Problem or an Answer.
type Comment struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	ParentType  TargetType   `gorm:"type:varchar(16);not null;index:idx_comments_parent" json:"parentType"`
	ParentID    uint         `gorm:"not null;index:idx_comments_parent" json:"parentId"`
	CreatedByID uint         `gorm:"column:created_by;not null;index" json:"createdById"`
	CreatedBy   *UserSummary `gorm:"-" json:"createdBy,omitempty"`
	Content     string       `gorm:"size:1000;not null" json:"content"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}
