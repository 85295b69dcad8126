package models

import "time"

// TargetType discriminates the polymorphic target of votes, bookmarks and comments.
type TargetType string

const (
	TargetProblem TargetType = "Problem"
	TargetAnswer  TargetType = "Answer"
	TargetComment TargetType = "Comment"
)

// Votable reports whether votes may reference t.
func (t TargetType) Votable() bool {
	return t == TargetProblem || t == TargetAnswer || t == TargetComment
}

// Bookmarkable reports whether bookmarks may reference t.
func (t TargetType) Bookmarkable() bool {
	return t == TargetProblem || t == TargetAnswer
}

// Commentable reports whether comments may be attached to t.
func (t TargetType) Commentable() bool {
	return t == TargetProblem || t == TargetAnswer
}

// Vote is one user's +1/-1 on a target. (user, target) is unique.
type Vote struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;uniqueIndex:idx_votes_user_target" json:"userId"`
	TargetType TargetType `gorm:"type:varchar(16);not null;uniqueIndex:idx_votes_user_target;index:idx_votes_target" json:"targetType"`
	TargetID   uint       `gorm:"not null;uniqueIndex:idx_votes_user_target;index:idx_votes_target" json:"targetId"`
	Value      int        `gorm:"not null" json:"value"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// Bookmark saves a target for a user. (user, target) is unique.
type Bookmark struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;uniqueIndex:idx_bookmarks_user_target" json:"userId"`
	TargetType TargetType `gorm:"type:varchar(16);not null;uniqueIndex:idx_bookmarks_user_target;index:idx_bookmarks_target" json:"targetType"`
	TargetID   uint       `gorm:"not null;uniqueIndex:idx_bookmarks_user_target;index:idx_bookmarks_target" json:"targetId"`
	Problem    *Problem   `gorm:"-" json:"problem,omitempty"`
	Answer     *Answer    `gorm:"-" json:"answer,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// VoteOutcome names what a vote toggle did.
type VoteOutcome string

const (
	VoteRecorded VoteOutcome = "recorded"
	VoteChanged  VoteOutcome = "changed"
	VoteRemoved  VoteOutcome = "removed"
)

// VoteResult is returned by a vote toggle.
type VoteResult struct {
	Outcome   VoteOutcome `json:"-"`
	Value     int         `json:"value,omitempty"`
	Upvotes   int         `json:"-"`
	Downvotes int         `json:"-"`
}

// Voted reports whether a vote row exists after the toggle.
func (r VoteResult) Voted() bool {
	return r.Outcome != VoteRemoved
}

// Message is the human-readable outcome.
func (r VoteResult) Message() string {
	switch r.Outcome {
	case VoteRemoved:
		return "Vote removed"
	case VoteChanged:
		return "Vote changed"
	default:
		return "Vote recorded"
	}
}
