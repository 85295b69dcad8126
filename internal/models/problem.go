package models

import (
	"time"

	"gorm.io/datatypes"
)

// Severity ranks how badly a problem hurts.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// Difficulty ranks how hard a problem is to solve.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "BEGINNER"
	DifficultyIntermediate Difficulty = "INTERMEDIATE"
	DifficultyAdvanced     Difficulty = "ADVANCED"
)

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// ResourceType classifies a problem attachment.
type ResourceType string

const (
	ResourceLink  ResourceType = "link"
	ResourceVideo ResourceType = "video"
	ResourceFile  ResourceType = "file"
)

// Valid reports whether t is a known resource type.
func (t ResourceType) Valid() bool {
	return t == ResourceLink || t == ResourceVideo || t == ResourceFile
}

// Resource is an external reference attached to a problem.
type Resource struct {
	Type  ResourceType `json:"type"`
	URL   string       `json:"url"`
	Title string       `json:"title,omitempty"`
}

// Problem is a question posted for the community to answer.
type Problem struct {
	ID                  uint                          `gorm:"primaryKey" json:"id"`
	Title               string                        `gorm:"size:200;not null" json:"title"`
	DescriptionMarkdown string                        `gorm:"type:text;not null" json:"descriptionMarkdown"`
	CreatedByID         uint                          `gorm:"column:created_by;not null;index" json:"createdById"`
	CreatedBy           *UserSummary                  `gorm:"-" json:"createdBy,omitempty"`
	Severity            Severity                      `gorm:"type:varchar(16);not null;default:'MEDIUM';index" json:"severity"`
	Difficulty          Difficulty                    `gorm:"type:varchar(16);not null;default:'BEGINNER';index" json:"difficulty"`
	Canonical           bool                          `gorm:"not null;default:false;index" json:"canonical"`
	Solved              bool                          `gorm:"not null;default:false;index" json:"solved"`
	ViewCount           int                           `gorm:"not null;default:0" json:"viewCount"`
	Upvotes             int                           `gorm:"not null;default:0;index" json:"upvotes"`
	Downvotes           int                           `gorm:"not null;default:0" json:"downvotes"`
	Tags                datatypes.JSONSlice[string]   `json:"tags"`
	Resources           datatypes.JSONSlice[Resource] `json:"resources"`
	DomainID            *uint                         `gorm:"index" json:"domainId"`
	SubdomainID         *uint                         `gorm:"index" json:"subdomainId"`
	CategoryID          *uint                         `gorm:"index" json:"categoryId"`
	TechStackID         *uint                         `gorm:"index" json:"techStackId"`
	LanguageID          *uint                         `gorm:"index" json:"languageId"`
	TopicID             *uint                         `gorm:"index" json:"topicId"`
	CreatedAt           time.Time                     `gorm:"index" json:"createdAt"`
	UpdatedAt           time.Time                     `json:"updatedAt"`
}

// ClassificationIDs groups the optional tree references of a problem.
type ClassificationIDs struct {
	DomainID    *uint `json:"domainId"`
	SubdomainID *uint `json:"subdomainId"`
	CategoryID  *uint `json:"categoryId"`
	TechStackID *uint `json:"techStackId"`
	LanguageID  *uint `json:"languageId"`
	TopicID     *uint `json:"topicId"`
}

// Apply copies the references onto p.
func (ids ClassificationIDs) Apply(p *Problem) {
	p.DomainID = ids.DomainID
	p.SubdomainID = ids.SubdomainID
	p.CategoryID = ids.CategoryID
	p.TechStackID = ids.TechStackID
	p.LanguageID = ids.LanguageID
	p.TopicID = ids.TopicID
}

// ClassRef is one set reference of a ClassificationIDs.
type ClassRef struct {
	Level ClassLevel
	ID    uint
}

// Refs lists the set references from domain down to topic.
func (ids ClassificationIDs) Refs() []ClassRef {
	var refs []ClassRef
	for _, r := range []struct {
		level ClassLevel
		id    *uint
	}{
		{LevelDomain, ids.DomainID},
		{LevelSubdomain, ids.SubdomainID},
		{LevelCategory, ids.CategoryID},
		{LevelTechStack, ids.TechStackID},
		{LevelLanguage, ids.LanguageID},
		{LevelTopic, ids.TopicID},
	} {
		if r.id != nil {
			refs = append(refs, ClassRef{Level: r.level, ID: *r.id})
		}
	}
	return refs
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// NewPagination computes the page count for total rows.
func NewPagination(page, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

// ProblemPage is a paginated problem listing.
type ProblemPage struct {
	Problems   []Problem  `json:"problems"`
	Pagination Pagination `json:"pagination"`
}

// SeverityGroups buckets problems by severity.
type SeverityGroups struct {
	Critical []Problem `json:"critical"`
	High     []Problem `json:"high"`
	Medium   []Problem `json:"medium"`
	Low      []Problem `json:"low"`
}

// ProblemDetail is a problem with its thread and the caller's interaction state.
type ProblemDetail struct {
	Problem    Problem   `json:"problem"`
	Answers    []Answer  `json:"answers"`
	Comments   []Comment `json:"comments"`
	UserVote   *int      `json:"userVote"`
	Bookmarked bool      `json:"bookmarked"`
}
