package models

import "time"

// Domain is the root level of the classification tree.
type Domain struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:120;not null" json:"name"`
	Slug        string    `gorm:"size:120;not null;uniqueIndex" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Subdomain belongs to a Domain.
type Subdomain struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	DomainID  uint      `gorm:"not null;uniqueIndex:idx_subdomains_parent_slug" json:"domainId"`
	Name      string    `gorm:"size:120;not null" json:"name"`
	Slug      string    `gorm:"size:120;not null;uniqueIndex:idx_subdomains_parent_slug" json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Category belongs to a Subdomain.
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SubdomainID uint      `gorm:"not null;uniqueIndex:idx_categories_parent_slug" json:"subdomainId"`
	Name        string    `gorm:"size:120;not null" json:"name"`
	Slug        string    `gorm:"size:120;not null;uniqueIndex:idx_categories_parent_slug" json:"slug"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TechStack belongs to a Category.
type TechStack struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CategoryID uint      `gorm:"not null;uniqueIndex:idx_tech_stacks_parent_slug" json:"categoryId"`
	Name       string    `gorm:"size:120;not null" json:"name"`
	Slug       string    `gorm:"size:120;not null;uniqueIndex:idx_tech_stacks_parent_slug" json:"slug"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Language belongs to a TechStack.
type Language struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	TechStackID uint      `gorm:"not null;uniqueIndex:idx_languages_parent_slug" json:"techStackId"`
	Name        string    `gorm:"size:120;not null" json:"name"`
	Slug        string    `gorm:"size:120;not null;uniqueIndex:idx_languages_parent_slug" json:"slug"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Topic is the leaf level, belonging to a Language.
type Topic struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	LanguageID uint      `gorm:"not null;uniqueIndex:idx_topics_parent_slug" json:"languageId"`
	Name       string    `gorm:"size:120;not null" json:"name"`
	Slug       string    `gorm:"size:120;not null;uniqueIndex:idx_topics_parent_slug" json:"slug"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Hierarchy is the full classification tree, one flat list per level.
type Hierarchy struct {
	Domains    []Domain    `json:"domains"`
	Subdomains []Subdomain `json:"subdomains"`
	Categories []Category  `json:"categories"`
	TechStacks []TechStack `json:"techStacks"`
	Languages  []Language  `json:"languages"`
	Topics     []Topic     `json:"topics"`
}

// ClassLevel names one level of the tree in URLs such as /problems/class/:type/:id.
type ClassLevel string

const (
	LevelDomain    ClassLevel = "domain"
	LevelSubdomain ClassLevel = "subdomain"
	LevelCategory  ClassLevel = "category"
	LevelTechStack ClassLevel = "techstack"
	LevelLanguage  ClassLevel = "language"
	LevelTopic     ClassLevel = "topic"
)

// Column returns the problems column that references the level.
func (l ClassLevel) Column() (string, bool) {
	switch l {
	case LevelDomain:
		return "domain_id", true
	case LevelSubdomain:
		return "subdomain_id", true
	case LevelCategory:
		return "category_id", true
	case LevelTechStack:
		return "tech_stack_id", true
	case LevelLanguage:
		return "language_id", true
	case LevelTopic:
		return "topic_id", true
	}
	return "", false
}

// Table returns the table holding the level's rows.
func (l ClassLevel) Table() string {
	switch l {
	case LevelDomain:
		return "domains"
	case LevelSubdomain:
		return "subdomains"
	case LevelCategory:
		return "categories"
	case LevelTechStack:
		return "tech_stacks"
	case LevelLanguage:
		return "languages"
	case LevelTopic:
		return "topics"
	}
	return ""
}
