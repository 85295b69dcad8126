// Package models contains data structures for the application's domain models.
package models

import (
	"slices"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Role names a permission set granted to a user.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// OAuthProvider links a user to an identity at an external provider.
type OAuthProvider struct {
	Provider string `json:"provider"`
	ID       string `json:"id"`
}

// User represents a CodeCrew account.
type User struct {
	ID             uint                              `gorm:"primaryKey" json:"id"`
	Name           string                            `gorm:"size:120;not null" json:"name"`
	Email          string                            `gorm:"size:255;not null;uniqueIndex" json:"email"`
	AvatarURL      string                            `gorm:"size:1024" json:"avatarUrl"`
	PasswordHash   *string                           `json:"-"`
	OAuthProviders datatypes.JSONSlice[OAuthProvider] `gorm:"column:oauth_providers" json:"-"`
	Roles          datatypes.JSONSlice[Role]          `json:"roles"`
	Bio            string                            `gorm:"size:500" json:"bio"`
	Interests      datatypes.JSONSlice[uint]          `json:"interests"`
	CreatedAt      time.Time                         `json:"createdAt"`
	UpdatedAt      time.Time                         `json:"updatedAt"`
}

// BeforeCreate applies the default role set.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if len(u.Roles) == 0 {
		u.Roles = datatypes.JSONSlice[Role]{RoleUser}
	}
	if u.OAuthProviders == nil {
		u.OAuthProviders = datatypes.JSONSlice[OAuthProvider]{}
	}
	if u.Interests == nil {
		u.Interests = datatypes.JSONSlice[uint]{}
	}
	return nil
}

// HasRole reports whether the user holds role.
func (u *User) HasRole(role Role) bool {
	return slices.Contains(u.Roles, role)
}

// HasAnyRole reports whether the user holds at least one of roles.
func (u *User) HasAnyRole(roles ...Role) bool {
	for _, r := range roles {
		if u.HasRole(r) {
			return true
		}
	}
	return false
}

// HasPassword reports whether the account can log in with credentials.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// HasProvider reports whether a link to provider already exists.
func (u *User) HasProvider(provider string) bool {
	for _, p := range u.OAuthProviders {
		if p.Provider == provider {
			return true
		}
	}
	return false
}

// UserSummary is the embedded author shape on problems, answers and comments.
type UserSummary struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl"`
	Email     string `json:"email,omitempty"`
}

// AuthUser is the user shape returned by signup and login.
type AuthUser struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatarUrl"`
	Roles     []Role `json:"roles"`
}

// ToAuthUser projects u for token responses.
func (u *User) ToAuthUser() AuthUser {
	return AuthUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
		Roles:     u.Roles,
	}
}

// Me is the shape of GET /auth/me.
type Me struct {
	AuthUser
	Bio       string `json:"bio"`
	Interests []uint `json:"interests"`
}

// ToMe projects u for the current-user endpoint.
func (u *User) ToMe() Me {
	return Me{AuthUser: u.ToAuthUser(), Bio: u.Bio, Interests: u.Interests}
}

// UserStats aggregates a user's contributions.
type UserStats struct {
	ProblemsPosted  int64 `json:"problemsPosted"`
	AnswersGiven    int64 `json:"answersGiven"`
	UpvotesReceived int64 `json:"upvotesReceived"`
	AcceptedAnswers int64 `json:"acceptedAnswers"`
}

// PublicProfile is a user without credentials or contact data, plus stats.
type PublicProfile struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatarUrl"`
	Roles     []Role    `json:"roles"`
	Bio       string    `json:"bio"`
	Interests []uint    `json:"interests"`
	CreatedAt time.Time `json:"createdAt"`
	Stats     UserStats `json:"stats"`
}
