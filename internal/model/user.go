package model

import "time"

// Role is the global access level of a user.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
)

// ParseRole returns the Role for s. Unknown values are rejected, never defaulted.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleManager, RoleUser:
		return Role(s), true
	default:
		return "", false
	}
}

// IsPrivileged reports whether the role may view and mutate the roster.
func (r Role) IsPrivileged() bool {
	return r == RoleAdmin || r == RoleManager
}

// Status tells whether a user may authenticate.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// ParseStatus returns the Status for s.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusActive, StatusInactive:
		return Status(s), true
	default:
		return "", false
	}
}

// User represents a console account.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"size:100;not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:100;not null"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	Role         Role      `json:"role" gorm:"type:varchar(16);not null;default:'user'"`
	Status       Status    `json:"status" gorm:"type:varchar(16);not null;default:'active';index"`
	CreatedBy    *uint     `json:"created_by,omitempty" gorm:"index"`
	CreatedAt    time.Time `json:"created_at" gorm:"index"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Weak link: deleting the creator nulls CreatedBy.
	Creator *User `json:"-" gorm:"foreignKey:CreatedBy;constraint:OnDelete:SET NULL"`
}

// IsActive reports whether the user may log in.
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// UserSummary is the dashboard projection of a recently created user.
type UserSummary struct {
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Summary projects u for the dashboard.
func (u User) Summary() UserSummary {
	return UserSummary{
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// Stats is the aggregate shown on the dashboard.
type Stats struct {
	TotalUsers    int64         `json:"total_users"`
	TodayActivity int64         `json:"today_activity"`
	RecentUsers   []UserSummary `json:"recent_users"`
}
