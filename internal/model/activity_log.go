package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Audit actions.
const (
	ActionLogin      = "Login"
	ActionLogout     = "Logout"
	ActionCreateUser = "Create User"
	ActionUpdateUser = "Update User"
	ActionDeleteUser = "Delete User"
)

// ActivityLog is a write-once audit entry.
// UserID is non-null at write time and nulled when the actor is deleted,
// so the trail outlives the account.
type ActivityLog struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	// Seq is the insertion order; it breaks ties between entries written in the same tick.
	Seq       uint64    `json:"-" gorm:"autoIncrement;uniqueIndex;not null"`
	UserID    *uint     `json:"user_id" gorm:"index"`
	Action    string    `json:"action" gorm:"size:255;not null;index"`
	Details   string    `json:"details,omitempty" gorm:"type:text"`
	IPAddress string    `json:"ip_address,omitempty" gorm:"size:45"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`

	// Relations
	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`
}

// BeforeCreate sets UUID before creating the record.
func (l *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// ActorName returns the name of the acting user, if it was loaded and still exists.
func (l *ActivityLog) ActorName() string {
	if l.User == nil {
		return ""
	}
	return l.User.Name
}
