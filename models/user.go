package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleSubmitter UserRole = "submitter"
	RoleModerator UserRole = "moderator"
	RoleAnalyst   UserRole = "analyst"
	RoleAdmin     UserRole = "admin"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleSubmitter, RoleModerator, RoleAnalyst, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID        string    `json:"id" gorm:"primaryKey;size:24"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"not null"`
	Name      string    `json:"name" gorm:"not null"`
	Role      UserRole  `json:"role" gorm:"default:'submitter'"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = NewObjectID()
	}
	return nil
}
