// Package models contains the persistent entities and shared error types of the site.
package models

import (
	"time"
)

// User is an account that can sign in, own a profile and place orders.
type User struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Username  string     `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email     string     `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Password  string     `gorm:"not null" json:"-"`
	IsActive  bool       `gorm:"not null;default:false" json:"is_active"`
	IsStaff   bool       `gorm:"not null;default:false" json:"is_staff"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// Profile holds optional public details for a user.
type Profile struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	User   *User  `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Bio    string `gorm:"type:text" json:"bio"`
}
