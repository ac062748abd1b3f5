package models

import "gorm.io/gorm"

const RoleAdmin = "admin"

// User mirrors the columns of the shared users table that this service reads.
type User struct {
	gorm.Model
	Username string `gorm:"unique;not null" json:"username"`
	Email    string `gorm:"unique;not null" json:"email"`
	Role     string `gorm:"default:user" json:"role"` // user, admin
}
