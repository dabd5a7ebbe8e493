package model

import "time"

type User struct {
	ID                int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	RealName          string    `gorm:"not null;size:255" json:"real_name"`
	Email             string    `gorm:"not null;uniqueIndex;size:255" json:"email"`
	Phone             string    `gorm:"not null;uniqueIndex;size:32" json:"phone"`
	Gender            string    `gorm:"not null;size:10" json:"gender"`
	Role              string    `gorm:"not null;default:'user';size:20" json:"role"`
	GeneratedUsername string    `gorm:"not null;uniqueIndex;size:20" json:"generated_username"`
	PasswordHash      string    `gorm:"not null" json:"-"`
	TokenVersion      int64     `gorm:"not null;default:0" json:"-"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// Role constants
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)
