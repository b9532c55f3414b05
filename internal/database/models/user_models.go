package models

import "time"

type User struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string     `gorm:"uniqueIndex;not null" json:"username"`
	Email     string     `gorm:"uniqueIndex;not null" json:"email"`
	Password  string     `gorm:"not null" json:"-"`
	Firstname string     `gorm:"not null" json:"firstname"`
	Lastname  string     `gorm:"not null" json:"lastname"`
	RoleID    int32      `gorm:"not null" json:"role_id"`
	Role      Role       `gorm:"foreignKey:RoleID" json:"role"`
	IsActive  bool       `gorm:"default:false" json:"is_active"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt *time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type Role struct {
	ID          int32      `gorm:"primaryKey;autoIncrement" json:"id"`
	RoleName    string     `gorm:"uniqueIndex;not null" json:"role_name"`
	AccessLevel int32      `gorm:"not null" json:"access_level"`
	CreatedAt   *time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   *time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
