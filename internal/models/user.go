package models

import "time"

type UserRole string

const (
	RoleSuperuser UserRole = "superuser"
	RoleMember    UserRole = "member"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         UserRole  `gorm:"size:20;not null" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Memberships []TeamMember `json:"memberships,omitempty"`
}

func (u *User) IsSuperuser() bool {
	return u.Role == RoleSuperuser
}
