package models

import "gorm.io/gorm"

// User approval workflow states. New users sync in as pending and cannot
// start practice until an admin approves them.
const (
	UserPending  = "pending"
	UserApproved = "approved"
	UserRejected = "rejected"
)

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// User represents a user in the system
type User struct {
	gorm.Model
	Auth0ID  string `gorm:"unique;not null;size:100"`
	Nickname string `gorm:"size:100"`
	Role     string `gorm:"not null;default:student;size:20"`
	Status   string `gorm:"not null;default:pending;size:20"`
	// Region code the user prepares for, e.g. "madrid" or "valencia".
	Region string `gorm:"size:50"`

	Sessions     []PracticeSession `gorm:"foreignKey:UserID"`
	Subscription *Subscription     `gorm:"foreignKey:UserID"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsApproved() bool {
	return u.Status == UserApproved
}
