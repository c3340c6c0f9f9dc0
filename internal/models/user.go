package models

import (
	"time"
)

type User struct {
	ID             uint64     `gorm:"primarykey" json:"id"`
	Email          string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash   string     `gorm:"type:varchar(255);not null" json:"-"`
	Name           string     `gorm:"type:varchar(255)" json:"name"`
	RoleType       Role       `gorm:"type:varchar(50);not null" json:"role_type"`
	PhoneNumber    string     `gorm:"type:varchar(20)" json:"phone_number"`
	Designation    string     `gorm:"type:varchar(255)" json:"designation"`
	LastLogin      *time.Time `json:"last_login,omitempty"`
	ResetOTP       string     `gorm:"type:varchar(10)" json:"-"`
	ResetOTPExpiry *time.Time `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	// Relations
	Departments []UserDepartment `gorm:"foreignKey:UserID" json:"departments,omitempty"`
}

// UserDepartment records a user's membership in a department. The
// department name is denormalized alongside the id, matching the shape
// tasks and meetings carry.
type UserDepartment struct {
	UserID       uint64 `gorm:"primarykey" json:"-"`
	DepartmentID uint64 `gorm:"primarykey" json:"dep_id"`
	DepName      string `gorm:"type:varchar(255)" json:"dep_name"`
}

// DepartmentIDs returns the ids of all departments the user belongs to.
func (u *User) DepartmentIDs() []uint64 {
	ids := make([]uint64, 0, len(u.Departments))
	for _, d := range u.Departments {
		ids = append(ids, d.DepartmentID)
	}
	return ids
}

// MemberOf reports whether the user belongs to the given department.
func (u *User) MemberOf(departmentID uint64) bool {
	for _, d := range u.Departments {
		if d.DepartmentID == departmentID {
			return true
		}
	}
	return false
}
