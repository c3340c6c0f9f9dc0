package dto

import (
	"github.com/warcat/warcat-backend/internal/constants"
	"github.com/warcat/warcat-backend/internal/models"
)

// RoleHolderDTO is the public profile of a department's secretary or
// head of office.
type RoleHolderDTO struct {
	Email       string      `json:"email"`
	Name        string      `json:"name"`
	RoleType    models.Role `json:"role_type"`
	Designation string      `json:"designation"`
	PhoneNumber string      `json:"phone_number"`
}

// DepartmentDetailsDTO is one entry in the department listing: the
// department record together with its two canonical role-holders.
type DepartmentDetailsDTO struct {
	ID         string            `json:"id"`
	Department models.Department `json:"department"`
	Secretary  *RoleHolderDTO    `json:"secretary"`
	HeadOffice *RoleHolderDTO    `json:"headOffice"`
}

// ToRoleHolderDTO converts a User model to RoleHolderDTO
func ToRoleHolderDTO(user *models.User) *RoleHolderDTO {
	if user == nil {
		return nil
	}
	return &RoleHolderDTO{
		Email:       user.Email,
		Name:        user.Name,
		RoleType:    user.RoleType,
		Designation: user.Designation,
		PhoneNumber: user.PhoneNumber,
	}
}

// ToDepartmentDetailsDTO assembles a department listing entry
func ToDepartmentDetailsDTO(dep models.Department, secretary, headOffice *models.User) DepartmentDetailsDTO {
	return DepartmentDetailsDTO{
		ID:         constants.DepartmentIDPrefix + formatID(dep.ID),
		Department: dep,
		Secretary:  ToRoleHolderDTO(secretary),
		HeadOffice: ToRoleHolderDTO(headOffice),
	}
}
