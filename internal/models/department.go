package models

import "time"

type Department struct {
	ID             uint64    `gorm:"primarykey" json:"id"`
	DepartmentName string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"department_name"`
	CreatedAt      time.Time `json:"created_at"`
}
