package models

import (
	"time"

	"gorm.io/datatypes"
)

type TaskStatus string

const (
	TaskStatusInitiated  TaskStatus = "initiated"
	TaskStatusInProgress TaskStatus = "inProgress"
	TaskStatusCompleted  TaskStatus = "completed"
)

type Task struct {
	ID           uint64     `gorm:"primarykey" json:"id"`
	TaskID       string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"task_id"`
	MeetingCode  string     `gorm:"type:varchar(64)" json:"meeting_id,omitempty"`
	MeetingTopic string     `gorm:"type:varchar(255)" json:"meeting_topic,omitempty"`
	TaskTitle    string     `gorm:"type:varchar(255);not null" json:"task_title"`
	TaskImage    string     `gorm:"type:varchar(512)" json:"task_image"`
	TargetDate   time.Time  `json:"target_date"`
	Status       TaskStatus `gorm:"type:varchar(20);not null;default:'initiated'" json:"status"`
	AdminVerified int       `gorm:"not null;default:0" json:"admin_verified"`
	ReminderMail bool       `gorm:"not null;default:false" json:"reminder_mail"`
	CreatedAt    time.Time  `json:"timestamp"`
	UpdatedAt    time.Time  `json:"-"`

	// Relations
	Departments []TaskDepartment `gorm:"foreignKey:TaskRef" json:"department,omitempty"`
	SubTasks    []SubTask        `gorm:"foreignKey:TaskRef" json:"sub_task,omitempty"`
	Notes       []TaskNote       `gorm:"foreignKey:TaskRef" json:"note_details,omitempty"`
	Completions []TaskCompletion `gorm:"foreignKey:TaskRef" json:"complete_upload_task_details,omitempty"`
}

// TaskDepartment targets a task at one department together with the
// role tags allowed to work on it. The department reference is weak:
// a deleted department leaves the row behind and read paths must
// tolerate the dangling id.
type TaskDepartment struct {
	TaskRef      uint64                      `gorm:"primarykey" json:"-"`
	DepartmentID uint64                      `gorm:"primarykey" json:"dep_id"`
	DepName      string                      `gorm:"type:varchar(255)" json:"dep_name"`
	Tags         datatypes.JSONSlice[string] `json:"tag"`
}

type SubTask struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	SubTaskID    string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"sub_task_id"`
	TaskRef      uint64    `gorm:"index;not null" json:"-"`
	ParentTaskID string    `gorm:"type:varchar(64);index" json:"parent_task_id"`
	SubtaskTitle string    `gorm:"type:varchar(255)" json:"subtask_title"`
	SubtaskImage string    `gorm:"type:varchar(512)" json:"subtask_image"`
	TargetDate   time.Time `json:"target_date"`
	CreatedAt    time.Time `json:"timestamp"`
}

type TaskNote struct {
	ID              uint64    `gorm:"primarykey" json:"id"`
	TaskRef         uint64    `gorm:"index;not null" json:"-"`
	NoteDescription string    `gorm:"type:text" json:"note_description"`
	NoteWrittenBy   string    `gorm:"type:varchar(255)" json:"note_written_by"`
	CreatedAt       time.Time `json:"timestamp"`
}

type TaskCompletion struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	TaskRef      uint64    `gorm:"index;not null" json:"-"`
	UploadReport string    `gorm:"type:varchar(512)" json:"upload_report"`
	Description  string    `gorm:"type:text" json:"description"`
	CreatedAt    time.Time `json:"timestamp"`
}

// BeginProgress moves an initiated task to inProgress. Adding the first
// note triggers this transition; later notes leave the status alone.
// It reports whether the status changed.
func (t *Task) BeginProgress() bool {
	if t.Status != TaskStatusInitiated {
		return false
	}
	t.Status = TaskStatusInProgress
	return true
}

// Complete moves an inProgress task to completed. Uploading a
// completion report triggers this transition; repeating the upload on a
// completed task leaves the status alone. It reports whether the status
// changed.
func (t *Task) Complete() bool {
	if t.Status != TaskStatusInProgress {
		return false
	}
	t.Status = TaskStatusCompleted
	return true
}

// Done reports whether the task counts as finished for statistics:
// completed and audited by an admin.
func (t *Task) Done() bool {
	return t.Status == TaskStatusCompleted && t.AdminVerified == 1
}

// AllowsRole reports whether the role matches a tag on any of the
// task's department entries. This gates note and completion writes.
func (t *Task) AllowsRole(role Role) bool {
	for _, dep := range t.Departments {
		if role.MatchesAnyTag(dep.Tags) {
			return true
		}
	}
	return false
}

// TargetsAnyDepartment reports whether the task targets at least one of
// the given departments.
func (t *Task) TargetsAnyDepartment(departmentIDs []uint64) bool {
	for _, dep := range t.Departments {
		for _, id := range departmentIDs {
			if dep.DepartmentID == id {
				return true
			}
		}
	}
	return false
}
