package repository

import (
	"github.com/warcat/warcat-backend/internal/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID with department memberships preloaded
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email with department memberships preloaded
	FindByEmail(email string) (*models.User, error)

	// FindByEmailAndRole finds a user holding the exact role under the given email
	FindByEmailAndRole(email string, role models.Role) (*models.User, error)

	// Update persists changes to a user record (not its memberships)
	Update(user *models.User) error

	// AddDepartment attaches a department membership to a user
	AddDepartment(dep *models.UserDepartment) error

	// RemoveDepartment detaches a department membership from a user
	RemoveDepartment(userID, departmentID uint64) error

	// ListByDepartment lists users belonging to a department
	ListByDepartment(departmentID uint64) ([]models.User, error)

	// FindRoleHolder finds the user holding the exact role in a department
	FindRoleHolder(departmentID uint64, role models.Role) (*models.User, error)

	// FindAudience lists users who belong to any of the departments and
	// whose role_type matches any tag, case-insensitively as a substring
	FindAudience(departmentIDs []uint64, tags []string) ([]models.User, error)
}

// DepartmentRepository defines the interface for department data access
type DepartmentRepository interface {
	// FindOrCreateByName returns the department with the given name,
	// creating it if it does not exist yet
	FindOrCreateByName(name string) (*models.Department, error)

	// FindByID finds a department by ID
	FindByID(id uint64) (*models.Department, error)

	// FindByName finds a department by its unique name
	FindByName(name string) (*models.Department, error)

	// Update persists changes to a department record
	Update(dep *models.Department) error

	// ListAll lists every department
	ListAll() ([]models.Department, error)

	// ListByIDs lists the departments with the given ids
	ListByIDs(ids []uint64) ([]models.Department, error)

	// Delete removes a department. Tasks and meetings referencing it are
	// left untouched.
	Delete(id uint64) error

	// Count counts all departments
	Count() (int64, error)

	// CountByIDs counts departments among the given ids
	CountByIDs(ids []uint64) (int64, error)
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// CreateBatch persists a batch of tasks with their department entries
	CreateBatch(tasks []models.Task) error

	// FindByTaskID finds a task by its generated task_id with children preloaded
	FindByTaskID(taskID string) (*models.Task, error)

	// FindBySubTaskID finds the task owning the given subtask id
	FindBySubTaskID(subTaskID string) (*models.Task, error)

	// ListAll lists all tasks newest-first with children preloaded
	ListAll() ([]models.Task, error)

	// ListByDepartments lists tasks targeting any of the departments,
	// newest-first, with children preloaded
	ListByDepartments(departmentIDs []uint64) ([]models.Task, error)

	// Update persists changes to a task record (not its children)
	Update(task *models.Task) error

	// ReplaceDepartments swaps a task's department entries
	ReplaceDepartments(taskRef uint64, deps []models.TaskDepartment) error

	// AddSubTask appends a subtask to its parent
	AddSubTask(sub *models.SubTask) error

	// UpdateSubTask persists changes to a subtask
	UpdateSubTask(sub *models.SubTask) error

	// AddNote appends a note to a task
	AddNote(note *models.TaskNote) error

	// AddCompletion appends a completion report entry to a task
	AddCompletion(completion *models.TaskCompletion) error

	// ListPendingReminder lists unfinished tasks whose reminder has not
	// been sent, with department entries preloaded
	ListPendingReminder() ([]models.Task, error)

	// MarkReminderSent flips reminder_mail to true. One-way: the flag is
	// never cleared.
	MarkReminderSent(id uint64) error

	// Count counts all tasks
	Count() (int64, error)

	// CountByStatus counts tasks with the given status, optionally
	// restricted to departments
	CountByStatus(status models.TaskStatus, departmentIDs []uint64) (int64, error)

	// CountByDepartments counts tasks targeting any of the departments
	CountByDepartments(departmentIDs []uint64) (int64, error)
}

// MeetingRepository defines the interface for meeting data access
type MeetingRepository interface {
	// Create persists a meeting with its department links
	Create(meeting *models.Meeting) error

	// FindByID finds a meeting by ID with department links preloaded
	FindByID(id uint64) (*models.Meeting, error)

	// FindByCode finds a meeting by its generated code with department
	// links preloaded
	FindByCode(code string) (*models.Meeting, error)

	// ListAll lists all meetings newest-first
	ListAll() ([]models.Meeting, error)

	// ListByDepartments lists meetings inviting any of the departments
	ListByDepartments(departmentIDs []uint64) ([]models.Meeting, error)

	// Update persists changes to a meeting record (not its links)
	Update(meeting *models.Meeting) error

	// ReplaceDepartments swaps a meeting's department links
	ReplaceDepartments(meetingID uint64, departmentIDs []uint64) error

	// ListPendingReminder lists meetings whose reminder has not been sent
	ListPendingReminder() ([]models.Meeting, error)

	// MarkReminderSent flips reminder_mail to true. One-way.
	MarkReminderSent(id uint64) error

	// Count counts all meetings
	Count() (int64, error)

	// CountByDepartments counts meetings inviting any of the departments
	CountByDepartments(departmentIDs []uint64) (int64, error)
}
