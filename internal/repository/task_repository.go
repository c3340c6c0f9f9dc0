package repository

import (
	"github.com/warcat/warcat-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// taskPreloads are the child collections loaded with every task read.
var taskPreloads = []string{"Departments", "SubTasks", "Notes", "Completions"}

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

func (r *GormTaskRepository) withPreloads() *gorm.DB {
	query := r.db
	for _, p := range taskPreloads {
		query = query.Preload(p)
	}
	return query
}

func (r *GormTaskRepository) CreateBatch(tasks []models.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	return r.db.Create(&tasks).Error
}

func (r *GormTaskRepository) FindByTaskID(taskID string) (*models.Task, error) {
	var task models.Task
	if err := r.withPreloads().Where("task_id = ?", taskID).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *GormTaskRepository) FindBySubTaskID(subTaskID string) (*models.Task, error) {
	var sub models.SubTask
	if err := r.db.Where("sub_task_id = ?", subTaskID).First(&sub).Error; err != nil {
		return nil, err
	}

	var task models.Task
	if err := r.withPreloads().First(&task, sub.TaskRef).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *GormTaskRepository) ListAll() ([]models.Task, error) {
	var tasks []models.Task
	err := r.withPreloads().Order("created_at DESC").Find(&tasks).Error
	return tasks, err
}

func (r *GormTaskRepository) ListByDepartments(departmentIDs []uint64) ([]models.Task, error) {
	if len(departmentIDs) == 0 {
		return []models.Task{}, nil
	}

	sub := r.db.Model(&models.TaskDepartment{}).
		Select("1").
		Where("task_departments.task_ref = tasks.id").
		Where("task_departments.department_id IN ?", departmentIDs)

	var tasks []models.Task
	err := r.withPreloads().
		Where("EXISTS (?)", sub).
		Order("created_at DESC").
		Find(&tasks).Error
	return tasks, err
}

func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Omit(clause.Associations).Save(task).Error
}

func (r *GormTaskRepository) ReplaceDepartments(taskRef uint64, deps []models.TaskDepartment) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_ref = ?", taskRef).Delete(&models.TaskDepartment{}).Error; err != nil {
			return err
		}
		for i := range deps {
			deps[i].TaskRef = taskRef
		}
		if len(deps) == 0 {
			return nil
		}
		return tx.Create(&deps).Error
	})
}

func (r *GormTaskRepository) AddSubTask(sub *models.SubTask) error {
	return r.db.Create(sub).Error
}

func (r *GormTaskRepository) UpdateSubTask(sub *models.SubTask) error {
	return r.db.Save(sub).Error
}

func (r *GormTaskRepository) AddNote(note *models.TaskNote) error {
	return r.db.Create(note).Error
}

func (r *GormTaskRepository) AddCompletion(completion *models.TaskCompletion) error {
	return r.db.Create(completion).Error
}

func (r *GormTaskRepository) ListPendingReminder() ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.Preload("Departments").
		Where("status IN ?", []models.TaskStatus{models.TaskStatusInitiated, models.TaskStatusInProgress}).
		Where("reminder_mail = ?", false).
		Find(&tasks).Error
	return tasks, err
}

// MarkReminderSent is a single-row update; its atomicity is all the
// dispatcher relies on to keep reminders at-most-once.
func (r *GormTaskRepository) MarkReminderSent(id uint64) error {
	return r.db.Model(&models.Task{}).Where("id = ?", id).
		Update("reminder_mail", true).Error
}

func (r *GormTaskRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Task{}).Count(&count).Error
	return count, err
}

func (r *GormTaskRepository) CountByStatus(status models.TaskStatus, departmentIDs []uint64) (int64, error) {
	query := r.db.Model(&models.Task{}).Where("status = ?", status)
	if len(departmentIDs) > 0 {
		sub := r.db.Model(&models.TaskDepartment{}).
			Select("1").
			Where("task_departments.task_ref = tasks.id").
			Where("task_departments.department_id IN ?", departmentIDs)
		query = query.Where("EXISTS (?)", sub)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

func (r *GormTaskRepository) CountByDepartments(departmentIDs []uint64) (int64, error) {
	if len(departmentIDs) == 0 {
		return 0, nil
	}
	sub := r.db.Model(&models.TaskDepartment{}).
		Select("1").
		Where("task_departments.task_ref = tasks.id").
		Where("task_departments.department_id IN ?", departmentIDs)

	var count int64
	err := r.db.Model(&models.Task{}).Where("EXISTS (?)", sub).Count(&count).Error
	return count, err
}
