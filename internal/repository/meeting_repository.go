package repository

import (
	"github.com/warcat/warcat-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormMeetingRepository is a GORM implementation of MeetingRepository
type GormMeetingRepository struct {
	db *gorm.DB
}

// NewMeetingRepository creates a new MeetingRepository
func NewMeetingRepository(db *gorm.DB) MeetingRepository {
	return &GormMeetingRepository{db: db}
}

func (r *GormMeetingRepository) Create(meeting *models.Meeting) error {
	return r.db.Create(meeting).Error
}

func (r *GormMeetingRepository) FindByID(id uint64) (*models.Meeting, error) {
	var meeting models.Meeting
	if err := r.db.Preload("Departments").First(&meeting, id).Error; err != nil {
		return nil, err
	}
	return &meeting, nil
}

func (r *GormMeetingRepository) FindByCode(code string) (*models.Meeting, error) {
	var meeting models.Meeting
	if err := r.db.Preload("Departments").Where("meeting_code = ?", code).First(&meeting).Error; err != nil {
		return nil, err
	}
	return &meeting, nil
}

func (r *GormMeetingRepository) ListAll() ([]models.Meeting, error) {
	var meetings []models.Meeting
	err := r.db.Preload("Departments").Order("created_at DESC").Find(&meetings).Error
	return meetings, err
}

func (r *GormMeetingRepository) ListByDepartments(departmentIDs []uint64) ([]models.Meeting, error) {
	if len(departmentIDs) == 0 {
		return []models.Meeting{}, nil
	}

	sub := r.db.Model(&models.MeetingDepartment{}).
		Select("1").
		Where("meeting_departments.meeting_id = meetings.id").
		Where("meeting_departments.department_id IN ?", departmentIDs)

	var meetings []models.Meeting
	err := r.db.Preload("Departments").
		Where("EXISTS (?)", sub).
		Order("created_at DESC").
		Find(&meetings).Error
	return meetings, err
}

func (r *GormMeetingRepository) Update(meeting *models.Meeting) error {
	return r.db.Omit(clause.Associations).Save(meeting).Error
}

func (r *GormMeetingRepository) ReplaceDepartments(meetingID uint64, departmentIDs []uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("meeting_id = ?", meetingID).Delete(&models.MeetingDepartment{}).Error; err != nil {
			return err
		}
		if len(departmentIDs) == 0 {
			return nil
		}
		links := make([]models.MeetingDepartment, len(departmentIDs))
		for i, depID := range departmentIDs {
			links[i] = models.MeetingDepartment{MeetingID: meetingID, DepartmentID: depID}
		}
		return tx.Create(&links).Error
	})
}

func (r *GormMeetingRepository) ListPendingReminder() ([]models.Meeting, error) {
	var meetings []models.Meeting
	err := r.db.Preload("Departments").
		Where("reminder_mail = ?", false).
		Find(&meetings).Error
	return meetings, err
}

// MarkReminderSent is a single-row update; once set the meeting is
// never scanned again.
func (r *GormMeetingRepository) MarkReminderSent(id uint64) error {
	return r.db.Model(&models.Meeting{}).Where("id = ?", id).
		Update("reminder_mail", true).Error
}

func (r *GormMeetingRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Meeting{}).Count(&count).Error
	return count, err
}

func (r *GormMeetingRepository) CountByDepartments(departmentIDs []uint64) (int64, error) {
	if len(departmentIDs) == 0 {
		return 0, nil
	}
	sub := r.db.Model(&models.MeetingDepartment{}).
		Select("1").
		Where("meeting_departments.meeting_id = meetings.id").
		Where("meeting_departments.department_id IN ?", departmentIDs)

	var count int64
	err := r.db.Model(&models.Meeting{}).Where("EXISTS (?)", sub).Count(&count).Error
	return count, err
}
