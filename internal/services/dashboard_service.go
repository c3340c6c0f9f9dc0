package services

import (
	"errors"
	"fmt"

	"github.com/warcat/warcat-backend/internal/dto"
	"github.com/warcat/warcat-backend/internal/models"
	"github.com/warcat/warcat-backend/internal/repository"
	"gorm.io/gorm"
)

// DashboardService aggregates counters for the landing dashboard
type DashboardService struct {
	deptRepo    repository.DepartmentRepository
	taskRepo    repository.TaskRepository
	meetingRepo repository.MeetingRepository
	userRepo    repository.UserRepository
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(deptRepo repository.DepartmentRepository, taskRepo repository.TaskRepository, meetingRepo repository.MeetingRepository, userRepo repository.UserRepository) *DashboardService {
	return &DashboardService{
		deptRepo:    deptRepo,
		taskRepo:    taskRepo,
		meetingRepo: meetingRepo,
		userRepo:    userRepo,
	}
}

// GetStatistics returns the dashboard counters. Admin callers get
// global counts; others get counts restricted to their departments.
// The completed counter goes by status alone, not admin verification.
func (s *DashboardService) GetStatistics(callerRole models.Role, callerUserID uint64) (*dto.StatisticsDTO, error) {
	var departmentIDs []uint64

	if callerRole != models.RoleAdmin {
		user, err := s.userRepo.FindByID(callerUserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, fmt.Errorf("failed to find user: %w", err)
		}
		if !user.RoleType.Equals(callerRole) {
			return nil, ErrRoleMismatch
		}
		departmentIDs = user.DepartmentIDs()
		if len(departmentIDs) == 0 {
			return &dto.StatisticsDTO{}, nil
		}
	}

	var out dto.StatisticsDTO
	var err error

	if callerRole == models.RoleAdmin {
		out.TotalDepartments, err = s.deptRepo.Count()
	} else {
		out.TotalDepartments, err = s.deptRepo.CountByIDs(departmentIDs)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to count departments: %w", err)
	}

	out.CompletedTasks, err = s.taskRepo.CountByStatus(models.TaskStatusCompleted, departmentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to count completed tasks: %w", err)
	}

	if callerRole == models.RoleAdmin {
		out.TotalMeetings, err = s.meetingRepo.Count()
	} else {
		out.TotalMeetings, err = s.meetingRepo.CountByDepartments(departmentIDs)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to count meetings: %w", err)
	}

	if callerRole == models.RoleAdmin {
		out.AssignedTasks, err = s.taskRepo.Count()
	} else {
		out.AssignedTasks, err = s.taskRepo.CountByDepartments(departmentIDs)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}

	return &out, nil
}
