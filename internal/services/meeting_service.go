package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/warcat/warcat-backend/internal/mailer"
	"github.com/warcat/warcat-backend/internal/models"
	"github.com/warcat/warcat-backend/internal/repository"
	"github.com/warcat/warcat-backend/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrMeetingNotFound    = errors.New("meeting not found")
	ErrNoMeetingsFound    = errors.New("no meetings found for the user")
	ErrUnknownDepartments = errors.New("one or more departments do not exist")
)

// MeetingService handles meeting scheduling business logic
type MeetingService struct {
	meetingRepo repository.MeetingRepository
	deptRepo    repository.DepartmentRepository
	userRepo    repository.UserRepository
	notifier    mailer.Notifier
}

// NewMeetingService creates a new MeetingService
func NewMeetingService(meetingRepo repository.MeetingRepository, deptRepo repository.DepartmentRepository, userRepo repository.UserRepository, notifier mailer.Notifier) *MeetingService {
	return &MeetingService{
		meetingRepo: meetingRepo,
		deptRepo:    deptRepo,
		userRepo:    userRepo,
		notifier:    notifier,
	}
}

// AddMeetingInput represents input for scheduling a meeting.
type AddMeetingInput struct {
	DepartmentIDs []uint64
	Tags          []string
	MeetingTopic  string
	SelectDate    string
	SelectTime    string
	ImageURL      string
}

// AddMeeting schedules a meeting across departments, stamps it with a
// generated code and notifies the tag-matched audience.
func (s *MeetingService) AddMeeting(input AddMeetingInput) (*models.Meeting, error) {
	var violations []string
	if len(input.DepartmentIDs) == 0 {
		violations = append(violations, "department_ids is required")
	}
	if len(input.Tags) == 0 {
		violations = append(violations, "tag is required")
	}
	if input.MeetingTopic == "" {
		violations = append(violations, "meeting_topic is required")
	}
	date, err := parseDate(input.SelectDate)
	if err != nil {
		violations = append(violations, "select_date is not a valid date")
	}
	if _, err := time.Parse("15:04", input.SelectTime); err != nil {
		violations = append(violations, "select_time must be HH:MM")
	}
	if len(violations) > 0 {
		return nil, &ValidationError{Fields: violations}
	}

	count, err := s.deptRepo.CountByIDs(input.DepartmentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to check departments: %w", err)
	}
	if count != int64(len(input.DepartmentIDs)) {
		return nil, ErrUnknownDepartments
	}

	meeting := &models.Meeting{
		MeetingCode:  utils.NewMeetingCode(time.Now()),
		MeetingTopic: input.MeetingTopic,
		SelectDate:   date,
		SelectTime:   input.SelectTime,
		ImageURL:     input.ImageURL,
		Tags:         input.Tags,
	}
	for _, depID := range input.DepartmentIDs {
		meeting.Departments = append(meeting.Departments, models.MeetingDepartment{DepartmentID: depID})
	}

	if err := s.meetingRepo.Create(meeting); err != nil {
		return nil, fmt.Errorf("failed to create meeting: %w", err)
	}

	s.notifyMeetingAudience(meeting, "Added")

	return meeting, nil
}

// EditMeetingInput represents an allow-listed partial meeting update,
// addressed by the generated meeting code.
type EditMeetingInput struct {
	MeetingCode   string
	DepartmentIDs *[]uint64
	Tags          *[]string
	MeetingTopic  *string
	SelectDate    *string
	SelectTime    *string
	ImageURL      *string
}

// EditMeeting applies the provided fields and re-notifies the audience
// computed from the updated departments and tags.
func (s *MeetingService) EditMeeting(input EditMeetingInput) (*models.Meeting, error) {
	meeting, err := s.meetingRepo.FindByCode(input.MeetingCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMeetingNotFound
		}
		return nil, fmt.Errorf("failed to find meeting: %w", err)
	}

	var violations []string
	var date time.Time
	if input.SelectDate != nil {
		date, err = parseDate(*input.SelectDate)
		if err != nil {
			violations = append(violations, "select_date is not a valid date")
		}
	}
	if input.SelectTime != nil {
		if _, err := time.Parse("15:04", *input.SelectTime); err != nil {
			violations = append(violations, "select_time must be HH:MM")
		}
	}
	if len(violations) > 0 {
		return nil, &ValidationError{Fields: violations}
	}

	if input.MeetingTopic != nil {
		meeting.MeetingTopic = *input.MeetingTopic
	}
	if input.SelectDate != nil {
		meeting.SelectDate = date
	}
	if input.SelectTime != nil {
		meeting.SelectTime = *input.SelectTime
	}
	if input.ImageURL != nil {
		meeting.ImageURL = *input.ImageURL
	}
	if input.Tags != nil {
		meeting.Tags = *input.Tags
	}

	if input.DepartmentIDs != nil {
		count, err := s.deptRepo.CountByIDs(*input.DepartmentIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to check departments: %w", err)
		}
		if count != int64(len(*input.DepartmentIDs)) {
			return nil, ErrUnknownDepartments
		}
		if err := s.meetingRepo.ReplaceDepartments(meeting.ID, *input.DepartmentIDs); err != nil {
			return nil, fmt.Errorf("failed to replace meeting departments: %w", err)
		}
		meeting.Departments = meeting.Departments[:0]
		for _, depID := range *input.DepartmentIDs {
			meeting.Departments = append(meeting.Departments, models.MeetingDepartment{
				MeetingID:    meeting.ID,
				DepartmentID: depID,
			})
		}
	}

	if err := s.meetingRepo.Update(meeting); err != nil {
		return nil, fmt.Errorf("failed to update meeting: %w", err)
	}

	s.notifyMeetingAudience(meeting, "Updated")

	return meeting, nil
}

// ListMeetings returns the meetings visible to the caller. Admin
// callers see everything; others see meetings inviting any of their
// departments. An empty result is reported as not found.
func (s *MeetingService) ListMeetings(callerRole models.Role, callerUserID uint64) ([]models.Meeting, error) {
	if callerRole == models.RoleAdmin {
		meetings, err := s.meetingRepo.ListAll()
		if err != nil {
			return nil, fmt.Errorf("failed to list meetings: %w", err)
		}
		return meetings, nil
	}

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

	meetings, err := s.meetingRepo.ListByDepartments(user.DepartmentIDs())
	if err != nil {
		return nil, fmt.Errorf("failed to list meetings: %w", err)
	}
	if len(meetings) == 0 {
		return nil, ErrNoMeetingsFound
	}
	return meetings, nil
}

// notifyMeetingAudience sends a best-effort notification to users in
// the invited departments whose role matches any meeting tag.
func (s *MeetingService) notifyMeetingAudience(meeting *models.Meeting, action string) {
	users, err := s.userRepo.FindAudience(meeting.DepartmentIDs(), meeting.Tags)
	if err != nil || len(users) == 0 {
		return
	}

	emails := make([]string, 0, len(users))
	for _, u := range users {
		emails = append(emails, u.Email)
	}

	body := fmt.Sprintf(
		"Dear User,\n\nYour meeting has been %s successfully.\n\nMeeting Details:\nTopic: %s\nDate: %s\nTime: %s\n",
		strings.ToLower(action), meeting.MeetingTopic, meeting.SelectDate.Format("2006-01-02"), meeting.SelectTime,
	)

	s.notifier.Enqueue(emails, fmt.Sprintf("Meeting %s Successfully", action), body)
}
