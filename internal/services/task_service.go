package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/warcat/warcat-backend/internal/dto"
	"github.com/warcat/warcat-backend/internal/mailer"
	"github.com/warcat/warcat-backend/internal/models"
	"github.com/warcat/warcat-backend/internal/repository"
	"github.com/warcat/warcat-backend/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound     = errors.New("task not found")
	ErrSubTaskNotFound  = errors.New("subtask not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrRoleMismatch     = errors.New("user role does not match the claimed role")
	ErrRoleNotAllowed   = errors.New("user role not allowed for this task")
	ErrNotAdmin         = errors.New("user is not an admin")
	ErrNoTasksFound     = errors.New("no tasks found for the user")
	ErrInvalidFlagValue = errors.New("admin_verified flag must be 0 or 1")
)

// ValidationError lists every violated field in a request. Validation
// is all-or-nothing: a single malformed entry rejects the whole batch.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, ", ")
}

// dateLayouts are the accepted target date formats.
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

func parseDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", value)
}

// TaskService handles task lifecycle business logic
type TaskService struct {
	taskRepo repository.TaskRepository
	userRepo repository.UserRepository
	notifier mailer.Notifier
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, userRepo repository.UserRepository, notifier mailer.Notifier) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		userRepo: userRepo,
		notifier: notifier,
	}
}

// AddTaskItem is one task to be created under a department entry.
type AddTaskItem struct {
	Title      string
	Image      string
	TargetDate string
}

// AddTaskDepartment targets a batch of tasks at one department.
type AddTaskDepartment struct {
	DepID   uint64
	DepName string
	Tags    []string
	Tasks   []AddTaskItem
}

// AddTaskInput represents input for creating a batch of tasks.
type AddTaskInput struct {
	MeetingID    string
	MeetingTopic string
	Departments  []AddTaskDepartment
}

// AddTask creates one task per (department, task) pair. Each gets a
// fresh unique task_id. After persisting, the matching audience gets a
// best-effort "task added" notification.
func (s *TaskService) AddTask(input AddTaskInput) ([]models.Task, error) {
	var violations []string
	if len(input.Departments) == 0 {
		violations = append(violations, "department is required")
	}
	targetDates := make(map[int]map[int]time.Time, len(input.Departments))
	for i, dep := range input.Departments {
		if dep.DepID == 0 {
			violations = append(violations, fmt.Sprintf("department[%d].dep_id is required", i))
		}
		if dep.DepName == "" {
			violations = append(violations, fmt.Sprintf("department[%d].dep_name is required", i))
		}
		if len(dep.Tags) == 0 {
			violations = append(violations, fmt.Sprintf("department[%d].tag is required", i))
		}
		if len(dep.Tasks) == 0 {
			violations = append(violations, fmt.Sprintf("department[%d].tasks is required", i))
		}
		targetDates[i] = make(map[int]time.Time, len(dep.Tasks))
		for j, item := range dep.Tasks {
			if item.Title == "" {
				violations = append(violations, fmt.Sprintf("department[%d].tasks[%d].taskTitle is required", i, j))
			}
			if item.Image == "" {
				violations = append(violations, fmt.Sprintf("department[%d].tasks[%d].uploadImage is required", i, j))
			}
			target, err := parseDate(item.TargetDate)
			if err != nil {
				violations = append(violations, fmt.Sprintf("department[%d].tasks[%d].targetDate is not a valid date", i, j))
				continue
			}
			targetDates[i][j] = target
		}
	}
	if len(violations) > 0 {
		return nil, &ValidationError{Fields: violations}
	}

	var tasks []models.Task
	for i, dep := range input.Departments {
		for j, item := range dep.Tasks {
			tasks = append(tasks, models.Task{
				TaskID:       utils.NewTaskID(),
				MeetingCode:  input.MeetingID,
				MeetingTopic: input.MeetingTopic,
				TaskTitle:    item.Title,
				TaskImage:    item.Image,
				TargetDate:   targetDates[i][j],
				Status:       models.TaskStatusInitiated,
				Departments: []models.TaskDepartment{{
					DepartmentID: dep.DepID,
					DepName:      dep.DepName,
					Tags:         dep.Tags,
				}},
			})
		}
	}

	if err := s.taskRepo.CreateBatch(tasks); err != nil {
		return nil, fmt.Errorf("failed to create tasks: %w", err)
	}

	s.notifyTaskAudience(tasks, "Added")

	return tasks, nil
}

// GetTasks returns the tasks visible to the caller. Admin callers see
// everything; others see tasks targeting their departments whose tags
// match their role. An empty result is reported as not found.
func (s *TaskService) GetTasks(callerRole models.Role, callerUserID uint64) ([]models.Task, error) {
	if callerRole == models.RoleAdmin {
		tasks, err := s.taskRepo.ListAll()
		if err != nil {
			return nil, fmt.Errorf("failed to list tasks: %w", err)
		}
		return tasks, nil
	}

	tasks, err := s.visibleTasks(callerRole, callerUserID)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, ErrNoTasksFound
	}
	return tasks, nil
}

// EditTaskInput represents an allow-listed partial task update. Only
// non-nil fields are applied.
type EditTaskInput struct {
	TaskID      string
	Departments *[]AddTaskDepartment
	Title       *string
	Image       *string
	TargetDate  *string
}

// EditTask applies a partial update and re-notifies the audience
// computed from the updated department/tag set.
func (s *TaskService) EditTask(input EditTaskInput) (*models.Task, error) {
	task, err := s.taskRepo.FindByTaskID(input.TaskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	var violations []string
	var target time.Time
	if input.TargetDate != nil {
		target, err = parseDate(*input.TargetDate)
		if err != nil {
			violations = append(violations, "target_date is not a valid date")
		}
	}
	if input.Title != nil && *input.Title == "" {
		violations = append(violations, "task_title cannot be empty")
	}
	if len(violations) > 0 {
		return nil, &ValidationError{Fields: violations}
	}

	if input.Title != nil {
		task.TaskTitle = *input.Title
	}
	if input.Image != nil {
		task.TaskImage = *input.Image
	}
	if input.TargetDate != nil {
		task.TargetDate = target
	}

	if input.Departments != nil {
		deps := make([]models.TaskDepartment, 0, len(*input.Departments))
		for _, dep := range *input.Departments {
			deps = append(deps, models.TaskDepartment{
				DepartmentID: dep.DepID,
				DepName:      dep.DepName,
				Tags:         dep.Tags,
			})
		}
		if err := s.taskRepo.ReplaceDepartments(task.ID, deps); err != nil {
			return nil, fmt.Errorf("failed to replace task departments: %w", err)
		}
		task.Departments = deps
	}

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.notifyTaskAudience([]models.Task{*task}, "Updated")

	return task, nil
}

// AddSubTask appends a subtask with a fresh id to the parent task.
func (s *TaskService) AddSubTask(parentTaskID, title, image, targetDate string) (*models.SubTask, error) {
	var violations []string
	if title == "" {
		violations = append(violations, "subtask_title is required")
	}
	if image == "" {
		violations = append(violations, "subtask_image is required")
	}
	target, err := parseDate(targetDate)
	if err != nil {
		violations = append(violations, "subtask_target_date is not a valid date")
	}
	if len(violations) > 0 {
		return nil, &ValidationError{Fields: violations}
	}

	parent, err := s.taskRepo.FindByTaskID(parentTaskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find parent task: %w", err)
	}

	sub := &models.SubTask{
		SubTaskID:    utils.NewSubTaskID(),
		TaskRef:      parent.ID,
		ParentTaskID: parent.TaskID,
		SubtaskTitle: title,
		SubtaskImage: image,
		TargetDate:   target,
	}
	if err := s.taskRepo.AddSubTask(sub); err != nil {
		return nil, fmt.Errorf("failed to add subtask: %w", err)
	}
	return sub, nil
}

// EditSubTaskInput represents an allow-listed partial subtask update.
type EditSubTaskInput struct {
	SubTaskID  string
	Title      *string
	Image      *string
	TargetDate *string
}

// EditSubTask locates the owning task by subtask id and applies only
// the provided fields.
func (s *TaskService) EditSubTask(input EditSubTaskInput) (*models.SubTask, error) {
	task, err := s.taskRepo.FindBySubTaskID(input.SubTaskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubTaskNotFound
		}
		return nil, fmt.Errorf("failed to find subtask: %w", err)
	}

	var sub *models.SubTask
	for i := range task.SubTasks {
		if task.SubTasks[i].SubTaskID == input.SubTaskID {
			sub = &task.SubTasks[i]
			break
		}
	}
	if sub == nil {
		return nil, ErrSubTaskNotFound
	}

	if input.TargetDate != nil {
		target, err := parseDate(*input.TargetDate)
		if err != nil {
			return nil, &ValidationError{Fields: []string{"subtask_target_date is not a valid date"}}
		}
		sub.TargetDate = target
	}
	if input.Title != nil {
		sub.SubtaskTitle = *input.Title
	}
	if input.Image != nil {
		sub.SubtaskImage = *input.Image
	}

	if err := s.taskRepo.UpdateSubTask(sub); err != nil {
		return nil, fmt.Errorf("failed to update subtask: %w", err)
	}
	return sub, nil
}

// AddNote appends a note to the task. The caller's role must match one
// of the task's department tags. Adding the first note moves an
// initiated task to inProgress.
func (s *TaskService) AddNote(taskID, description, writtenBy string, callerRole models.Role) (*models.Task, error) {
	if description == "" || writtenBy == "" {
		var violations []string
		if description == "" {
			violations = append(violations, "note_description is required")
		}
		if writtenBy == "" {
			violations = append(violations, "note_written_by is required")
		}
		return nil, &ValidationError{Fields: violations}
	}

	task, err := s.taskRepo.FindByTaskID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if !task.AllowsRole(callerRole) {
		return nil, ErrRoleNotAllowed
	}

	note := &models.TaskNote{
		TaskRef:         task.ID,
		NoteDescription: description,
		NoteWrittenBy:   writtenBy,
	}
	if err := s.taskRepo.AddNote(note); err != nil {
		return nil, fmt.Errorf("failed to add note: %w", err)
	}
	task.Notes = append(task.Notes, *note)

	if task.BeginProgress() {
		if err := s.taskRepo.Update(task); err != nil {
			return nil, fmt.Errorf("failed to update task status: %w", err)
		}
	}

	return task, nil
}

// UploadCompletion appends a completion report. Same tag-based
// authorization as AddNote; an inProgress task moves to completed.
func (s *TaskService) UploadCompletion(taskID, report, description string, callerRole models.Role) (*models.Task, error) {
	if report == "" || description == "" {
		var violations []string
		if report == "" {
			violations = append(violations, "upload_report is required")
		}
		if description == "" {
			violations = append(violations, "description is required")
		}
		return nil, &ValidationError{Fields: violations}
	}

	task, err := s.taskRepo.FindByTaskID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if !task.AllowsRole(callerRole) {
		return nil, ErrRoleNotAllowed
	}

	completion := &models.TaskCompletion{
		TaskRef:      task.ID,
		UploadReport: report,
		Description:  description,
	}
	if err := s.taskRepo.AddCompletion(completion); err != nil {
		return nil, fmt.Errorf("failed to add completion details: %w", err)
	}
	task.Completions = append(task.Completions, *completion)

	if task.Complete() {
		if err := s.taskRepo.Update(task); err != nil {
			return nil, fmt.Errorf("failed to update task status: %w", err)
		}
	}

	return task, nil
}

// SetAdminVerified sets the admin_verified flag to 0 or 1. Only a
// caller whose stored role_type is exactly "admin" may do this; the
// flag is independent of the task's status.
func (s *TaskService) SetAdminVerified(taskID string, callerUserID uint64, flag int) (*models.Task, error) {
	if flag != 0 && flag != 1 {
		return nil, ErrInvalidFlagValue
	}

	user, err := s.userRepo.FindByID(callerUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !user.RoleType.Equals(models.RoleAdmin) {
		return nil, ErrNotAdmin
	}

	task, err := s.taskRepo.FindByTaskID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	task.AdminVerified = flag
	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return task, nil
}

// statusKeywords are the status buckets reported by the breakdown.
var statusKeywords = []models.TaskStatus{
	models.TaskStatusCompleted,
	models.TaskStatusInitiated,
	models.TaskStatusInProgress,
}

// StatusBreakdown computes count and percentage per status over the
// caller's visible tasks, plus month-bucketed counts. "completed" only
// counts tasks that an admin has verified. An empty task set yields
// zeros rather than an error.
func (s *TaskService) StatusBreakdown(callerRole models.Role, callerUserID uint64) (*dto.StatusBreakdownDTO, error) {
	var tasks []models.Task
	var err error
	if callerRole == models.RoleAdmin {
		tasks, err = s.taskRepo.ListAll()
	} else {
		tasks, err = s.visibleTasks(callerRole, callerUserID)
	}
	if err != nil {
		return nil, err
	}

	total := int64(len(tasks))
	counts := make(map[models.TaskStatus]int64, len(statusKeywords))
	monthly := make(map[string]map[string]int64)

	for _, task := range tasks {
		switch task.Status {
		case models.TaskStatusCompleted:
			if task.Done() {
				counts[models.TaskStatusCompleted]++
			}
		default:
			counts[task.Status]++
		}

		month := task.CreatedAt.Format("2006-01")
		if monthly[month] == nil {
			monthly[month] = make(map[string]int64)
		}
		monthly[month][string(task.Status)]++
	}

	out := &dto.StatusBreakdownDTO{
		TotalAssigned: total,
		Statuses:      make(map[string]dto.StatusCount, len(statusKeywords)),
		Monthly:       monthly,
	}
	for _, keyword := range statusKeywords {
		out.Statuses[string(keyword)] = dto.StatusCount{
			Count:      counts[keyword],
			Percentage: dto.FormatPercentage(counts[keyword], total),
		}
	}
	return out, nil
}

// visibleTasks resolves the caller and returns the tasks targeting the
// caller's departments whose tags match the caller's role. The role
// claim must equal the stored role_type exactly.
func (s *TaskService) visibleTasks(callerRole models.Role, callerUserID uint64) ([]models.Task, error) {
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

	candidates, err := s.taskRepo.ListByDepartments(user.DepartmentIDs())
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	tasks := make([]models.Task, 0, len(candidates))
	for _, task := range candidates {
		if task.AllowsRole(callerRole) {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

// notifyTaskAudience sends a best-effort notification to every user
// whose role matches any tag across the targeted departments. A failed
// or dropped delivery never fails the originating request.
func (s *TaskService) notifyTaskAudience(tasks []models.Task, action string) {
	depIDs := make([]uint64, 0)
	tags := make([]string, 0)
	seenDep := make(map[uint64]struct{})
	seenTag := make(map[string]struct{})
	for _, task := range tasks {
		for _, dep := range task.Departments {
			if _, ok := seenDep[dep.DepartmentID]; !ok {
				seenDep[dep.DepartmentID] = struct{}{}
				depIDs = append(depIDs, dep.DepartmentID)
			}
			for _, tag := range dep.Tags {
				key := strings.ToLower(tag)
				if _, ok := seenTag[key]; !ok {
					seenTag[key] = struct{}{}
					tags = append(tags, tag)
				}
			}
		}
	}

	users, err := s.userRepo.FindAudience(depIDs, tags)
	if err != nil || len(users) == 0 {
		return
	}

	emails := make([]string, 0, len(users))
	for _, u := range users {
		emails = append(emails, u.Email)
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Dear User,\n\nYour task has been %s successfully.\n\nTask Details:\n", strings.ToLower(action))
	for i, task := range tasks {
		fmt.Fprintf(&body, "Task %d:\n", i+1)
		fmt.Fprintf(&body, "Title: %s\n", task.TaskTitle)
		fmt.Fprintf(&body, "Target Date: %s\n\n", task.TargetDate.Format("2006-01-02"))
	}

	s.notifier.Enqueue(emails, fmt.Sprintf("Task %s Successfully", action), body.String())
}
