package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/warcat/warcat-backend/internal/errors"
	"github.com/warcat/warcat-backend/internal/middleware"
	"github.com/warcat/warcat-backend/internal/services"
)

// TaskItemRequest is one task entry in an add-task request.
type TaskItemRequest struct {
	TaskTitle   string `json:"taskTitle"`
	UploadImage string `json:"uploadImage"`
	TargetDate  string `json:"targetDate"`
}

// TaskDepartmentRequest targets a batch of tasks at one department.
type TaskDepartmentRequest struct {
	DepID   uint64            `json:"dep_id"`
	DepName string            `json:"dep_name"`
	Tags    []string          `json:"tag"`
	Tasks   []TaskItemRequest `json:"tasks"`
}

func toAddTaskDepartments(reqs []TaskDepartmentRequest) []services.AddTaskDepartment {
	deps := make([]services.AddTaskDepartment, 0, len(reqs))
	for _, r := range reqs {
		dep := services.AddTaskDepartment{
			DepID:   r.DepID,
			DepName: r.DepName,
			Tags:    r.Tags,
		}
		for _, t := range r.Tasks {
			dep.Tasks = append(dep.Tasks, services.AddTaskItem{
				Title:      t.TaskTitle,
				Image:      t.UploadImage,
				TargetDate: t.TargetDate,
			})
		}
		deps = append(deps, dep)
	}
	return deps
}

// TaskHandler coordinates task lifecycle HTTP handlers.
type TaskHandler struct {
	taskService *services.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// Add creates one task per department/task pair in the request.
func (h *TaskHandler) Add(c *gin.Context) {
	type AddTaskRequest struct {
		MeetingID    string                  `json:"meeting_id"`
		MeetingTopic string                  `json:"meeting_topic"`
		Departments  []TaskDepartmentRequest `json:"department"`
	}

	var req AddTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	tasks, err := h.taskService.AddTask(services.AddTaskInput{
		MeetingID:    req.MeetingID,
		MeetingTopic: req.MeetingTopic,
		Departments:  toAddTaskDepartments(req.Departments),
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"statusTxt": "success",
		"message":   "Tasks added successfully",
		"tasks":     tasks,
	})
}

// List returns the tasks visible to the caller.
func (h *TaskHandler) List(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	tasks, err := h.taskService.GetTasks(claims.RoleType, claims.UserID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"statusTxt": "success",
		"tasks":     tasks,
	})
}

// Edit applies a partial update to a task.
func (h *TaskHandler) Edit(c *gin.Context) {
	type EditTaskRequest struct {
		TaskID      string                   `json:"task_id" binding:"required"`
		Departments *[]TaskDepartmentRequest `json:"department"`
		TaskTitle   *string                  `json:"task_title"`
		TaskImage   *string                  `json:"task_image"`
		TargetDate  *string                  `json:"target_date"`
	}

	var req EditTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.EditTaskInput{
		TaskID:     req.TaskID,
		Title:      req.TaskTitle,
		Image:      req.TaskImage,
		TargetDate: req.TargetDate,
	}
	if req.Departments != nil {
		deps := toAddTaskDepartments(*req.Departments)
		input.Departments = &deps
	}

	task, err := h.taskService.EditTask(input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"statusTxt": "success",
		"message":   "Task updated successfully",
		"task":      task,
	})
}

// AddSubTask appends a subtask to its parent task.
func (h *TaskHandler) AddSubTask(c *gin.Context) {
	type AddSubTaskRequest struct {
		TaskID       string `json:"task_id" binding:"required"`
		SubtaskTitle string `json:"subtask_title"`
		SubtaskImage string `json:"subtask_image"`
		TargetDate   string `json:"target_date"`
	}

	var req AddSubTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	sub, err := h.taskService.AddSubTask(req.TaskID, req.SubtaskTitle, req.SubtaskImage, req.TargetDate)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"statusTxt": "success",
		"message":   "Subtask added successfully",
		"subtask":   sub,
	})
}

// EditSubTask applies a partial update to a subtask.
func (h *TaskHandler) EditSubTask(c *gin.Context) {
	type EditSubTaskRequest struct {
		SubTaskID    string  `json:"sub_task_id" binding:"required"`
		SubtaskTitle *string `json:"subtask_title"`
		SubtaskImage *string `json:"subtask_image"`
		TargetDate   *string `json:"target_date"`
	}

	var req EditSubTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	sub, err := h.taskService.EditSubTask(services.EditSubTaskInput{
		SubTaskID:  req.SubTaskID,
		Title:      req.SubtaskTitle,
		Image:      req.SubtaskImage,
		TargetDate: req.TargetDate,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"statusTxt": "success",
		"message":   "Subtask updated successfully",
		"subtask":   sub,
	})
}

// AddNote appends a note; the first note moves the task to inProgress.
func (h *TaskHandler) AddNote(c *gin.Context) {
	type AddNoteRequest struct {
		NoteDescription string `json:"note_description"`
		NoteWrittenBy   string `json:"note_written_by"`
	}

	claims, ok := middleware.GetClaims(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	var req AddNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.AddNote(c.Param("taskId"), req.NoteDescription, req.NoteWrittenBy, claims.RoleType)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"statusTxt": "success",
		"message":   "Note added successfully",
		"task":      task,
	})
}

// UploadCompletion appends a completion report; the task moves to
// completed.
func (h *TaskHandler) UploadCompletion(c *gin.Context) {
	type UploadCompletionRequest struct {
		UploadReport string `json:"upload_report"`
		Description  string `json:"description"`
	}

	claims, ok := middleware.GetClaims(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	var req UploadCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.UploadCompletion(c.Param("taskId"), req.UploadReport, req.Description, claims.RoleType)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"statusTxt": "success",
		"message":   "Completion details uploaded successfully",
		"task":      task,
	})
}

// SetAdminVerified sets the admin verification flag on a task.
func (h *TaskHandler) SetAdminVerified(c *gin.Context) {
	type AdminVerifiedRequest struct {
		TaskID        string `json:"task_id" binding:"required"`
		AdminVerified *int   `json:"admin_verified" binding:"required"`
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	var req AdminVerifiedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.SetAdminVerified(req.TaskID, userID, *req.AdminVerified)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"statusTxt": "success",
		"message":   "Task verification updated successfully",
		"task":      task,
	})
}

// StatusPercentages returns count and percentage per status over the
// caller's visible tasks.
func (h *TaskHandler) StatusPercentages(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	breakdown, err := h.taskService.StatusBreakdown(claims.RoleType, claims.UserID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"statusTxt": "success",
		"breakdown": breakdown,
	})
}

func respondTaskError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		apierrors.BadRequestWithDetails(c, "Validation failed", validationErr.Fields)
	case errors.Is(err, services.ErrInvalidFlagValue):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrSubTaskNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrNoTasksFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrRoleMismatch),
		errors.Is(err, services.ErrRoleNotAllowed),
		errors.Is(err, services.ErrNotAdmin):
		apierrors.Forbidden(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
