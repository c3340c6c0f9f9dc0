package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/warcat/warcat-backend/internal/mailer"
	"github.com/warcat/warcat-backend/internal/models"
	"github.com/warcat/warcat-backend/internal/repository"
	"github.com/warcat/warcat-backend/internal/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// TaskServiceTestSuite defines the test suite for TaskService
type TaskServiceTestSuite struct {
	suite.Suite
	db       *gorm.DB
	recorder *mailer.Recorder
	service  *TaskService
}

// SetupTest runs before each test
func (suite *TaskServiceTestSuite) SetupTest() {
	var err error

	// Create in-memory SQLite database
	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)

	// Run migrations
	err = suite.db.AutoMigrate(
		&models.User{},
		&models.UserDepartment{},
		&models.Department{},
		&models.Task{},
		&models.TaskDepartment{},
		&models.SubTask{},
		&models.TaskNote{},
		&models.TaskCompletion{},
	)
	suite.Require().NoError(err)

	suite.recorder = mailer.NewRecorder()
	suite.service = NewTaskService(
		repository.NewTaskRepository(suite.db),
		repository.NewUserRepository(suite.db),
		suite.recorder,
	)
}

// TearDownTest runs after each test
func (suite *TaskServiceTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

// Helper function to create test data
func (suite *TaskServiceTestSuite) createTestUser(email string, role models.Role, departmentIDs ...uint64) *models.User {
	user := &models.User{
		Email:        email,
		PasswordHash: "hashedpassword",
		Name:         "Test User",
		RoleType:     role,
	}
	for _, depID := range departmentIDs {
		user.Departments = append(user.Departments, models.UserDepartment{
			DepartmentID: depID,
			DepName:      "Test Department",
		})
	}
	suite.db.Create(user)
	return user
}

func (suite *TaskServiceTestSuite) createTestTask(title string, depID uint64, tags []string) *models.Task {
	task := &models.Task{
		TaskID:     utils.NewTaskID(),
		TaskTitle:  title,
		TaskImage:  "report.png",
		TargetDate: time.Now().Add(48 * time.Hour),
		Status:     models.TaskStatusInitiated,
		Departments: []models.TaskDepartment{
			{DepartmentID: depID, DepName: "Test Department", Tags: tags},
		},
	}
	suite.db.Create(task)
	return task
}

func (suite *TaskServiceTestSuite) TestAddTaskCreatesOneRowPerDepartmentTaskPair() {
	suite.createTestUser("sec@dep.com", models.RoleSecretary, 1)

	tasks, err := suite.service.AddTask(AddTaskInput{
		MeetingID:    "MTG-1",
		MeetingTopic: "Budget review",
		Departments: []AddTaskDepartment{
			{
				DepID: 1, DepName: "Finance", Tags: []string{"secretary"},
				Tasks: []AddTaskItem{
					{Title: "Draft budget", Image: "a.png", TargetDate: "2026-09-15"},
					{Title: "Collect invoices", Image: "b.png", TargetDate: "2026-09-20"},
				},
			},
			{
				DepID: 2, DepName: "Planning", Tags: []string{"secretary"},
				Tasks: []AddTaskItem{
					{Title: "Site survey", Image: "c.png", TargetDate: "2026-09-25"},
				},
			},
		},
	})

	suite.NoError(err)
	suite.Len(tasks, 3)

	seen := make(map[string]bool)
	for _, task := range tasks {
		suite.NotEmpty(task.TaskID)
		suite.False(seen[task.TaskID], "task ids must be unique")
		seen[task.TaskID] = true
		suite.Equal(models.TaskStatusInitiated, task.Status)
		suite.Len(task.Departments, 1)
	}

	var count int64
	suite.db.Model(&models.Task{}).Count(&count)
	suite.Equal(int64(3), count)

	// One notification batch to the matched audience.
	sent := suite.recorder.Sent()
	suite.Require().Len(sent, 1)
	suite.Equal([]string{"sec@dep.com"}, sent[0].To)
}

func (suite *TaskServiceTestSuite) TestAddTaskValidationListsEveryViolation() {
	_, err := suite.service.AddTask(AddTaskInput{
		Departments: []AddTaskDepartment{
			{
				DepID: 1, DepName: "Finance", Tags: []string{"secretary"},
				Tasks: []AddTaskItem{
					{Title: "", Image: "a.png", TargetDate: "2026-09-15"},
					{Title: "ok", Image: "b.png", TargetDate: "not-a-date"},
				},
			},
		},
	})

	var validationErr *ValidationError
	suite.Require().ErrorAs(err, &validationErr)
	suite.Len(validationErr.Fields, 2)

	// All-or-nothing: nothing persisted, nothing sent.
	var count int64
	suite.db.Model(&models.Task{}).Count(&count)
	suite.Equal(int64(0), count)
	suite.Empty(suite.recorder.Sent())
}

func (suite *TaskServiceTestSuite) TestGetTasksAdminSeesEverything() {
	admin := suite.createTestUser("admin@warcat.com", models.RoleAdmin)
	suite.createTestTask("A", 1, []string{"secretary"})
	suite.createTestTask("B", 2, []string{"head_of_Office"})

	tasks, err := suite.service.GetTasks(models.RoleAdmin, admin.ID)
	suite.NoError(err)
	suite.Len(tasks, 2)
}

func (suite *TaskServiceTestSuite) TestGetTasksFiltersByDepartmentAndTag() {
	user := suite.createTestUser("sec@dep.com", models.RoleSecretary, 1)
	suite.createTestTask("mine", 1, []string{"Secretary"})
	suite.createTestTask("other role", 1, []string{"head_of_Office"})
	suite.createTestTask("other department", 2, []string{"secretary"})

	tasks, err := suite.service.GetTasks(models.RoleSecretary, user.ID)
	suite.NoError(err)
	suite.Require().Len(tasks, 1)
	suite.Equal("mine", tasks[0].TaskTitle)
}

func (suite *TaskServiceTestSuite) TestGetTasksRejectsClaimedRoleMismatch() {
	user := suite.createTestUser("sec@dep.com", models.RoleSecretary, 1)
	suite.createTestTask("A", 1, []string{"secretary"})

	_, err := suite.service.GetTasks(models.RoleHeadOfOffice, user.ID)
	suite.ErrorIs(err, ErrRoleMismatch)
}

func (suite *TaskServiceTestSuite) TestGetTasksEmptyResultIsNotFound() {
	user := suite.createTestUser("sec@dep.com", models.RoleSecretary, 1)

	_, err := suite.service.GetTasks(models.RoleSecretary, user.ID)
	suite.ErrorIs(err, ErrNoTasksFound)
}

func (suite *TaskServiceTestSuite) TestAddNoteMovesInitiatedTaskToInProgress() {
	task := suite.createTestTask("A", 1, []string{"secretary"})

	updated, err := suite.service.AddNote(task.TaskID, "started work", "Alex", models.RoleSecretary)
	suite.NoError(err)
	suite.Equal(models.TaskStatusInProgress, updated.Status)
	suite.Len(updated.Notes, 1)

	// A second note leaves the status alone.
	updated, err = suite.service.AddNote(task.TaskID, "more notes", "Alex", models.RoleSecretary)
	suite.NoError(err)
	suite.Equal(models.TaskStatusInProgress, updated.Status)
	suite.Len(updated.Notes, 2)
}

func (suite *TaskServiceTestSuite) TestAddNoteRejectsUnmatchedRole() {
	task := suite.createTestTask("A", 1, []string{"secretary"})

	_, err := suite.service.AddNote(task.TaskID, "note", "Alex", models.RoleHeadOfOffice)
	suite.ErrorIs(err, ErrRoleNotAllowed)
}

func (suite *TaskServiceTestSuite) TestUploadCompletionCompletesInProgressTask() {
	task := suite.createTestTask("A", 1, []string{"secretary"})

	_, err := suite.service.AddNote(task.TaskID, "started", "Alex", models.RoleSecretary)
	suite.Require().NoError(err)

	updated, err := suite.service.UploadCompletion(task.TaskID, "final.pdf", "all done", models.RoleSecretary)
	suite.NoError(err)
	suite.Equal(models.TaskStatusCompleted, updated.Status)
	suite.Equal(0, updated.AdminVerified)
	suite.Len(updated.Completions, 1)

	// A second upload appends but does not change the status.
	updated, err = suite.service.UploadCompletion(task.TaskID, "final-v2.pdf", "amended", models.RoleSecretary)
	suite.NoError(err)
	suite.Equal(models.TaskStatusCompleted, updated.Status)
	suite.Len(updated.Completions, 2)
}

func (suite *TaskServiceTestSuite) TestSetAdminVerifiedRequiresStoredAdminRole() {
	task := suite.createTestTask("A", 1, []string{"secretary"})
	secretary := suite.createTestUser("sec@dep.com", models.RoleSecretary, 1)
	admin := suite.createTestUser("admin@warcat.com", models.RoleAdmin)

	_, err := suite.service.SetAdminVerified(task.TaskID, secretary.ID, 1)
	suite.ErrorIs(err, ErrNotAdmin)

	updated, err := suite.service.SetAdminVerified(task.TaskID, admin.ID, 1)
	suite.NoError(err)
	suite.Equal(1, updated.AdminVerified)
}

func (suite *TaskServiceTestSuite) TestSetAdminVerifiedRejectsOtherFlagValues() {
	task := suite.createTestTask("A", 1, []string{"secretary"})
	admin := suite.createTestUser("admin@warcat.com", models.RoleAdmin)

	_, err := suite.service.SetAdminVerified(task.TaskID, admin.ID, 2)
	suite.ErrorIs(err, ErrInvalidFlagValue)
}

func (suite *TaskServiceTestSuite) TestStatusBreakdownEmptySetYieldsZeros() {
	admin := suite.createTestUser("admin@warcat.com", models.RoleAdmin)

	breakdown, err := suite.service.StatusBreakdown(models.RoleAdmin, admin.ID)
	suite.NoError(err)
	suite.Equal(int64(0), breakdown.TotalAssigned)
	suite.Equal("0.00%", breakdown.Statuses["completed"].Percentage)
	suite.Equal("0.00%", breakdown.Statuses["initiated"].Percentage)
}

func (suite *TaskServiceTestSuite) TestStatusBreakdownCountsOnlyVerifiedCompleted() {
	admin := suite.createTestUser("admin@warcat.com", models.RoleAdmin)

	unverified := suite.createTestTask("done but unverified", 1, []string{"secretary"})
	suite.db.Model(unverified).Update("status", models.TaskStatusCompleted)

	verified := suite.createTestTask("done and verified", 1, []string{"secretary"})
	suite.db.Model(verified).Updates(map[string]interface{}{
		"status":         models.TaskStatusCompleted,
		"admin_verified": 1,
	})

	suite.createTestTask("fresh", 1, []string{"secretary"})

	breakdown, err := suite.service.StatusBreakdown(models.RoleAdmin, admin.ID)
	suite.NoError(err)
	suite.Equal(int64(3), breakdown.TotalAssigned)
	suite.Equal(int64(1), breakdown.Statuses["completed"].Count)
	suite.Equal("33.33%", breakdown.Statuses["completed"].Percentage)
	suite.Equal(int64(1), breakdown.Statuses["initiated"].Count)
}

func (suite *TaskServiceTestSuite) TestEditTaskNotifiesAudienceOfNewDepartments() {
	suite.createTestUser("old@dep.com", models.RoleSecretary, 1)
	suite.createTestUser("new@dep.com", models.RoleSecretary, 2)
	task := suite.createTestTask("A", 1, []string{"secretary"})

	newTitle := "A renamed"
	newDeps := []AddTaskDepartment{{DepID: 2, DepName: "Planning", Tags: []string{"secretary"}}}
	updated, err := suite.service.EditTask(EditTaskInput{
		TaskID:      task.TaskID,
		Title:       &newTitle,
		Departments: &newDeps,
	})
	suite.NoError(err)
	suite.Equal("A renamed", updated.TaskTitle)
	suite.Require().Len(updated.Departments, 1)
	suite.Equal(uint64(2), updated.Departments[0].DepartmentID)

	// The notification goes to the new department's audience only.
	sent := suite.recorder.Sent()
	suite.Require().Len(sent, 1)
	suite.Equal([]string{"new@dep.com"}, sent[0].To)
}

func (suite *TaskServiceTestSuite) TestEditTaskUnknownIDIsNotFound() {
	_, err := suite.service.EditTask(EditTaskInput{TaskID: "missing"})
	suite.ErrorIs(err, ErrTaskNotFound)
}

func (suite *TaskServiceTestSuite) TestAddAndEditSubTask() {
	task := suite.createTestTask("A", 1, []string{"secretary"})

	sub, err := suite.service.AddSubTask(task.TaskID, "prepare slides", "slides.png", "2026-09-10")
	suite.NoError(err)
	suite.NotEmpty(sub.SubTaskID)
	suite.Equal(task.TaskID, sub.ParentTaskID)

	newTitle := "prepare handouts"
	edited, err := suite.service.EditSubTask(EditSubTaskInput{
		SubTaskID: sub.SubTaskID,
		Title:     &newTitle,
	})
	suite.NoError(err)
	suite.Equal("prepare handouts", edited.SubtaskTitle)
	suite.Equal("slides.png", edited.SubtaskImage)
}

func (suite *TaskServiceTestSuite) TestAddSubTaskUnknownParentIsNotFound() {
	_, err := suite.service.AddSubTask("missing", "t", "i.png", "2026-09-10")
	suite.ErrorIs(err, ErrTaskNotFound)
}

func TestTaskServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TaskServiceTestSuite))
}
