package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warcat/warcat-backend/internal/constants"
	"github.com/warcat/warcat-backend/internal/mailer"
	"github.com/warcat/warcat-backend/internal/middleware"
	"github.com/warcat/warcat-backend/internal/models"
	"github.com/warcat/warcat-backend/internal/repository"
	"github.com/warcat/warcat-backend/internal/services"
	"github.com/warcat/warcat-backend/internal/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type departmentHandlerTestEnv struct {
	db       *gorm.DB
	recorder *mailer.Recorder
	router   *gin.Engine
}

func setupDepartmentHandlerTestEnv(t *testing.T) departmentHandlerTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.User{}, &models.UserDepartment{}, &models.Department{})
	require.NoError(t, err)

	recorder := mailer.NewRecorder()
	registrationService := services.NewRegistrationService(
		repository.NewUserRepository(db),
		repository.NewDepartmentRepository(db),
		recorder,
	)
	handler := NewDepartmentHandler(registrationService)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/register-user-with-department", handler.Register)
	auth := router.Group("/")
	auth.Use(middleware.RequireAuth(testJWTSecret))
	{
		auth.GET("/departments", handler.List)
		auth.DELETE("/deleteDepartment/:departmentId", handler.Delete)
	}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return departmentHandlerTestEnv{db: db, recorder: recorder, router: router}
}

func registrationBody(name, secEmail, headEmail string) gin.H {
	return gin.H{
		"department_name": name,
		"secretary": gin.H{
			"name":         "Sam Secretary",
			"email":        secEmail,
			"phone_number": "+919876543210",
		},
		"head_of_Office": gin.H{
			"name":         "Hana Head",
			"email":        headEmail,
			"phone_number": "+919876543211",
			"designation":  "Director",
		},
	}
}

func TestRegisterDepartmentEndpoint(t *testing.T) {
	env := setupDepartmentHandlerTestEnv(t)

	w := postJSON(t, env.router, "/register-user-with-department",
		registrationBody("finance", "sec@warcat.in", "head@warcat.in"))
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		StatusTxt  string `json:"statusTxt"`
		Department struct {
			ID        string `json:"id"`
			Secretary struct {
				Email string `json:"email"`
			} `json:"secretary"`
		} `json:"department"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.StatusTxt)
	assert.Contains(t, resp.Department.ID, "warcat-")
	assert.Equal(t, "sec@warcat.in", resp.Department.Secretary.Email)

	// Both new accounts got their credentials mailed.
	assert.Len(t, env.recorder.Sent(), 2)
}

func TestRegisterDepartmentEndpointRejectsDuplicateName(t *testing.T) {
	env := setupDepartmentHandlerTestEnv(t)

	w := postJSON(t, env.router, "/register-user-with-department",
		registrationBody("finance", "sec@warcat.in", "head@warcat.in"))
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(t, env.router, "/register-user-with-department",
		registrationBody("finance", "othersec@warcat.in", "otherhead@warcat.in"))
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		StatusTxt string `json:"statusTxt"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp.StatusTxt)
}

func TestListDepartmentsEndpointEmptyIsNotFound(t *testing.T) {
	env := setupDepartmentHandlerTestEnv(t)

	admin := &models.User{Email: "admin@warcat.in", PasswordHash: "x", RoleType: models.RoleAdmin}
	require.NoError(t, env.db.Create(admin).Error)
	token, err := utils.GenerateToken(admin, testJWTSecret, constants.TokenTTL)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/departments", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteDepartmentEndpoint(t *testing.T) {
	env := setupDepartmentHandlerTestEnv(t)

	w := postJSON(t, env.router, "/register-user-with-department",
		registrationBody("finance", "sec@warcat.in", "head@warcat.in"))
	require.Equal(t, http.StatusCreated, w.Code)

	var dept models.Department
	require.NoError(t, env.db.Where("department_name = ?", "finance").First(&dept).Error)

	admin := &models.User{Email: "admin@warcat.in", PasswordHash: "x", RoleType: models.RoleAdmin}
	require.NoError(t, env.db.Create(admin).Error)
	token, err := utils.GenerateToken(admin, testJWTSecret, constants.TokenTTL)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/deleteDepartment/"+strconv.FormatUint(dept.ID, 10), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w2 := httptest.NewRecorder()
	env.router.ServeHTTP(w2, req)
	require.Equal(t, http.StatusOK, w2.Code)

	// Deleting again reports not found.
	req = httptest.NewRequest(http.MethodDelete, "/deleteDepartment/"+strconv.FormatUint(dept.ID, 10), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w3 := httptest.NewRecorder()
	env.router.ServeHTTP(w3, req)
	assert.Equal(t, http.StatusNotFound, w3.Code)
}
