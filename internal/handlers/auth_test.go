package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warcat/warcat-backend/internal/mailer"
	"github.com/warcat/warcat-backend/internal/middleware"
	"github.com/warcat/warcat-backend/internal/models"
	"github.com/warcat/warcat-backend/internal/repository"
	"github.com/warcat/warcat-backend/internal/services"
	"github.com/warcat/warcat-backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type authHandlerTestEnv struct {
	db       *gorm.DB
	recorder *mailer.Recorder
	router   *gin.Engine
}

func setupAuthHandlerTestEnv(t *testing.T) authHandlerTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.User{}, &models.UserDepartment{})
	require.NoError(t, err)

	recorder := mailer.NewRecorder()
	authService := services.NewAuthService(repository.NewUserRepository(db), recorder, testJWTSecret)
	handler := NewAuthHandler(authService)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/login", handler.Login)
	router.POST("/request-reset-password", handler.RequestPasswordReset)
	router.POST("/reset-password", handler.ResetPassword)
	router.GET("/profile", middleware.RequireAuth(testJWTSecret), handler.GetProfile)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return authHandlerTestEnv{db: db, recorder: recorder, router: router}
}

func (env authHandlerTestEnv) createUser(t *testing.T, email, password string, role models.Role) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         "Test User",
		RoleType:     role,
	}
	require.NoError(t, env.db.Create(user).Error)
	return user
}

func postJSON(t *testing.T, router *gin.Engine, url string, body gin.H) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestLoginEndpointReturnsToken(t *testing.T) {
	env := setupAuthHandlerTestEnv(t)
	env.createUser(t, "sec@warcat.in", "pass123", models.RoleSecretary)

	w := postJSON(t, env.router, "/login", gin.H{
		"email":     "sec@warcat.in",
		"password":  "pass123",
		"role_type": "secretary",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		StatusTxt string `json:"statusTxt"`
		Token     string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.StatusTxt)

	claims, err := utils.ParseToken(resp.Token, testJWTSecret)
	require.NoError(t, err)
	assert.Equal(t, "sec@warcat.in", claims.Email)
}

func TestLoginEndpointRejectsBadCredentials(t *testing.T) {
	env := setupAuthHandlerTestEnv(t)
	env.createUser(t, "sec@warcat.in", "pass123", models.RoleSecretary)

	w := postJSON(t, env.router, "/login", gin.H{
		"email":     "sec@warcat.in",
		"password":  "wrong",
		"role_type": "secretary",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	var resp struct {
		StatusTxt string `json:"statusTxt"`
		Message   string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp.StatusTxt)
	assert.NotEmpty(t, resp.Message)
}

func TestPasswordResetEndpoints(t *testing.T) {
	env := setupAuthHandlerTestEnv(t)
	user := env.createUser(t, "sec@warcat.in", "pass123", models.RoleSecretary)

	w := postJSON(t, env.router, "/request-reset-password", gin.H{"email": "sec@warcat.in"})
	require.Equal(t, http.StatusOK, w.Code)

	var stored models.User
	require.NoError(t, env.db.First(&stored, user.ID).Error)
	require.NotEmpty(t, stored.ResetOTP)

	w = postJSON(t, env.router, "/reset-password", gin.H{
		"email":    "sec@warcat.in",
		"password": "newpass",
		"otp":      stored.ResetOTP,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = postJSON(t, env.router, "/login", gin.H{
		"email":     "sec@warcat.in",
		"password":  "newpass",
		"role_type": "secretary",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProfileEndpointRequiresBearerToken(t *testing.T) {
	env := setupAuthHandlerTestEnv(t)
	user := env.createUser(t, "sec@warcat.in", "pass123", models.RoleSecretary)

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := utils.GenerateToken(user, testJWTSecret, time.Hour)
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		User models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "sec@warcat.in", resp.User.Email)
}
