package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warcat/warcat-backend/internal/mailer"
	"github.com/warcat/warcat-backend/internal/models"
	"github.com/warcat/warcat-backend/internal/repository"
	"github.com/warcat/warcat-backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testJWTSecret = "test-secret"

type authTestEnv struct {
	db       *gorm.DB
	recorder *mailer.Recorder
	service  *AuthService
}

func setupAuthTestEnv(t *testing.T) authTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.User{}, &models.UserDepartment{})
	require.NoError(t, err)

	recorder := mailer.NewRecorder()
	service := NewAuthService(repository.NewUserRepository(db), recorder, testJWTSecret)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return authTestEnv{db: db, recorder: recorder, service: service}
}

func (env authTestEnv) createUser(t *testing.T, email, password string, role models.Role) *models.User {
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

func TestLoginIssuesTokenAndRecordsLastLogin(t *testing.T) {
	env := setupAuthTestEnv(t)
	env.createUser(t, "sec@warcat.in", "pass123", models.RoleSecretary)

	result, err := env.service.Login("sec@warcat.in", "pass123", models.RoleSecretary)
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	require.NotNil(t, result.User.LastLogin)

	claims, err := utils.ParseToken(result.Token, testJWTSecret)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, claims.UserID)
	assert.Equal(t, models.RoleSecretary, claims.RoleType)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestLoginRejectsWrongPasswordAndRoleMismatch(t *testing.T) {
	env := setupAuthTestEnv(t)
	env.createUser(t, "sec@warcat.in", "pass123", models.RoleSecretary)

	_, err := env.service.Login("sec@warcat.in", "wrong", models.RoleSecretary)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Correct password, wrong claimed role. Case matters.
	_, err = env.service.Login("sec@warcat.in", "pass123", models.Role("Secretary"))
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.service.Login("nobody@warcat.in", "pass123", models.RoleSecretary)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestPasswordResetFlow(t *testing.T) {
	env := setupAuthTestEnv(t)
	user := env.createUser(t, "sec@warcat.in", "pass123", models.RoleSecretary)

	require.NoError(t, env.service.RequestPasswordReset("sec@warcat.in"))

	var stored models.User
	require.NoError(t, env.db.First(&stored, user.ID).Error)
	require.Len(t, stored.ResetOTP, 6)
	require.NotNil(t, stored.ResetOTPExpiry)

	sent := env.recorder.Sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Body, stored.ResetOTP)

	// Wrong OTP first, then the real one.
	err := env.service.ResetPassword("sec@warcat.in", "000000x", "newpass")
	assert.ErrorIs(t, err, ErrInvalidOTP)

	require.NoError(t, env.service.ResetPassword("sec@warcat.in", stored.ResetOTP, "newpass"))

	_, err = env.service.Login("sec@warcat.in", "newpass", models.RoleSecretary)
	assert.NoError(t, err)

	// The OTP is single-use.
	err = env.service.ResetPassword("sec@warcat.in", stored.ResetOTP, "again")
	assert.ErrorIs(t, err, ErrInvalidOTP)
}

func TestResetPasswordRejectsExpiredOTP(t *testing.T) {
	env := setupAuthTestEnv(t)
	user := env.createUser(t, "sec@warcat.in", "pass123", models.RoleSecretary)

	expired := time.Now().Add(-time.Minute)
	require.NoError(t, env.db.Model(user).Updates(map[string]interface{}{
		"reset_otp":        "123456",
		"reset_otp_expiry": expired,
	}).Error)

	err := env.service.ResetPassword("sec@warcat.in", "123456", "newpass")
	assert.ErrorIs(t, err, ErrInvalidOTP)
}

func TestGetProfileReturnsMemberships(t *testing.T) {
	env := setupAuthTestEnv(t)
	user := env.createUser(t, "sec@warcat.in", "pass123", models.RoleSecretary)
	require.NoError(t, env.db.Create(&models.UserDepartment{
		UserID: user.ID, DepartmentID: 7, DepName: "Finance",
	}).Error)

	profile, err := env.service.GetProfile(user.ID)
	require.NoError(t, err)
	require.Len(t, profile.Departments, 1)
	assert.Equal(t, uint64(7), profile.Departments[0].DepartmentID)

	_, err = env.service.GetProfile(9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
