package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/warcat/warcat-backend/internal/constants"
	"github.com/warcat/warcat-backend/internal/mailer"
	"github.com/warcat/warcat-backend/internal/models"
	"github.com/warcat/warcat-backend/internal/repository"
	"github.com/warcat/warcat-backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid email, password or role")
	ErrInvalidOTP         = errors.New("invalid or expired otp")
)

// AuthService handles login, password reset and profile lookup
type AuthService struct {
	userRepo  repository.UserRepository
	notifier  mailer.Notifier
	jwtSecret string
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo repository.UserRepository, notifier mailer.Notifier, jwtSecret string) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		notifier:  notifier,
		jwtSecret: jwtSecret,
	}
}

// LoginResult carries the signed token and the authenticated user.
type LoginResult struct {
	Token string
	User  *models.User
}

// Login authenticates by email, password and claimed role. The claimed
// role must equal the stored role_type exactly. A mismatch on any of
// the three is reported as the same credential error.
func (s *AuthService) Login(email, password string, role models.Role) (*LoginResult, error) {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !user.RoleType.Equals(role) {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	user.LastLogin = &now
	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to record login time: %w", err)
	}

	token, err := utils.GenerateToken(user, s.jwtSecret, constants.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &LoginResult{Token: token, User: user}, nil
}

// RequestPasswordReset generates a short-lived OTP and mails it to the
// account. An unknown email is reported as not found.
func (s *AuthService) RequestPasswordReset(email string) error {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	otp, err := utils.GenerateOTP(constants.OTPLength)
	if err != nil {
		return fmt.Errorf("failed to generate otp: %w", err)
	}

	expiry := time.Now().Add(constants.OTPTTL)
	user.ResetOTP = otp
	user.ResetOTPExpiry = &expiry
	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}

	body := fmt.Sprintf(
		"Dear %s,\n\nYour password reset OTP is %s. It expires in %d minutes.",
		user.Name, otp, int(constants.OTPTTL.Minutes()),
	)
	s.notifier.Enqueue([]string{user.Email}, "Password Reset OTP", body)

	return nil
}

// ResetPassword verifies the OTP and replaces the password. The OTP is
// single-use: it is cleared whether or not it had expired.
func (s *AuthService) ResetPassword(email, otp, newPassword string) error {
	if newPassword == "" {
		return &ValidationError{Fields: []string{"new_password is required"}}
	}

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	if user.ResetOTP == "" || user.ResetOTP != otp {
		return ErrInvalidOTP
	}
	if user.ResetOTPExpiry == nil || time.Now().After(*user.ResetOTPExpiry) {
		user.ResetOTP = ""
		user.ResetOTPExpiry = nil
		_ = s.userRepo.Update(user)
		return ErrInvalidOTP
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = string(hash)
	user.ResetOTP = ""
	user.ResetOTPExpiry = nil
	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// GetProfile returns the user with department memberships preloaded.
func (s *AuthService) GetProfile(userID uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}
