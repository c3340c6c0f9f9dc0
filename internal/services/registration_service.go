package services

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/warcat/warcat-backend/internal/constants"
	"github.com/warcat/warcat-backend/internal/dto"
	"github.com/warcat/warcat-backend/internal/mailer"
	"github.com/warcat/warcat-backend/internal/models"
	"github.com/warcat/warcat-backend/internal/repository"
	"github.com/warcat/warcat-backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrDepartmentExists    = errors.New("department already exists")
	ErrDepartmentNotFound  = errors.New("department not found")
	ErrNoDepartmentsFound  = errors.New("no departments found")
	ErrRoleConflict       = errors.New("email already registered under a different role")
	ErrSameEmailBothRoles = errors.New("secretary and head of office cannot share an email")
)

var (
	emailPattern = regexp.MustCompile(`^[a-z0-9]+@[a-z]+\.[a-z]{2,3}$`)
	phonePattern = regexp.MustCompile(`^\+91[1-9]\d{9}$`)
)

// RoleHolderInput carries the secretary or head-of-office details of a
// department registration.
type RoleHolderInput struct {
	Name        string
	Email       string
	PhoneNumber string
	Designation string
}

// RegisterDepartmentInput represents input for registering a
// department with its two role holders.
type RegisterDepartmentInput struct {
	DepartmentName string
	Secretary      RoleHolderInput
	HeadOffice     RoleHolderInput
}

// RegistrationService handles department and role-holder registration
type RegistrationService struct {
	userRepo repository.UserRepository
	deptRepo repository.DepartmentRepository
	notifier mailer.Notifier
}

// NewRegistrationService creates a new RegistrationService
func NewRegistrationService(userRepo repository.UserRepository, deptRepo repository.DepartmentRepository, notifier mailer.Notifier) *RegistrationService {
	return &RegistrationService{
		userRepo: userRepo,
		deptRepo: deptRepo,
		notifier: notifier,
	}
}

// RegisterDepartment creates a department and attaches its secretary
// and head of office. Existing accounts are merged by (email, role);
// an email already held under a different role is rejected, as is one
// email used for both holders.
func (s *RegistrationService) RegisterDepartment(input RegisterDepartmentInput) (*dto.DepartmentDetailsDTO, error) {
	if err := s.validateRegistration(input); err != nil {
		return nil, err
	}

	if input.Secretary.Email == input.HeadOffice.Email {
		return nil, ErrSameEmailBothRoles
	}

	if _, err := s.deptRepo.FindByName(input.DepartmentName); err == nil {
		return nil, ErrDepartmentExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check department: %w", err)
	}

	if err := s.checkRoleConflict(input.Secretary.Email, models.RoleSecretary); err != nil {
		return nil, err
	}
	if err := s.checkRoleConflict(input.HeadOffice.Email, models.RoleHeadOfOffice); err != nil {
		return nil, err
	}

	dept, err := s.deptRepo.FindOrCreateByName(input.DepartmentName)
	if err != nil {
		return nil, fmt.Errorf("failed to create department: %w", err)
	}

	secretary, err := s.attachRoleHolder(input.Secretary, models.RoleSecretary, dept)
	if err != nil {
		return nil, err
	}
	headOffice, err := s.attachRoleHolder(input.HeadOffice, models.RoleHeadOfOffice, dept)
	if err != nil {
		return nil, err
	}

	details := dto.ToDepartmentDetailsDTO(*dept, secretary, headOffice)
	return &details, nil
}

func (s *RegistrationService) validateRegistration(input RegisterDepartmentInput) error {
	var violations []string
	if input.DepartmentName == "" {
		violations = append(violations, "department_name is required")
	}
	violations = append(violations, validateRoleHolder("secretary", input.Secretary, false)...)
	violations = append(violations, validateRoleHolder("head_of_Office", input.HeadOffice, true)...)
	if len(violations) > 0 {
		return &ValidationError{Fields: violations}
	}
	return nil
}

func validateRoleHolder(prefix string, holder RoleHolderInput, designationRequired bool) []string {
	var violations []string
	if holder.Name == "" {
		violations = append(violations, prefix+".name is required")
	}
	if !emailPattern.MatchString(holder.Email) {
		violations = append(violations, prefix+".email is not a valid email")
	}
	if !phonePattern.MatchString(holder.PhoneNumber) {
		violations = append(violations, prefix+".phone_number is not a valid phone number")
	}
	if designationRequired && holder.Designation == "" {
		violations = append(violations, prefix+".designation is required")
	}
	return violations
}

// checkRoleConflict rejects an email that already exists under a
// different role_type.
func (s *RegistrationService) checkRoleConflict(email string, role models.Role) error {
	existing, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to check existing user: %w", err)
	}
	if !existing.RoleType.Equals(role) {
		return ErrRoleConflict
	}
	return nil
}

// attachRoleHolder merges an existing (email, role) account into the
// department or creates a fresh account with a generated password. New
// accounts get their credentials mailed to them.
func (s *RegistrationService) attachRoleHolder(input RoleHolderInput, role models.Role, dept *models.Department) (*models.User, error) {
	user, err := s.userRepo.FindByEmailAndRole(input.Email, role)
	if err == nil {
		if !user.MemberOf(dept.ID) {
			membership := models.UserDepartment{
				UserID:       user.ID,
				DepartmentID: dept.ID,
				DepName:      dept.DepartmentName,
			}
			if err := s.userRepo.AddDepartment(&membership); err != nil {
				return nil, fmt.Errorf("failed to attach user to department: %w", err)
			}
			user.Departments = append(user.Departments, membership)
		}
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	password, err := utils.GenerateRandomPassword(constants.GeneratedPasswordLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user = &models.User{
		Email:        input.Email,
		PasswordHash: string(hash),
		Name:         input.Name,
		RoleType:     role,
		PhoneNumber:  input.PhoneNumber,
		Designation:  input.Designation,
		Departments: []models.UserDepartment{{
			DepartmentID: dept.ID,
			DepName:      dept.DepartmentName,
		}},
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	body := fmt.Sprintf(
		"Dear %s,\n\nYour account has been created for the department %s.\n\nEmail: %s\nPassword: %s\nRole: %s\n\nPlease log in and change your password.",
		input.Name, dept.DepartmentName, input.Email, password, role,
	)
	s.notifier.Enqueue([]string{input.Email}, "Registration Successful", body)

	return user, nil
}

// EditDepartmentInput represents a department update. Replacing a role
// holder detaches the previous holder from the department and attaches
// the new one, creating the account if needed.
type EditDepartmentInput struct {
	DepartmentID   uint64
	DepartmentName *string
	Secretary      *RoleHolderInput
	HeadOffice     *RoleHolderInput
}

// EditDepartment renames a department and/or swaps its role holders.
func (s *RegistrationService) EditDepartment(input EditDepartmentInput) (*dto.DepartmentDetailsDTO, error) {
	dept, err := s.deptRepo.FindByID(input.DepartmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDepartmentNotFound
		}
		return nil, fmt.Errorf("failed to find department: %w", err)
	}

	if input.DepartmentName != nil && *input.DepartmentName != dept.DepartmentName {
		if _, err := s.deptRepo.FindByName(*input.DepartmentName); err == nil {
			return nil, ErrDepartmentExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check department name: %w", err)
		}
		dept.DepartmentName = *input.DepartmentName
		if err := s.deptRepo.Update(dept); err != nil {
			return nil, fmt.Errorf("failed to rename department: %w", err)
		}
	}

	if input.Secretary != nil {
		if violations := validateRoleHolder("secretary", *input.Secretary, false); len(violations) > 0 {
			return nil, &ValidationError{Fields: violations}
		}
		if err := s.replaceRoleHolder(*input.Secretary, models.RoleSecretary, dept); err != nil {
			return nil, err
		}
	}
	if input.HeadOffice != nil {
		if violations := validateRoleHolder("head_of_Office", *input.HeadOffice, true); len(violations) > 0 {
			return nil, &ValidationError{Fields: violations}
		}
		if err := s.replaceRoleHolder(*input.HeadOffice, models.RoleHeadOfOffice, dept); err != nil {
			return nil, err
		}
	}

	secretary, headOffice, err := s.roleHolders(dept.ID)
	if err != nil {
		return nil, err
	}
	details := dto.ToDepartmentDetailsDTO(*dept, secretary, headOffice)
	return &details, nil
}

// replaceRoleHolder detaches the current holder of the role from the
// department, then attaches the incoming one.
func (s *RegistrationService) replaceRoleHolder(input RoleHolderInput, role models.Role, dept *models.Department) error {
	if err := s.checkRoleConflict(input.Email, role); err != nil {
		return err
	}

	current, err := s.userRepo.FindRoleHolder(dept.ID, role)
	if err == nil {
		if current.Email == input.Email {
			current.Name = input.Name
			current.PhoneNumber = input.PhoneNumber
			if input.Designation != "" {
				current.Designation = input.Designation
			}
			if err := s.userRepo.Update(current); err != nil {
				return fmt.Errorf("failed to update role holder: %w", err)
			}
			return nil
		}
		if err := s.userRepo.RemoveDepartment(current.ID, dept.ID); err != nil {
			return fmt.Errorf("failed to detach role holder: %w", err)
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to find role holder: %w", err)
	}

	_, err = s.attachRoleHolder(input, role, dept)
	return err
}

// ListDepartments returns department details for the caller. Admin
// callers see every department; others see only departments they are
// members of. An empty result is reported as not found.
func (s *RegistrationService) ListDepartments(callerRole models.Role, callerUserID uint64) ([]dto.DepartmentDetailsDTO, error) {
	var depts []models.Department
	var err error

	if callerRole == models.RoleAdmin {
		depts, err = s.deptRepo.ListAll()
	} else {
		var user *models.User
		user, err = s.userRepo.FindByID(callerUserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, fmt.Errorf("failed to find user: %w", err)
		}
		if !user.RoleType.Equals(callerRole) {
			return nil, ErrRoleMismatch
		}
		depts, err = s.deptRepo.ListByIDs(user.DepartmentIDs())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	if len(depts) == 0 {
		return nil, ErrNoDepartmentsFound
	}

	out := make([]dto.DepartmentDetailsDTO, 0, len(depts))
	for i := range depts {
		secretary, headOffice, err := s.roleHolders(depts[i].ID)
		if err != nil {
			return nil, err
		}
		out = append(out, dto.ToDepartmentDetailsDTO(depts[i], secretary, headOffice))
	}
	return out, nil
}

// DeleteDepartment removes the department and detaches every member.
func (s *RegistrationService) DeleteDepartment(departmentID uint64) error {
	if _, err := s.deptRepo.FindByID(departmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDepartmentNotFound
		}
		return fmt.Errorf("failed to find department: %w", err)
	}

	members, err := s.userRepo.ListByDepartment(departmentID)
	if err != nil {
		return fmt.Errorf("failed to list department members: %w", err)
	}
	for _, member := range members {
		if err := s.userRepo.RemoveDepartment(member.ID, departmentID); err != nil {
			return fmt.Errorf("failed to detach member: %w", err)
		}
	}

	if err := s.deptRepo.Delete(departmentID); err != nil {
		return fmt.Errorf("failed to delete department: %w", err)
	}
	return nil
}

// roleHolders fetches the secretary and head of office of a
// department. A missing holder is returned as nil, not an error.
func (s *RegistrationService) roleHolders(departmentID uint64) (*models.User, *models.User, error) {
	secretary, err := s.userRepo.FindRoleHolder(departmentID, models.RoleSecretary)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, fmt.Errorf("failed to find secretary: %w", err)
	}
	headOffice, err := s.userRepo.FindRoleHolder(departmentID, models.RoleHeadOfOffice)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, fmt.Errorf("failed to find head of office: %w", err)
	}
	return secretary, headOffice, nil
}
