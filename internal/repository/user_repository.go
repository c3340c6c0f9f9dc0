package repository

import (
	"strings"

	"github.com/warcat/warcat-backend/internal/models"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

func (r *GormUserRepository) FindByID(id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.Preload("Departments").First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormUserRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Preload("Departments").Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormUserRepository) FindByEmailAndRole(email string, role models.Role) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ? AND role_type = ?", email, string(role)).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormUserRepository) Update(user *models.User) error {
	return r.db.Omit("Departments").Save(user).Error
}

func (r *GormUserRepository) AddDepartment(dep *models.UserDepartment) error {
	return r.db.Create(dep).Error
}

func (r *GormUserRepository) RemoveDepartment(userID, departmentID uint64) error {
	return r.db.Where("user_id = ? AND department_id = ?", userID, departmentID).
		Delete(&models.UserDepartment{}).Error
}

func (r *GormUserRepository) ListByDepartment(departmentID uint64) ([]models.User, error) {
	var users []models.User
	err := r.db.Preload("Departments").
		Joins("JOIN user_departments ON user_departments.user_id = users.id").
		Where("user_departments.department_id = ?", departmentID).
		Find(&users).Error
	return users, err
}

func (r *GormUserRepository) FindRoleHolder(departmentID uint64, role models.Role) (*models.User, error) {
	var user models.User
	err := r.db.
		Joins("JOIN user_departments ON user_departments.user_id = users.id").
		Where("user_departments.department_id = ? AND users.role_type = ?", departmentID, string(role)).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindAudience matches role_type against the tags the way the
// notification paths expect: case-insensitive, tag-as-substring.
func (r *GormUserRepository) FindAudience(departmentIDs []uint64, tags []string) ([]models.User, error) {
	if len(departmentIDs) == 0 || len(tags) == 0 {
		return []models.User{}, nil
	}

	query := r.db.Model(&models.User{}).Distinct("users.*").
		Joins("JOIN user_departments ON user_departments.user_id = users.id").
		Where("user_departments.department_id IN ?", departmentIDs)

	tagMatch := r.db
	for i, tag := range tags {
		pattern := "%" + strings.ToLower(tag) + "%"
		if i == 0 {
			tagMatch = tagMatch.Where("LOWER(users.role_type) LIKE ?", pattern)
		} else {
			tagMatch = tagMatch.Or("LOWER(users.role_type) LIKE ?", pattern)
		}
	}
	query = query.Where(tagMatch)

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
