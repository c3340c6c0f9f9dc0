package repository

import (
	"errors"

	"github.com/warcat/warcat-backend/internal/models"
	"gorm.io/gorm"
)

// GormDepartmentRepository is a GORM implementation of DepartmentRepository
type GormDepartmentRepository struct {
	db *gorm.DB
}

// NewDepartmentRepository creates a new DepartmentRepository
func NewDepartmentRepository(db *gorm.DB) DepartmentRepository {
	return &GormDepartmentRepository{db: db}
}

func (r *GormDepartmentRepository) FindOrCreateByName(name string) (*models.Department, error) {
	var dep models.Department
	err := r.db.Where("department_name = ?", name).First(&dep).Error
	if err == nil {
		return &dep, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	dep = models.Department{DepartmentName: name}
	if err := r.db.Create(&dep).Error; err != nil {
		return nil, err
	}
	return &dep, nil
}

func (r *GormDepartmentRepository) FindByID(id uint64) (*models.Department, error) {
	var dep models.Department
	if err := r.db.First(&dep, id).Error; err != nil {
		return nil, err
	}
	return &dep, nil
}

func (r *GormDepartmentRepository) FindByName(name string) (*models.Department, error) {
	var dep models.Department
	if err := r.db.Where("department_name = ?", name).First(&dep).Error; err != nil {
		return nil, err
	}
	return &dep, nil
}

func (r *GormDepartmentRepository) Update(dep *models.Department) error {
	return r.db.Save(dep).Error
}

func (r *GormDepartmentRepository) ListAll() ([]models.Department, error) {
	var deps []models.Department
	err := r.db.Order("created_at DESC").Find(&deps).Error
	return deps, err
}

func (r *GormDepartmentRepository) ListByIDs(ids []uint64) ([]models.Department, error) {
	if len(ids) == 0 {
		return []models.Department{}, nil
	}
	var deps []models.Department
	err := r.db.Where("id IN ?", ids).Order("created_at DESC").Find(&deps).Error
	return deps, err
}

func (r *GormDepartmentRepository) Delete(id uint64) error {
	return r.db.Delete(&models.Department{}, id).Error
}

func (r *GormDepartmentRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Department{}).Count(&count).Error
	return count, err
}

func (r *GormDepartmentRepository) CountByIDs(ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.Model(&models.Department{}).Where("id IN ?", ids).Count(&count).Error
	return count, err
}
