// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"lesson-smart-go/internal/model"

	"gorm.io/gorm"
)

// LessonRepository 接口定义了教案数据的持久化操作。
type LessonRepository interface {
	Create(plan *model.LessonPlan) error
	FindByID(planID uint) (*model.LessonPlan, error)
	FindByUserWithPagination(userID uint, offset, limit int) ([]model.LessonPlan, int64, error)
	FindWithPagination(offset, limit int) ([]model.LessonPlan, int64, error)
	Delete(planID uint) error
}

// lessonRepository 是 LessonRepository 接口的 GORM 实现。
type lessonRepository struct {
	db *gorm.DB
}

// NewLessonRepository 创建一个新的 LessonRepository 实例。
func NewLessonRepository(db *gorm.DB) LessonRepository {
	return &lessonRepository{db: db}
}

// Create 在数据库中创建一条新的教案记录。
func (r *lessonRepository) Create(plan *model.LessonPlan) error {
	return r.db.Create(plan).Error
}

// FindByID 根据 ID 查找一条教案记录。
func (r *lessonRepository) FindByID(planID uint) (*model.LessonPlan, error) {
	var plan model.LessonPlan
	err := r.db.First(&plan, planID).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// FindByUserWithPagination 分页检索某用户的教案，按创建时间倒序。
func (r *lessonRepository) FindByUserWithPagination(userID uint, offset, limit int) ([]model.LessonPlan, int64, error) {
	var plans []model.LessonPlan
	var total int64

	db := r.db.Model(&model.LessonPlan{}).Where("user_id = ?", userID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&plans).Error
	if err != nil {
		return nil, 0, err
	}

	return plans, total, nil
}

// FindWithPagination 分页检索全部教案（管理员视图），按创建时间倒序。
func (r *lessonRepository) FindWithPagination(offset, limit int) ([]model.LessonPlan, int64, error) {
	var plans []model.LessonPlan
	var total int64

	db := r.db.Model(&model.LessonPlan{})

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&plans).Error
	if err != nil {
		return nil, 0, err
	}

	return plans, total, nil
}

// Delete 删除一条教案记录。
func (r *lessonRepository) Delete(planID uint) error {
	return r.db.Delete(&model.LessonPlan{}, planID).Error
}
