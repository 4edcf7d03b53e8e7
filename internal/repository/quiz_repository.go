// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"lesson-smart-go/internal/model"

	"gorm.io/gorm"
)

// QuizRepository 接口定义了测验数据的持久化操作。
type QuizRepository interface {
	Create(quiz *model.Quiz) error
	FindByPlanID(planID uint) ([]model.Quiz, error)
	DeleteByPlanID(planID uint) error
}

// quizRepository 是 QuizRepository 接口的 GORM 实现。
type quizRepository struct {
	db *gorm.DB
}

// NewQuizRepository 创建一个新的 QuizRepository 实例。
func NewQuizRepository(db *gorm.DB) QuizRepository {
	return &quizRepository{db: db}
}

// Create 在数据库中创建一条新的测验记录。
func (r *quizRepository) Create(quiz *model.Quiz) error {
	return r.db.Create(quiz).Error
}

// FindByPlanID 查找某教案下的全部测验，按创建时间倒序。
func (r *quizRepository) FindByPlanID(planID uint) ([]model.Quiz, error) {
	var quizzes []model.Quiz
	err := r.db.Where("plan_id = ?", planID).Order("created_at DESC").Find(&quizzes).Error
	return quizzes, err
}

// DeleteByPlanID 删除某教案下的全部测验（随教案一起删除）。
func (r *quizRepository) DeleteByPlanID(planID uint) error {
	return r.db.Where("plan_id = ?", planID).Delete(&model.Quiz{}).Error
}
