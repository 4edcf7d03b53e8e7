// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// QuizRequest 描述一次随堂测验生成的可选参数。
// 测验内容只依据已存储的教案正文生成。
type QuizRequest struct {
	NumQuestions int    `json:"numQuestions"`
	Difficulty   string `json:"difficulty" binding:"omitempty,oneof=Easy Medium Hard"`
	Language     string `json:"language"`
}

// Quiz 对应于数据库中的 'quizzes' 表，记录基于某教案生成的测验。
type Quiz struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PlanID       uint      `gorm:"index;not null" json:"planId"`
	UserID       uint      `gorm:"index;not null" json:"userId"`
	NumQuestions int       `gorm:"not null" json:"numQuestions"`
	Difficulty   string    `gorm:"type:varchar(20);not null" json:"difficulty"`
	Language     string    `gorm:"type:varchar(50);not null" json:"language"`
	Content      string    `gorm:"type:longtext;not null" json:"content"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Quiz) TableName() string {
	return "quizzes"
}
