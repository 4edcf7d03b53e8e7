// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// 难度等级，与提示词中的差异化指导一一对应。
const (
	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"
)

// LessonRequest 描述一次教案生成所需的全部输入。
// Subject/Topic/Grade/Duration/Objectives 为必填项，必须在任何网络调用之前完成校验。
type LessonRequest struct {
	Subject       string `json:"subject" binding:"required"`
	Topic         string `json:"topic" binding:"required"`
	Grade         string `json:"grade" binding:"required"`
	Duration      string `json:"duration" binding:"required"`
	Objectives    string `json:"objectives" binding:"required"`
	Customization string `json:"customization"`
	Difficulty    string `json:"difficulty" binding:"omitempty,oneof=Easy Medium Hard"`
	Language      string `json:"language"`
}

// LessonPlan 对应于数据库中的 'lesson_plans' 表，记录一次生成的教案。
// Content 即模型返回的 Markdown 原文，存储时不做任何改写。
type LessonPlan struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        uint      `gorm:"index;not null" json:"userId"`
	Subject       string    `gorm:"type:varchar(100);not null" json:"subject"`
	Topic         string    `gorm:"type:varchar(255);not null" json:"topic"`
	Grade         string    `gorm:"type:varchar(50);not null" json:"grade"`
	Duration      string    `gorm:"type:varchar(50);not null" json:"duration"`
	Objectives    string    `gorm:"type:text;not null" json:"objectives"`
	Customization string    `gorm:"type:text" json:"customization"`
	Difficulty    string    `gorm:"type:varchar(20);not null;default:'Medium'" json:"difficulty"`
	Language      string    `gorm:"type:varchar(50);not null;default:'English'" json:"language"`
	Content       string    `gorm:"type:longtext;not null" json:"content"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (LessonPlan) TableName() string {
	return "lesson_plans"
}

// PlanSummary 是写入 Redis 最近生成列表的轻量摘要。
type PlanSummary struct {
	PlanID    uint      `json:"planId"`
	Subject   string    `json:"subject"`
	Topic     string    `json:"topic"`
	Grade     string    `json:"grade"`
	CreatedAt time.Time `json:"createdAt"`
}

// ExampleLessonRequest 返回一组演示用的预填输入。
func ExampleLessonRequest() LessonRequest {
	return LessonRequest{
		Subject:  "Science",
		Topic:    "The Solar System",
		Grade:    "5",
		Duration: "1 hour",
		Objectives: "Students will be able to list the eight planets, describe their order from the sun, " +
			"and compare two planets by size and composition.",
		Customization: "Make it fun and interactive with a quick game and a hands-on mini-model activity.",
		Difficulty:    DifficultyMedium,
		Language:      "English",
	}
}
