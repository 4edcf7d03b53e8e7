// Package model 定义了与数据库表对应的 Go 结构体。
package model

// SearchResponseDTO 定义了返回给前端的教案搜索结果结构。
type SearchResponseDTO struct {
	PlanID     uint    `json:"planId"`
	Subject    string  `json:"subject"`
	Topic      string  `json:"topic"`
	Grade      string  `json:"grade"`
	Language   string  `json:"language"`
	Difficulty string  `json:"difficulty"`
	Snippet    string  `json:"snippet"`
	Score      float64 `json:"score"`
}

// EsLessonDoc 定义了存储在 Elasticsearch 中的教案文档结构。
type EsLessonDoc struct {
	PlanID       uint      `json:"plan_id"`
	UserID       uint      `json:"user_id"`
	Subject      string    `json:"subject"`
	Topic        string    `json:"topic"`
	Grade        string    `json:"grade"`
	Language     string    `json:"language"`
	Difficulty   string    `json:"difficulty"`
	Content      string    `json:"content"`
	Vector       []float32 `json:"vector"` // 教案正文的向量表示
	ModelVersion string    `json:"model_version"`
	CreatedAt    string    `json:"created_at"`
}
