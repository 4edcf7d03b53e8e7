// Package tasks 定义了投递到 Kafka 的任务结构。
package tasks

// LessonIndexTask 表示一个教案索引任务：教案生成后由后台管道向量化并写入 Elasticsearch。
type LessonIndexTask struct {
	PlanID uint `json:"plan_id"`
	UserID uint `json:"user_id"`
}
