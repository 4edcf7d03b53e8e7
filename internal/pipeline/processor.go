// Package pipeline 定义了教案索引的后台处理流程。
package pipeline

import (
	"context"
	"fmt"
	"time"

	"lesson-smart-go/internal/config"
	"lesson-smart-go/internal/model"
	"lesson-smart-go/internal/repository"
	"lesson-smart-go/pkg/embedding"
	"lesson-smart-go/pkg/es"
	"lesson-smart-go/pkg/log"
	"lesson-smart-go/pkg/tasks"
)

// 送入 embedding 模型的正文长度上限（按 rune 截断，避免超出模型输入限制）。
const maxEmbeddingRunes = 8000

// Indexer 抽象了向 Elasticsearch 写入教案文档的操作，便于测试。
type Indexer func(ctx context.Context, indexName string, doc model.EsLessonDoc) error

// Processor 封装了教案索引的所有依赖和逻辑。
type Processor struct {
	embeddingClient embedding.Client
	esCfg           config.ElasticsearchConfig
	embeddingCfg    config.EmbeddingConfig
	lessonRepo      repository.LessonRepository
	indexDoc        Indexer
}

// NewProcessor 创建一个新的 Processor 实例。
func NewProcessor(
	embeddingClient embedding.Client,
	esCfg config.ElasticsearchConfig,
	embeddingCfg config.EmbeddingConfig,
	lessonRepo repository.LessonRepository,
) *Processor {
	return &Processor{
		embeddingClient: embeddingClient,
		esCfg:           esCfg,
		embeddingCfg:    embeddingCfg,
		lessonRepo:      lessonRepo,
		indexDoc:        es.IndexLessonDoc,
	}
}

// Process 是教案索引的主函数：读取教案、向量化正文、写入 Elasticsearch。
// 以 planID 作为文档 ID，重复处理同一任务是幂等的。
func (p *Processor) Process(ctx context.Context, task tasks.LessonIndexTask) error {
	log.Infof("[Processor] 开始索引教案, planID: %d, userID: %d", task.PlanID, task.UserID)

	// 1. 从数据库读取教案
	plan, err := p.lessonRepo.FindByID(task.PlanID)
	if err != nil {
		log.Errorf("[Processor] 读取教案失败, planID: %d, Error: %v", task.PlanID, err)
		return fmt.Errorf("读取教案失败: %w", err)
	}

	// 2. 向量化正文
	text := truncateRunes(plan.Content, maxEmbeddingRunes)
	vector, err := p.embeddingClient.CreateEmbedding(ctx, text)
	if err != nil {
		log.Errorf("[Processor] 教案向量化失败, planID: %d, Error: %v", task.PlanID, err)
		return fmt.Errorf("教案向量化失败: %w", err)
	}

	// 3. 索引到 Elasticsearch
	esDoc := model.EsLessonDoc{
		PlanID:       plan.ID,
		UserID:       plan.UserID,
		Subject:      plan.Subject,
		Topic:        plan.Topic,
		Grade:        plan.Grade,
		Language:     plan.Language,
		Difficulty:   plan.Difficulty,
		Content:      plan.Content,
		Vector:       vector,
		ModelVersion: p.embeddingCfg.Model,
		CreatedAt:    plan.CreatedAt.UTC().Format(time.RFC3339),
	}
	if err := p.indexDoc(ctx, p.esCfg.IndexName, esDoc); err != nil {
		log.Errorf("[Processor] 索引教案到 Elasticsearch 失败, planID: %d, Error: %v", task.PlanID, err)
		return fmt.Errorf("索引教案到 Elasticsearch 失败: %w", err)
	}

	log.Infof("[Processor] 教案索引完成, planID: %d", task.PlanID)
	return nil
}

// truncateRunes 按 rune 截断文本。
func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
