// Package service 提供了搜索相关的业务逻辑。
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"lesson-smart-go/internal/config"
	"lesson-smart-go/internal/model"
	"lesson-smart-go/pkg/embedding"
	"lesson-smart-go/pkg/log"

	"github.com/elastic/go-elasticsearch/v8"
)

// 返回给前端的正文摘要长度上限。
const maxSnippetLen = 300

// SearchService 接口定义了教案搜索操作。
type SearchService interface {
	SearchPlans(ctx context.Context, query string, topK int, user *model.User) ([]model.SearchResponseDTO, error)
}

type searchService struct {
	embeddingClient embedding.Client
	esClient        *elasticsearch.Client
	esCfg           config.ElasticsearchConfig
}

// NewSearchService 创建一个新的 SearchService 实例。
func NewSearchService(embeddingClient embedding.Client, esClient *elasticsearch.Client, esCfg config.ElasticsearchConfig) SearchService {
	return &searchService{
		embeddingClient: embeddingClient,
		esClient:        esClient,
		esCfg:           esCfg,
	}
}

// SearchPlans 在用户自己的教案上执行混合搜索（kNN 语义召回 + BM25 重排）。
func (s *searchService) SearchPlans(ctx context.Context, query string, topK int, user *model.User) ([]model.SearchResponseDTO, error) {
	log.Infof("[SearchService] 开始搜索教案, query: '%s', topK: %d, user: %s", query, topK, user.Username)

	normalized := normalizeQuery(query)

	// 1. 向量化查询（用原始问句，保持语义检索能力）
	queryVector, err := s.embeddingClient.CreateEmbedding(ctx, query)
	if err != nil {
		log.Errorf("[SearchService] 向量化查询失败: %v", err)
		return nil, fmt.Errorf("failed to create query embedding: %w", err)
	}

	// 2. 构建混合搜索查询：kNN 召回 + 关键词匹配 + BM25 rescore，按所有者过滤
	var buf bytes.Buffer
	esQuery := map[string]interface{}{
		"knn": map[string]interface{}{
			"field":          "vector",
			"query_vector":   queryVector,
			"k":              topK * 10,
			"num_candidates": topK * 10,
			"filter": map[string]interface{}{
				"term": map[string]interface{}{"user_id": user.ID},
			},
		},
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"should": []map[string]interface{}{
					{"match": map[string]interface{}{"content": normalized}},
					{"match": map[string]interface{}{"topic": map[string]interface{}{"query": normalized, "boost": 2.0}}},
					{"match": map[string]interface{}{"subject": normalized}},
				},
				"minimum_should_match": 1,
				"filter": map[string]interface{}{
					"term": map[string]interface{}{"user_id": user.ID},
				},
			},
		},
		"rescore": map[string]interface{}{
			"window_size": topK * 10,
			"query": map[string]interface{}{
				"rescore_query": map[string]interface{}{
					"match": map[string]interface{}{
						"content": map[string]interface{}{
							"query":    normalized,
							"operator": "and",
						},
					},
				},
				"query_weight":         0.2, // 保留部分 k-NN 分数
				"rescore_query_weight": 1.0, // BM25 分数权重
			},
		},
		"size": topK,
	}

	if err := json.NewEncoder(&buf).Encode(esQuery); err != nil {
		log.Errorf("[SearchService] 序列化 Elasticsearch 查询失败: %v", err)
		return nil, fmt.Errorf("failed to encode es query: %w", err)
	}

	// 3. 执行搜索
	res, err := s.esClient.Search(
		s.esClient.Search.WithContext(ctx),
		s.esClient.Search.WithIndex(s.esCfg.IndexName),
		s.esClient.Search.WithBody(&buf),
		s.esClient.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		log.Errorf("[SearchService] 向 Elasticsearch 发送搜索请求失败: %v", err)
		return nil, fmt.Errorf("elasticsearch search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		bodyBytes, _ := io.ReadAll(res.Body)
		log.Errorf("[SearchService] Elasticsearch 返回错误, status: %s, body: %s", res.Status(), string(bodyBytes))
		return nil, fmt.Errorf("elasticsearch returned an error: %s", res.String())
	}

	// 4. 解析结果并组装响应 DTO
	var esResponse struct {
		Hits struct {
			Hits []struct {
				Source model.EsLessonDoc `json:"_source"`
				Score  float64           `json:"_score"`
			} `json:"hits"`
		} `json:"hits"`
	}

	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		log.Errorf("[SearchService] 解析 Elasticsearch 响应失败: %v", err)
		return nil, fmt.Errorf("failed to decode es response: %w", err)
	}

	results := make([]model.SearchResponseDTO, 0, len(esResponse.Hits.Hits))
	for _, hit := range esResponse.Hits.Hits {
		snippet := hit.Source.Content
		if runes := []rune(snippet); len(runes) > maxSnippetLen {
			snippet = string(runes[:maxSnippetLen]) + "…"
		}
		results = append(results, model.SearchResponseDTO{
			PlanID:     hit.Source.PlanID,
			Subject:    hit.Source.Subject,
			Topic:      hit.Source.Topic,
			Grade:      hit.Source.Grade,
			Language:   hit.Source.Language,
			Difficulty: hit.Source.Difficulty,
			Snippet:    snippet,
			Score:      hit.Score,
		})
	}

	log.Infof("[SearchService] 搜索完毕, query: '%s', 返回 %d 条结果", query, len(results))
	return results, nil
}

var reSpace = regexp.MustCompile(`\s+`)

// normalizeQuery 对用户查询做轻量去噪：小写化并归一空白。
func normalizeQuery(q string) string {
	normalized := strings.TrimSpace(reSpace.ReplaceAllString(strings.ToLower(q), " "))
	if normalized == "" {
		return q
	}
	return normalized
}
