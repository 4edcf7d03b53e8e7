// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lesson-smart-go/internal/model"

	"github.com/go-redis/redis/v8"
)

// 最近生成列表的保留条数与过期时间。
const (
	maxRecentPlans = 20
	recentPlansTTL = 7 * 24 * time.Hour
)

// ActivityRepository 定义了用户最近生成记录的操作接口。
// 记录保存在 Redis 中，仅作为轻量缓存，真实数据以 MySQL 为准。
type ActivityRepository interface {
	GetRecentPlans(ctx context.Context, userID uint) ([]model.PlanSummary, error)
	AddRecentPlan(ctx context.Context, userID uint, summary model.PlanSummary) error
	RemovePlan(ctx context.Context, userID, planID uint) error
}

type redisActivityRepository struct {
	redisClient *redis.Client
}

// NewActivityRepository 创建一个新的 ActivityRepository 实例。
func NewActivityRepository(redisClient *redis.Client) ActivityRepository {
	return &redisActivityRepository{redisClient: redisClient}
}

func recentKey(userID uint) string {
	return fmt.Sprintf("user:%d:recent_plans", userID)
}

// GetRecentPlans 从 Redis 获取用户最近的生成记录，新的在前。
func (r *redisActivityRepository) GetRecentPlans(ctx context.Context, userID uint) ([]model.PlanSummary, error) {
	entries, err := r.redisClient.LRange(ctx, recentKey(userID), 0, -1).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to get recent plans: %w", err)
	}
	summaries := make([]model.PlanSummary, 0, len(entries))
	for _, entry := range entries {
		var s model.PlanSummary
		if err := json.Unmarshal([]byte(entry), &s); err != nil {
			return nil, fmt.Errorf("failed to unmarshal recent plan: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// AddRecentPlan 将一条生成记录压入用户最近列表的头部。
// LPUSH、LTRIM 和 EXPIRE 在同一个事务管道中执行，
// 同一用户并发生成时不会丢条目，且列表长度始终不超过 maxRecentPlans。
func (r *redisActivityRepository) AddRecentPlan(ctx context.Context, userID uint, summary model.PlanSummary) error {
	jsonData, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal recent plan: %w", err)
	}
	key := recentKey(userID)
	_, err = r.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, jsonData)
		pipe.LTrim(ctx, key, 0, maxRecentPlans-1)
		pipe.Expire(ctx, key, recentPlansTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to add recent plan: %w", err)
	}
	return nil
}

// RemovePlan 从最近列表中移除指定教案（教案删除时调用）。
func (r *redisActivityRepository) RemovePlan(ctx context.Context, userID, planID uint) error {
	summaries, err := r.GetRecentPlans(ctx, userID)
	if err != nil {
		return err
	}
	key := recentKey(userID)
	_, err = r.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		// 从最旧一条开始压入，头部保持最新
		for i := len(summaries) - 1; i >= 0; i-- {
			if summaries[i].PlanID == planID {
				continue
			}
			b, mErr := json.Marshal(summaries[i])
			if mErr != nil {
				return mErr
			}
			pipe.LPush(ctx, key, b)
		}
		pipe.Expire(ctx, key, recentPlansTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to remove recent plan: %w", err)
	}
	return nil
}
