package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"lesson-smart-go/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
)

func newTestActivityRepo(t *testing.T) (ActivityRepository, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	return NewActivityRepository(client), s
}

func TestAddRecentPlan_NewestFirst(t *testing.T) {
	repo, _ := newTestActivityRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.AddRecentPlan(ctx, 1, model.PlanSummary{PlanID: 1, Topic: "first"}))
	require.NoError(t, repo.AddRecentPlan(ctx, 1, model.PlanSummary{PlanID: 2, Topic: "second"}))

	summaries, err := repo.GetRecentPlans(ctx, 1)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	require.Equal(t, uint(2), summaries[0].PlanID)
	require.Equal(t, "second", summaries[0].Topic)
	require.Equal(t, uint(1), summaries[1].PlanID)
}

func TestAddRecentPlan_TrimsToTwentyEntries(t *testing.T) {
	repo, _ := newTestActivityRepo(t)
	ctx := context.Background()

	for i := 1; i <= 21; i++ {
		require.NoError(t, repo.AddRecentPlan(ctx, 1, model.PlanSummary{
			PlanID: uint(i),
			Topic:  fmt.Sprintf("topic-%d", i),
		}))
	}

	summaries, err := repo.GetRecentPlans(ctx, 1)
	require.NoError(t, err)
	require.Len(t, summaries, 20)
	// 第 21 条挤掉最旧的一条，最新的在头部
	require.Equal(t, uint(21), summaries[0].PlanID)
	require.Equal(t, uint(2), summaries[len(summaries)-1].PlanID)
}

func TestAddRecentPlan_SetsSevenDayTTL(t *testing.T) {
	repo, s := newTestActivityRepo(t)

	require.NoError(t, repo.AddRecentPlan(context.Background(), 3, model.PlanSummary{PlanID: 1}))
	require.Equal(t, 7*24*time.Hour, s.TTL(recentKey(3)))
}

func TestGetRecentPlans_EmptyForNewUser(t *testing.T) {
	repo, _ := newTestActivityRepo(t)

	summaries, err := repo.GetRecentPlans(context.Background(), 42)
	require.NoError(t, err)
	require.Empty(t, summaries)
}

func TestRemovePlan_KeepsOrderOfRemaining(t *testing.T) {
	repo, _ := newTestActivityRepo(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		require.NoError(t, repo.AddRecentPlan(ctx, 1, model.PlanSummary{PlanID: uint(i)}))
	}

	require.NoError(t, repo.RemovePlan(ctx, 1, 2))

	summaries, err := repo.GetRecentPlans(ctx, 1)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	require.Equal(t, uint(3), summaries[0].PlanID)
	require.Equal(t, uint(1), summaries[1].PlanID)
}

func TestRemovePlan_IsolatedPerUser(t *testing.T) {
	repo, _ := newTestActivityRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.AddRecentPlan(ctx, 1, model.PlanSummary{PlanID: 7}))
	require.NoError(t, repo.AddRecentPlan(ctx, 2, model.PlanSummary{PlanID: 7}))

	require.NoError(t, repo.RemovePlan(ctx, 1, 7))

	mine, err := repo.GetRecentPlans(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, mine)

	theirs, err := repo.GetRecentPlans(ctx, 2)
	require.NoError(t, err)
	require.Len(t, theirs, 1)
}
