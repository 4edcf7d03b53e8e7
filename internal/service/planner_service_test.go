package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"lesson-smart-go/internal/model"
	"lesson-smart-go/pkg/llm"
	"lesson-smart-go/pkg/log"
	"lesson-smart-go/pkg/tasks"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	log.Init("error", "console", "stdout")
	m.Run()
}

// stubLLM 记录收到的提示词并返回预设结果。
type stubLLM struct {
	response string
	err      error
	calls    int
	prompts  []string
}

func (s *stubLLM) Complete(_ context.Context, messages []llm.Message, _ *llm.GenerationParams) (string, error) {
	s.calls++
	for _, m := range messages {
		s.prompts = append(s.prompts, m.Content)
	}
	return s.response, s.err
}

func (s *stubLLM) StreamChatMessages(_ context.Context, messages []llm.Message, _ *llm.GenerationParams, writer llm.MessageWriter) error {
	s.calls++
	for _, m := range messages {
		s.prompts = append(s.prompts, m.Content)
	}
	if s.err != nil {
		return s.err
	}
	return writer.WriteMessage(1, []byte(s.response))
}

type stubLessonRepo struct {
	plans     map[uint]*model.LessonPlan
	created   []*model.LessonPlan
	deleted   []uint
	createErr error
	nextID    uint
	gotOffset int
	gotLimit  int
}

func newStubLessonRepo() *stubLessonRepo {
	return &stubLessonRepo{plans: map[uint]*model.LessonPlan{}, nextID: 1}
}

func (s *stubLessonRepo) Create(plan *model.LessonPlan) error {
	if s.createErr != nil {
		return s.createErr
	}
	plan.ID = s.nextID
	s.nextID++
	s.plans[plan.ID] = plan
	s.created = append(s.created, plan)
	return nil
}

func (s *stubLessonRepo) FindByID(planID uint) (*model.LessonPlan, error) {
	plan, ok := s.plans[planID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return plan, nil
}

func (s *stubLessonRepo) FindByUserWithPagination(userID uint, offset, limit int) ([]model.LessonPlan, int64, error) {
	s.gotOffset = offset
	s.gotLimit = limit
	var out []model.LessonPlan
	for _, p := range s.plans {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, int64(len(out)), nil
}

func (s *stubLessonRepo) FindWithPagination(offset, limit int) ([]model.LessonPlan, int64, error) {
	var out []model.LessonPlan
	for _, p := range s.plans {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (s *stubLessonRepo) Delete(planID uint) error {
	delete(s.plans, planID)
	s.deleted = append(s.deleted, planID)
	return nil
}

type stubQuizRepo struct {
	quizzes        map[uint][]model.Quiz
	deletedPlanIDs []uint
	nextID         uint
}

func newStubQuizRepo() *stubQuizRepo {
	return &stubQuizRepo{quizzes: map[uint][]model.Quiz{}, nextID: 1}
}

func (s *stubQuizRepo) Create(quiz *model.Quiz) error {
	quiz.ID = s.nextID
	s.nextID++
	s.quizzes[quiz.PlanID] = append(s.quizzes[quiz.PlanID], *quiz)
	return nil
}

func (s *stubQuizRepo) FindByPlanID(planID uint) ([]model.Quiz, error) {
	return s.quizzes[planID], nil
}

func (s *stubQuizRepo) DeleteByPlanID(planID uint) error {
	delete(s.quizzes, planID)
	s.deletedPlanIDs = append(s.deletedPlanIDs, planID)
	return nil
}

type stubActivityRepo struct {
	recent  map[uint][]model.PlanSummary
	removed []uint
}

func newStubActivityRepo() *stubActivityRepo {
	return &stubActivityRepo{recent: map[uint][]model.PlanSummary{}}
}

func (s *stubActivityRepo) GetRecentPlans(_ context.Context, userID uint) ([]model.PlanSummary, error) {
	return s.recent[userID], nil
}

func (s *stubActivityRepo) AddRecentPlan(_ context.Context, userID uint, summary model.PlanSummary) error {
	s.recent[userID] = append([]model.PlanSummary{summary}, s.recent[userID]...)
	return nil
}

func (s *stubActivityRepo) RemovePlan(_ context.Context, userID, planID uint) error {
	s.removed = append(s.removed, planID)
	return nil
}

func newTestPlannerService(llmClient llm.Client, lessonRepo *stubLessonRepo, quizRepo *stubQuizRepo, activityRepo *stubActivityRepo) (*plannerService, *[]tasks.LessonIndexTask, *[]uint) {
	published := &[]tasks.LessonIndexTask{}
	esDeleted := &[]uint{}
	svc := &plannerService{
		llmClient:    llmClient,
		lessonRepo:   lessonRepo,
		quizRepo:     quizRepo,
		activityRepo: activityRepo,
		publishIndexTask: func(task tasks.LessonIndexTask) error {
			*published = append(*published, task)
			return nil
		},
		deleteIndexDoc: func(_ context.Context, planID uint) error {
			*esDeleted = append(*esDeleted, planID)
			return nil
		},
	}
	return svc, published, esDeleted
}

func validRequest() model.LessonRequest {
	return model.LessonRequest{
		Subject:       "Science",
		Topic:         "The Solar System",
		Grade:         "Grade 6",
		Duration:      "60 minutes",
		Objectives:    "Name the planets in order; explain why Pluto is a dwarf planet",
		Customization: "Include a drawing activity",
		Difficulty:    model.DifficultyMedium,
		Language:      "English",
	}
}

func TestGeneratePlan_PromptContainsAllInputsVerbatim(t *testing.T) {
	client := &stubLLM{response: "# Lesson"}
	lessonRepo := newStubLessonRepo()
	svc, _, _ := newTestPlannerService(client, lessonRepo, newStubQuizRepo(), newStubActivityRepo())

	req := validRequest()
	_, err := svc.GeneratePlan(context.Background(), req, &model.User{ID: 1, Username: "alice"})
	require.NoError(t, err)
	require.Len(t, client.prompts, 1)

	prompt := client.prompts[0]
	for _, field := range []string{req.Subject, req.Topic, req.Grade, req.Duration, req.Objectives, req.Customization, req.Difficulty, req.Language} {
		require.Contains(t, prompt, field)
	}
}

func TestGeneratePlan_StoresContentUnmodified(t *testing.T) {
	raw := "# Plan\n\n| Step | Time |\n|---|---|\n| Intro | 5m |\n\n<unclosed & weird>  \n"
	client := &stubLLM{response: raw}
	lessonRepo := newStubLessonRepo()
	svc, published, _ := newTestPlannerService(client, lessonRepo, newStubQuizRepo(), newStubActivityRepo())

	plan, err := svc.GeneratePlan(context.Background(), validRequest(), &model.User{ID: 7})
	require.NoError(t, err)
	require.Equal(t, raw, plan.Content)
	require.Len(t, lessonRepo.created, 1)
	require.Equal(t, raw, lessonRepo.created[0].Content)

	// 入库后投递了索引任务
	require.Len(t, *published, 1)
	require.Equal(t, plan.ID, (*published)[0].PlanID)
	require.Equal(t, uint(7), (*published)[0].UserID)
}

func TestGeneratePlan_MissingFieldRejectedBeforeLLMCall(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*model.LessonRequest)
	}{
		{"empty subject", func(r *model.LessonRequest) { r.Subject = "" }},
		{"whitespace topic", func(r *model.LessonRequest) { r.Topic = "   " }},
		{"empty grade", func(r *model.LessonRequest) { r.Grade = "" }},
		{"empty duration", func(r *model.LessonRequest) { r.Duration = "" }},
		{"empty objectives", func(r *model.LessonRequest) { r.Objectives = "\t" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := &stubLLM{response: "unused"}
			svc, _, _ := newTestPlannerService(client, newStubLessonRepo(), newStubQuizRepo(), newStubActivityRepo())

			req := validRequest()
			tc.mutate(&req)
			_, err := svc.GeneratePlan(context.Background(), req, &model.User{ID: 1})
			require.ErrorIs(t, err, ErrMissingFields)
			require.Zero(t, client.calls, "不允许发出任何 LLM 调用")
		})
	}
}

func TestGeneratePlan_DefaultsApplied(t *testing.T) {
	client := &stubLLM{response: "content"}
	svc, _, _ := newTestPlannerService(client, newStubLessonRepo(), newStubQuizRepo(), newStubActivityRepo())

	req := validRequest()
	req.Difficulty = ""
	req.Language = ""
	plan, err := svc.GeneratePlan(context.Background(), req, &model.User{ID: 1})
	require.NoError(t, err)
	require.Equal(t, model.DifficultyMedium, plan.Difficulty)
	require.Equal(t, "English", plan.Language)
}

func TestGeneratePlan_LLMErrorPropagated(t *testing.T) {
	apiErr := errors.New("api rate limited")
	client := &stubLLM{err: apiErr}
	lessonRepo := newStubLessonRepo()
	svc, published, _ := newTestPlannerService(client, lessonRepo, newStubQuizRepo(), newStubActivityRepo())

	_, err := svc.GeneratePlan(context.Background(), validRequest(), &model.User{ID: 1})
	require.ErrorIs(t, err, apiErr)
	require.Empty(t, lessonRepo.created)
	require.Empty(t, *published)
}

func TestGetPlan_OwnershipEnforced(t *testing.T) {
	lessonRepo := newStubLessonRepo()
	require.NoError(t, lessonRepo.Create(&model.LessonPlan{UserID: 1, Content: "x"}))
	svc, _, _ := newTestPlannerService(&stubLLM{}, lessonRepo, newStubQuizRepo(), newStubActivityRepo())

	_, err := svc.GetPlan(context.Background(), 1, &model.User{ID: 2, Role: "USER"})
	require.ErrorIs(t, err, ErrForbidden)

	plan, err := svc.GetPlan(context.Background(), 1, &model.User{ID: 2, Role: "ADMIN"})
	require.NoError(t, err)
	require.Equal(t, uint(1), plan.UserID)

	_, err = svc.GetPlan(context.Background(), 99, &model.User{ID: 1})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDeletePlan_CleansUpQuizzesAndIndex(t *testing.T) {
	lessonRepo := newStubLessonRepo()
	require.NoError(t, lessonRepo.Create(&model.LessonPlan{UserID: 3}))
	quizRepo := newStubQuizRepo()
	require.NoError(t, quizRepo.Create(&model.Quiz{PlanID: 1, UserID: 3}))
	activityRepo := newStubActivityRepo()
	svc, _, esDeleted := newTestPlannerService(&stubLLM{}, lessonRepo, quizRepo, activityRepo)

	require.NoError(t, svc.DeletePlan(context.Background(), 1, &model.User{ID: 3}))
	require.Equal(t, []uint{1}, lessonRepo.deleted)
	require.Equal(t, []uint{1}, quizRepo.deletedPlanIDs)
	require.Equal(t, []uint{1}, *esDeleted)
	require.Equal(t, []uint{1}, activityRepo.removed)
}

func TestListPlans_PagingNormalized(t *testing.T) {
	lessonRepo := newStubLessonRepo()
	svc, _, _ := newTestPlannerService(&stubLLM{}, lessonRepo, newStubQuizRepo(), newStubActivityRepo())
	user := &model.User{ID: 1}

	// 超出上限的 size 收敛到 100，而不是退回默认值
	_, _, err := svc.ListPlans(context.Background(), user, 2, 250)
	require.NoError(t, err)
	require.Equal(t, 100, lessonRepo.gotLimit)
	require.Equal(t, 100, lessonRepo.gotOffset)

	// 非法值退回默认
	_, _, err = svc.ListPlans(context.Background(), user, 0, 0)
	require.NoError(t, err)
	require.Equal(t, 10, lessonRepo.gotLimit)
	require.Equal(t, 0, lessonRepo.gotOffset)
}

func TestWsWriterInterceptor_StopFlagSkipsDelivery(t *testing.T) {
	builder := &strings.Builder{}
	interceptor := &wsWriterInterceptor{writer: builder, shouldStop: func() bool { return true }}

	// 停止标志生效时既不捕获也不下发
	require.NoError(t, interceptor.WriteMessage(1, []byte("dropped")))
	require.Empty(t, builder.String())
}
