// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"lesson-smart-go/internal/model"
	"lesson-smart-go/internal/repository"
	"lesson-smart-go/pkg/kafka"
	"lesson-smart-go/pkg/llm"
	"lesson-smart-go/pkg/log"
	"lesson-smart-go/pkg/tasks"

	"github.com/gorilla/websocket"
)

// 服务层的业务错误。handler 依据它们映射 HTTP 状态码。
var (
	ErrMissingFields = errors.New("Subject、Topic、Grade、Duration 和 Objectives 均为必填项")
	ErrForbidden     = errors.New("无权访问该教案")
)

// PlannerService 定义了教案生成与管理的业务接口。
type PlannerService interface {
	GeneratePlan(ctx context.Context, req model.LessonRequest, user *model.User) (*model.LessonPlan, error)
	StreamPlan(ctx context.Context, req model.LessonRequest, user *model.User, ws *websocket.Conn, shouldStop func() bool) error
	GetPlan(ctx context.Context, planID uint, user *model.User) (*model.LessonPlan, error)
	ListPlans(ctx context.Context, user *model.User, page, size int) ([]model.LessonPlan, int64, error)
	DeletePlan(ctx context.Context, planID uint, user *model.User) error
	RecentPlans(ctx context.Context, user *model.User) ([]model.PlanSummary, error)
}

type plannerService struct {
	llmClient    llm.Client
	lessonRepo   repository.LessonRepository
	quizRepo     repository.QuizRepository
	activityRepo repository.ActivityRepository
	// 索引任务投递与 ES 文档删除以函数注入，便于单元测试替换。
	publishIndexTask func(task tasks.LessonIndexTask) error
	deleteIndexDoc   func(ctx context.Context, planID uint) error
}

// NewPlannerService 创建一个新的 PlannerService 实例。
func NewPlannerService(
	llmClient llm.Client,
	lessonRepo repository.LessonRepository,
	quizRepo repository.QuizRepository,
	activityRepo repository.ActivityRepository,
	deleteIndexDoc func(ctx context.Context, planID uint) error,
) PlannerService {
	return &plannerService{
		llmClient:        llmClient,
		lessonRepo:       lessonRepo,
		quizRepo:         quizRepo,
		activityRepo:     activityRepo,
		publishIndexTask: kafka.ProduceIndexTask,
		deleteIndexDoc:   deleteIndexDoc,
	}
}

// normalizeRequest 校验必填项并补齐默认值。
// 校验必须发生在任何 LLM 调用之前。
func normalizeRequest(req *model.LessonRequest) error {
	req.Subject = strings.TrimSpace(req.Subject)
	req.Topic = strings.TrimSpace(req.Topic)
	req.Grade = strings.TrimSpace(req.Grade)
	req.Duration = strings.TrimSpace(req.Duration)
	req.Objectives = strings.TrimSpace(req.Objectives)
	req.Customization = strings.TrimSpace(req.Customization)

	if req.Subject == "" || req.Topic == "" || req.Grade == "" || req.Duration == "" || req.Objectives == "" {
		return ErrMissingFields
	}
	if req.Difficulty == "" {
		req.Difficulty = model.DifficultyMedium
	}
	if req.Language == "" {
		req.Language = "English"
	}
	return nil
}

// GeneratePlan 同步生成一份教案：构建提示词、调用 LLM、入库并触发索引。
// 模型返回的内容原样存储，不做任何改写。
func (s *plannerService) GeneratePlan(ctx context.Context, req model.LessonRequest, user *model.User) (*model.LessonPlan, error) {
	if err := normalizeRequest(&req); err != nil {
		return nil, err
	}

	prompt := buildLessonPrompt(req)
	content, err := s.llmClient.Complete(ctx, []llm.Message{{Role: "user", Content: prompt}}, nil)
	if err != nil {
		log.Errorf("[PlannerService] LLM 生成教案失败, user: %s, error: %v", user.Username, err)
		return nil, err
	}

	plan := &model.LessonPlan{
		UserID:        user.ID,
		Subject:       req.Subject,
		Topic:         req.Topic,
		Grade:         req.Grade,
		Duration:      req.Duration,
		Objectives:    req.Objectives,
		Customization: req.Customization,
		Difficulty:    req.Difficulty,
		Language:      req.Language,
		Content:       content,
	}
	if err := s.lessonRepo.Create(plan); err != nil {
		return nil, err
	}

	s.afterPersist(plan)
	return plan, nil
}

// StreamPlan 以 WebSocket 流式生成教案，完成后与同步路径一样入库并触发索引。
func (s *plannerService) StreamPlan(ctx context.Context, req model.LessonRequest, user *model.User, ws *websocket.Conn, shouldStop func() bool) error {
	if err := normalizeRequest(&req); err != nil {
		return err
	}

	prompt := buildLessonPrompt(req)

	// 拦截 websocket writer 以捕获完整答案，并包装为 JSON 分块
	answerBuilder := &strings.Builder{}
	interceptor := &wsWriterInterceptor{conn: ws, writer: answerBuilder, shouldStop: shouldStop}

	err := s.llmClient.StreamChatMessages(ctx, []llm.Message{{Role: "user", Content: prompt}}, nil, interceptor)
	if err != nil {
		return err
	}

	sendCompletion(ws)

	fullContent := answerBuilder.String()
	if len(fullContent) == 0 {
		return nil
	}
	plan := &model.LessonPlan{
		UserID:        user.ID,
		Subject:       req.Subject,
		Topic:         req.Topic,
		Grade:         req.Grade,
		Duration:      req.Duration,
		Objectives:    req.Objectives,
		Customization: req.Customization,
		Difficulty:    req.Difficulty,
		Language:      req.Language,
		Content:       fullContent,
	}
	// 使用后台上下文：即使客户端断开，成功生成的教案也应当保存
	if err := s.lessonRepo.Create(plan); err != nil {
		log.Errorf("[PlannerService] 保存流式生成的教案失败: %v", err)
		return nil
	}
	s.afterPersist(plan)
	return nil
}

// afterPersist 在教案入库后投递索引任务并更新最近生成列表。
// 两者失败都只记录日志，不影响已完成的生成。
func (s *plannerService) afterPersist(plan *model.LessonPlan) {
	if err := s.publishIndexTask(tasks.LessonIndexTask{PlanID: plan.ID, UserID: plan.UserID}); err != nil {
		log.Errorf("[PlannerService] 投递索引任务失败, planID: %d, error: %v", plan.ID, err)
	}
	summary := model.PlanSummary{
		PlanID:    plan.ID,
		Subject:   plan.Subject,
		Topic:     plan.Topic,
		Grade:     plan.Grade,
		CreatedAt: time.Now(),
	}
	if err := s.activityRepo.AddRecentPlan(context.Background(), plan.UserID, summary); err != nil {
		log.Errorf("[PlannerService] 更新最近生成列表失败, planID: %d, error: %v", plan.ID, err)
	}
}

// GetPlan 读取一份教案，仅所有者或管理员可见。
func (s *plannerService) GetPlan(ctx context.Context, planID uint, user *model.User) (*model.LessonPlan, error) {
	plan, err := s.lessonRepo.FindByID(planID)
	if err != nil {
		return nil, err
	}
	if plan.UserID != user.ID && user.Role != "ADMIN" {
		return nil, ErrForbidden
	}
	return plan, nil
}

// ListPlans 分页列出当前用户的教案。
func (s *plannerService) ListPlans(ctx context.Context, user *model.User, page, size int) ([]model.LessonPlan, int64, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 10
	}
	if size > 100 {
		size = 100
	}
	return s.lessonRepo.FindByUserWithPagination(user.ID, (page-1)*size, size)
}

// DeletePlan 删除一份教案及其测验和 ES 文档。
func (s *plannerService) DeletePlan(ctx context.Context, planID uint, user *model.User) error {
	plan, err := s.lessonRepo.FindByID(planID)
	if err != nil {
		return err
	}
	if plan.UserID != user.ID && user.Role != "ADMIN" {
		return ErrForbidden
	}

	if err := s.quizRepo.DeleteByPlanID(planID); err != nil {
		return err
	}
	if err := s.lessonRepo.Delete(planID); err != nil {
		return err
	}
	// ES 与 Redis 中的冗余数据清理失败不阻塞删除
	if err := s.deleteIndexDoc(ctx, planID); err != nil {
		log.Errorf("[PlannerService] 删除 ES 教案文档失败, planID: %d, error: %v", planID, err)
	}
	if err := s.activityRepo.RemovePlan(ctx, plan.UserID, planID); err != nil {
		log.Errorf("[PlannerService] 清理最近生成列表失败, planID: %d, error: %v", planID, err)
	}
	return nil
}

// RecentPlans 返回用户最近的生成记录。
func (s *plannerService) RecentPlans(ctx context.Context, user *model.User) ([]model.PlanSummary, error) {
	return s.activityRepo.GetRecentPlans(ctx, user.ID)
}

// wsWriterInterceptor 是对 websocket.Conn 的封装，用于捕获写入的消息。
type wsWriterInterceptor struct {
	conn       *websocket.Conn
	writer     *strings.Builder
	shouldStop func() bool
}

// WriteMessage 满足 llm.MessageWriter 接口。
func (w *wsWriterInterceptor) WriteMessage(messageType int, data []byte) error {
	if w.shouldStop != nil && w.shouldStop() {
		// 停止标志生效：跳过下发
		return nil
	}
	w.writer.Write(data)
	// 将原始分块包装成 {"chunk":"..."}
	payload := map[string]string{"chunk": string(data)}
	b, _ := json.Marshal(payload)
	return w.conn.WriteMessage(messageType, b)
}

// sendCompletion 发送完成通知 JSON
func sendCompletion(ws *websocket.Conn) {
	notif := map[string]interface{}{
		"type":      "completion",
		"status":    "finished",
		"message":   "响应已完成",
		"timestamp": time.Now().UnixMilli(),
		"date":      time.Now().Format("2006-01-02T15:04:05"),
	}
	b, _ := json.Marshal(notif)
	_ = ws.WriteMessage(websocket.TextMessage, b)
}
