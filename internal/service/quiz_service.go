// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"

	"lesson-smart-go/internal/model"
	"lesson-smart-go/internal/repository"
	"lesson-smart-go/pkg/llm"
	"lesson-smart-go/pkg/log"
)

// 测验题目数量的许可范围。
const (
	minQuizQuestions     = 3
	maxQuizQuestions     = 15
	defaultQuizQuestions = 7
)

// QuizService 定义了测验生成的业务接口。
type QuizService interface {
	GenerateQuiz(ctx context.Context, planID uint, req model.QuizRequest, user *model.User) (*model.Quiz, error)
	ListQuizzes(ctx context.Context, planID uint, user *model.User) ([]model.Quiz, error)
}

type quizService struct {
	llmClient  llm.Client
	lessonRepo repository.LessonRepository
	quizRepo   repository.QuizRepository
}

// NewQuizService 创建一个新的 QuizService 实例。
func NewQuizService(llmClient llm.Client, lessonRepo repository.LessonRepository, quizRepo repository.QuizRepository) QuizService {
	return &quizService{
		llmClient:  llmClient,
		lessonRepo: lessonRepo,
		quizRepo:   quizRepo,
	}
}

// GenerateQuiz 基于已存储的教案正文生成一套随堂测验。
// 测验只依据教案内容，不会重新使用生成教案时的原始输入。
func (s *quizService) GenerateQuiz(ctx context.Context, planID uint, req model.QuizRequest, user *model.User) (*model.Quiz, error) {
	plan, err := s.lessonRepo.FindByID(planID)
	if err != nil {
		return nil, err
	}
	if plan.UserID != user.ID && user.Role != "ADMIN" {
		return nil, ErrForbidden
	}

	// 题目数量钳制到 [3, 15]，未指定时取 7
	numQuestions := req.NumQuestions
	if numQuestions == 0 {
		numQuestions = defaultQuizQuestions
	}
	if numQuestions < minQuizQuestions {
		numQuestions = minQuizQuestions
	}
	if numQuestions > maxQuizQuestions {
		numQuestions = maxQuizQuestions
	}
	// 难度与语言默认沿用教案本身的设置
	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = plan.Difficulty
	}
	language := req.Language
	if language == "" {
		language = plan.Language
	}

	prompt := buildQuizPrompt(plan.Content, plan.Grade, language, difficulty, numQuestions)
	content, err := s.llmClient.Complete(ctx, []llm.Message{{Role: "user", Content: prompt}}, nil)
	if err != nil {
		log.Errorf("[QuizService] LLM 生成测验失败, planID: %d, error: %v", planID, err)
		return nil, err
	}

	quiz := &model.Quiz{
		PlanID:       planID,
		UserID:       user.ID,
		NumQuestions: numQuestions,
		Difficulty:   difficulty,
		Language:     language,
		Content:      content,
	}
	if err := s.quizRepo.Create(quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

// ListQuizzes 列出某教案下的全部测验。
func (s *quizService) ListQuizzes(ctx context.Context, planID uint, user *model.User) ([]model.Quiz, error) {
	plan, err := s.lessonRepo.FindByID(planID)
	if err != nil {
		return nil, err
	}
	if plan.UserID != user.ID && user.Role != "ADMIN" {
		return nil, ErrForbidden
	}
	return s.quizRepo.FindByPlanID(planID)
}
