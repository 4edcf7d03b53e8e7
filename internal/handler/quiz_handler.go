package handler

import (
	"errors"
	"io"
	"net/http"

	"lesson-smart-go/internal/model"
	"lesson-smart-go/internal/service"
	"lesson-smart-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// QuizHandler 负责处理测验相关的 API 请求。
type QuizHandler struct {
	quizService service.QuizService
}

// NewQuizHandler 创建一个新的 QuizHandler 实例。
func NewQuizHandler(quizService service.QuizService) *QuizHandler {
	return &QuizHandler{quizService: quizService}
}

// Generate 基于已有教案生成一份测验。
func (h *QuizHandler) Generate(c *gin.Context) {
	planID, ok := parsePlanID(c)
	if !ok {
		return
	}
	user, ok := currentUser(c)
	if !ok {
		return
	}

	// 所有字段均可选，空请求体等同于全部使用默认值
	var req model.QuizRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求负载"})
		return
	}

	quiz, err := h.quizService.GenerateQuiz(c.Request.Context(), planID, req, user)
	if err != nil {
		log.Errorf("[QuizHandler] 生成测验失败, planID: %d, user: %s, error: %v", planID, user.Username, err)
		planError(c, err)
		return
	}

	log.Infof("[QuizHandler] 测验生成成功, quizID: %d, planID: %d", quiz.ID, planID)
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": quiz, "message": "success"})
}

// List 列出某份教案下已生成的测验。
func (h *QuizHandler) List(c *gin.Context) {
	planID, ok := parsePlanID(c)
	if !ok {
		return
	}
	user, ok := currentUser(c)
	if !ok {
		return
	}

	quizzes, err := h.quizService.ListQuizzes(c.Request.Context(), planID, user)
	if err != nil {
		planError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": quizzes, "message": "success"})
}
