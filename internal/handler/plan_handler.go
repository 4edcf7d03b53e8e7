// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"lesson-smart-go/internal/model"
	"lesson-smart-go/internal/service"
	"lesson-smart-go/pkg/log"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PlanHandler 负责处理教案相关的 API 请求。
type PlanHandler struct {
	plannerService service.PlannerService
}

// NewPlanHandler 创建一个新的 PlanHandler 实例。
func NewPlanHandler(plannerService service.PlannerService) *PlanHandler {
	return &PlanHandler{plannerService: plannerService}
}

// currentUser 从上下文中取出 AuthMiddleware 注入的用户对象。
func currentUser(c *gin.Context) (*model.User, bool) {
	userValue, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "无法获取用户信息"})
		return nil, false
	}
	user, ok := userValue.(*model.User)
	if !ok || user == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "用户数据类型错误"})
		return nil, false
	}
	return user, true
}

// parsePlanID 解析路径参数中的教案 ID。
func parsePlanID(c *gin.Context) (uint, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的教案 ID"})
		return 0, false
	}
	return uint(id), true
}

// planError 将服务层错误映射为 HTTP 响应。
func planError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": "教案不存在"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"code": http.StatusForbidden, "message": err.Error()})
	case errors.Is(err, service.ErrMissingFields):
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"code": http.StatusBadGateway, "message": "AI 服务暂时不可用，请稍后重试"})
	}
}

// Generate 处理同步生成教案的请求。
func (h *PlanHandler) Generate(c *gin.Context) {
	var req model.LessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("[PlanHandler] 生成请求参数无效: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载：Subject、Topic、Grade、Duration 和 Objectives 均为必填项",
		})
		return
	}

	user, ok := currentUser(c)
	if !ok {
		return
	}

	plan, err := h.plannerService.GeneratePlan(c.Request.Context(), req, user)
	if err != nil {
		log.Errorf("[PlanHandler] 生成教案失败, user: %s, error: %v", user.Username, err)
		planError(c, err)
		return
	}

	log.Infof("[PlanHandler] 教案生成成功, planID: %d, user: %s", plan.ID, user.Username)
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": plan, "message": "success"})
}

// List 分页列出当前用户的教案。
func (h *PlanHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))

	plans, total, err := h.plannerService.ListPlans(c.Request.Context(), user, page, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "查询教案列表失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data": gin.H{
			"content":       plans,
			"totalElements": total,
			"page":          page,
			"size":          size,
		},
	})
}

// Get 读取单份教案。
func (h *PlanHandler) Get(c *gin.Context) {
	planID, ok := parsePlanID(c)
	if !ok {
		return
	}
	user, ok := currentUser(c)
	if !ok {
		return
	}

	plan, err := h.plannerService.GetPlan(c.Request.Context(), planID, user)
	if err != nil {
		planError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": plan, "message": "success"})
}

// Delete 删除一份教案。
func (h *PlanHandler) Delete(c *gin.Context) {
	planID, ok := parsePlanID(c)
	if !ok {
		return
	}
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.plannerService.DeletePlan(c.Request.Context(), planID, user); err != nil {
		planError(c, err)
		return
	}
	log.Infof("[PlanHandler] 教案已删除, planID: %d, user: %s", planID, user.Username)
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "教案已删除"})
}

// Example 返回一组演示用的预填输入。
func (h *PlanHandler) Example(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": model.ExampleLessonRequest(), "message": "success"})
}

// Recent 返回用户最近的生成记录。
func (h *PlanHandler) Recent(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	summaries, err := h.plannerService.RecentPlans(c.Request.Context(), user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "查询最近生成记录失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": summaries, "message": "success"})
}
