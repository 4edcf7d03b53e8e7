package handler

import (
	"errors"
	"net/http"

	"lesson-smart-go/internal/service"
	"lesson-smart-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// ExportHandler 负责处理教案导出请求。
type ExportHandler struct {
	exportService service.ExportService
}

// NewExportHandler 创建一个新的 ExportHandler 实例。
func NewExportHandler(exportService service.ExportService) *ExportHandler {
	return &ExportHandler{exportService: exportService}
}

// Export 将教案渲染为指定格式并返回预签名下载链接。
func (h *ExportHandler) Export(c *gin.Context) {
	planID, ok := parsePlanID(c)
	if !ok {
		return
	}
	user, ok := currentUser(c)
	if !ok {
		return
	}

	format := c.DefaultQuery("format", "markdown")
	result, err := h.exportService.Export(c.Request.Context(), planID, format, user)
	if err != nil {
		if errors.Is(err, service.ErrUnsupportedFormat) {
			c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": err.Error()})
			return
		}
		log.Errorf("[ExportHandler] 导出教案失败, planID: %d, format: %s, error: %v", planID, format, err)
		planError(c, err)
		return
	}

	log.Infof("[ExportHandler] 教案导出成功, planID: %d, object: %s", planID, result.ObjectName)
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": result, "message": "success"})
}
