// Package service 包含了应用的业务逻辑层。
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"time"

	"lesson-smart-go/internal/config"
	"lesson-smart-go/internal/model"
	"lesson-smart-go/internal/repository"
	"lesson-smart-go/pkg/storage"
)

// ErrUnsupportedFormat 表示请求了未知的导出格式。
var ErrUnsupportedFormat = errors.New("不支持的导出格式，可选: markdown, txt, html")

// 预签名下载链接的有效期。
const exportURLExpiry = time.Hour

// ExportResult 描述一次导出的产物。
type ExportResult struct {
	ObjectName  string `json:"objectName"`
	DownloadURL string `json:"downloadUrl"`
	ContentType string `json:"contentType"`
}

// ExportService 定义了教案导出的业务接口。
type ExportService interface {
	Export(ctx context.Context, planID uint, format string, user *model.User) (*ExportResult, error)
}

type exportService struct {
	lessonRepo repository.LessonRepository
	minioCfg   config.MinIOConfig
	// 对象存储操作以函数注入，便于单元测试替换。
	putObject func(ctx context.Context, bucket, object string, reader io.Reader, size int64, contentType string) error
	presign   func(bucket, object string, expiry time.Duration) (string, error)
}

// NewExportService 创建一个新的 ExportService 实例。
func NewExportService(lessonRepo repository.LessonRepository, minioCfg config.MinIOConfig) ExportService {
	return &exportService{
		lessonRepo: lessonRepo,
		minioCfg:   minioCfg,
		putObject:  storage.PutObject,
		presign:    storage.GetPresignedURL,
	}
}

// Export 渲染教案为目标格式、写入对象存储并返回限时下载链接。
// markdown 与 txt 即存储的正文原文；html 仅做最小包裹，正文部分不被改写。
func (s *exportService) Export(ctx context.Context, planID uint, format string, user *model.User) (*ExportResult, error) {
	plan, err := s.lessonRepo.FindByID(planID)
	if err != nil {
		return nil, err
	}
	if plan.UserID != user.ID && user.Role != "ADMIN" {
		return nil, ErrForbidden
	}

	data, ext, contentType, err := renderExport(plan, format)
	if err != nil {
		return nil, err
	}

	objectName := fmt.Sprintf("exports/%d/lesson_plan_%d.%s", plan.UserID, plan.ID, ext)
	if err := s.putObject(ctx, s.minioCfg.BucketName, objectName, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return nil, fmt.Errorf("写入导出文件失败: %w", err)
	}

	url, err := s.presign(s.minioCfg.BucketName, objectName, exportURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("生成下载链接失败: %w", err)
	}

	return &ExportResult{
		ObjectName:  objectName,
		DownloadURL: url,
		ContentType: contentType,
	}, nil
}

// renderExport 渲染导出内容。返回字节、文件后缀与 Content-Type。
func renderExport(plan *model.LessonPlan, format string) ([]byte, string, string, error) {
	switch format {
	case "markdown", "md", "":
		return []byte(plan.Content), "md", "text/markdown", nil
	case "txt":
		return []byte(plan.Content), "txt", "text/plain", nil
	case "html":
		var b bytes.Buffer
		b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
		fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(plan.Topic))
		b.WriteString("</head>\n<body>\n<pre>\n")
		b.WriteString(html.EscapeString(plan.Content))
		b.WriteString("\n</pre>\n</body>\n</html>\n")
		return b.Bytes(), "html", "text/html", nil
	default:
		return nil, "", "", ErrUnsupportedFormat
	}
}
