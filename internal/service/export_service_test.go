package service

import (
	"context"
	"io"
	"testing"
	"time"

	"lesson-smart-go/internal/config"
	"lesson-smart-go/internal/model"

	"github.com/stretchr/testify/require"
)

type capturedObject struct {
	bucket      string
	object      string
	data        []byte
	contentType string
}

func newTestExportService(t *testing.T) (*exportService, *capturedObject) {
	t.Helper()
	lessonRepo := newStubLessonRepo()
	require.NoError(t, lessonRepo.Create(&model.LessonPlan{
		UserID:  4,
		Topic:   "Fractions & <html>",
		Content: "# Plan\n\nRaw **markdown** body.",
	}))

	captured := &capturedObject{}
	svc := &exportService{
		lessonRepo: lessonRepo,
		minioCfg:   config.MinIOConfig{BucketName: "lesson-exports"},
		putObject: func(_ context.Context, bucket, object string, reader io.Reader, size int64, contentType string) error {
			data, err := io.ReadAll(reader)
			require.NoError(t, err)
			require.Equal(t, size, int64(len(data)))
			*captured = capturedObject{bucket: bucket, object: object, data: data, contentType: contentType}
			return nil
		},
		presign: func(bucket, object string, expiry time.Duration) (string, error) {
			require.Equal(t, exportURLExpiry, expiry)
			return "https://minio.local/" + bucket + "/" + object + "?signed", nil
		},
	}
	return svc, captured
}

func TestExport_MarkdownIsStoredBodyVerbatim(t *testing.T) {
	svc, captured := newTestExportService(t)

	for _, format := range []string{"markdown", "md", ""} {
		result, err := svc.Export(context.Background(), 1, format, &model.User{ID: 4})
		require.NoError(t, err)
		require.Equal(t, "# Plan\n\nRaw **markdown** body.", string(captured.data))
		require.Equal(t, "text/markdown", result.ContentType)
		require.Equal(t, "exports/4/lesson_plan_1.md", result.ObjectName)
		require.Contains(t, result.DownloadURL, result.ObjectName)
	}
}

func TestExport_TxtIsStoredBodyVerbatim(t *testing.T) {
	svc, captured := newTestExportService(t)

	result, err := svc.Export(context.Background(), 1, "txt", &model.User{ID: 4})
	require.NoError(t, err)
	require.Equal(t, "# Plan\n\nRaw **markdown** body.", string(captured.data))
	require.Equal(t, "text/plain", result.ContentType)
	require.Equal(t, "exports/4/lesson_plan_1.txt", result.ObjectName)
}

func TestExport_HTMLWrapsEscapedBody(t *testing.T) {
	svc, captured := newTestExportService(t)

	result, err := svc.Export(context.Background(), 1, "html", &model.User{ID: 4})
	require.NoError(t, err)
	require.Equal(t, "text/html", result.ContentType)

	body := string(captured.data)
	require.Contains(t, body, "<pre>")
	require.Contains(t, body, "Raw **markdown** body.")
	// Topic 中的特殊字符必须被转义
	require.Contains(t, body, "Fractions &amp; &lt;html&gt;")
}

func TestExport_UnsupportedFormat(t *testing.T) {
	svc, captured := newTestExportService(t)

	_, err := svc.Export(context.Background(), 1, "pdf", &model.User{ID: 4})
	require.ErrorIs(t, err, ErrUnsupportedFormat)
	require.Empty(t, captured.object, "不应产生任何对象存储写入")
}

func TestExport_ForbiddenForOtherUser(t *testing.T) {
	svc, _ := newTestExportService(t)

	_, err := svc.Export(context.Background(), 1, "markdown", &model.User{ID: 2, Role: "USER"})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Export(context.Background(), 1, "markdown", &model.User{ID: 2, Role: "ADMIN"})
	require.NoError(t, err)
}
