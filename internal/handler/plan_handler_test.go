package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lesson-smart-go/internal/model"
	"lesson-smart-go/internal/service"
	"lesson-smart-go/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	log.Init("error", "console", "stdout")
	m.Run()
}

// stubPlannerService 返回预设结果，记录是否被调用。
type stubPlannerService struct {
	plan   *model.LessonPlan
	err    error
	called bool
}

func (s *stubPlannerService) GeneratePlan(_ context.Context, req model.LessonRequest, user *model.User) (*model.LessonPlan, error) {
	s.called = true
	return s.plan, s.err
}

func (s *stubPlannerService) StreamPlan(_ context.Context, _ model.LessonRequest, _ *model.User, _ *websocket.Conn, _ func() bool) error {
	return s.err
}

func (s *stubPlannerService) GetPlan(_ context.Context, _ uint, _ *model.User) (*model.LessonPlan, error) {
	return s.plan, s.err
}

func (s *stubPlannerService) ListPlans(_ context.Context, _ *model.User, _, _ int) ([]model.LessonPlan, int64, error) {
	return nil, 0, s.err
}

func (s *stubPlannerService) DeletePlan(_ context.Context, _ uint, _ *model.User) error {
	return s.err
}

func (s *stubPlannerService) RecentPlans(_ context.Context, _ *model.User) ([]model.PlanSummary, error) {
	return nil, s.err
}

// newPlanRouter 构建一个注入固定用户的测试路由。
func newPlanRouter(svc service.PlannerService) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user", &model.User{ID: 1, Username: "tester", Role: "USER"})
	})
	h := NewPlanHandler(svc)
	r.POST("/plans", h.Generate)
	r.GET("/plans/example", h.Example)
	r.GET("/plans/:id", h.Get)
	return r
}

func TestGenerate_InvalidPayloadRejectedBeforeService(t *testing.T) {
	svc := &stubPlannerService{}
	r := newPlanRouter(svc)

	// 缺少必填字段
	body := `{"subject":"Science"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/plans", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.False(t, svc.called, "参数校验失败时不应触达服务层")
}

func TestGenerate_Success(t *testing.T) {
	svc := &stubPlannerService{plan: &model.LessonPlan{ID: 9, UserID: 1, Content: "# Plan"}}
	r := newPlanRouter(svc)

	body := `{"subject":"Science","topic":"Solar System","grade":"Grade 6","duration":"60 minutes","objectives":"Name the planets"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/plans", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Code int              `json:"code"`
		Data model.LessonPlan `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "# Plan", resp.Data.Content)
}

func TestGet_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", gorm.ErrRecordNotFound, http.StatusNotFound},
		{"forbidden", service.ErrForbidden, http.StatusForbidden},
		{"upstream failure", context.DeadlineExceeded, http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newPlanRouter(&stubPlannerService{err: tc.err})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/plans/5", nil)
			r.ServeHTTP(w, req)
			require.Equal(t, tc.want, w.Code)
		})
	}
}

func TestGet_InvalidID(t *testing.T) {
	r := newPlanRouter(&stubPlannerService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/plans/abc", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExample_ReturnsPrefill(t *testing.T) {
	r := newPlanRouter(&stubPlannerService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/plans/example", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data model.LessonRequest `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.Subject)
	require.NotEmpty(t, resp.Data.Topic)
	require.NotEmpty(t, resp.Data.Objectives)
}
