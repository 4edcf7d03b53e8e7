// Package service 包含了应用的业务逻辑层。
package service

import (
	"lesson-smart-go/internal/model"
	"lesson-smart-go/internal/repository"
)

// UserListResponse 定义了用户列表 API 的响应结构。
type UserListResponse struct {
	Content       []UserDetailResponse `json:"content"`
	TotalElements int64                `json:"totalElements"`
	TotalPages    int                  `json:"totalPages"`
	Size          int                  `json:"size"`
	Number        int                  `json:"number"`
}

// UserDetailResponse 定义了用户列表项的详细结构。
type UserDetailResponse struct {
	UserID    uint   `json:"userId"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"`
}

// PlanListResponse 定义了教案列表 API 的响应结构。
type PlanListResponse struct {
	Content       []model.LessonPlan `json:"content"`
	TotalElements int64              `json:"totalElements"`
	TotalPages    int                `json:"totalPages"`
	Size          int                `json:"size"`
	Number        int                `json:"number"`
}

// AdminService 接口定义了所有管理员相关的业务操作。
type AdminService interface {
	ListUsers(page, size int) (*UserListResponse, error)
	ListAllPlans(page, size int) (*PlanListResponse, error)
}

// adminService 是 AdminService 接口的实现。
type adminService struct {
	userRepo   repository.UserRepository
	lessonRepo repository.LessonRepository
}

// NewAdminService 创建一个新的 AdminService 实例。
func NewAdminService(userRepo repository.UserRepository, lessonRepo repository.LessonRepository) AdminService {
	return &adminService{
		userRepo:   userRepo,
		lessonRepo: lessonRepo,
	}
}

// ListUsers 分页列出所有用户。
func (s *adminService) ListUsers(page, size int) (*UserListResponse, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 10
	}
	if size > 100 {
		size = 100
	}

	users, total, err := s.userRepo.FindWithPagination((page-1)*size, size)
	if err != nil {
		return nil, err
	}

	content := make([]UserDetailResponse, 0, len(users))
	for _, u := range users {
		content = append(content, UserDetailResponse{
			UserID:    u.ID,
			Username:  u.Username,
			Role:      u.Role,
			CreatedAt: u.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	return &UserListResponse{
		Content:       content,
		TotalElements: total,
		TotalPages:    totalPages(total, size),
		Size:          size,
		Number:        page,
	}, nil
}

// ListAllPlans 分页列出所有用户的教案（管理员视图）。
func (s *adminService) ListAllPlans(page, size int) (*PlanListResponse, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 10
	}
	if size > 100 {
		size = 100
	}

	plans, total, err := s.lessonRepo.FindWithPagination((page-1)*size, size)
	if err != nil {
		return nil, err
	}

	return &PlanListResponse{
		Content:       plans,
		TotalElements: total,
		TotalPages:    totalPages(total, size),
		Size:          size,
		Number:        page,
	}, nil
}

func totalPages(total int64, size int) int {
	pages := int(total) / size
	if int(total)%size != 0 {
		pages++
	}
	return pages
}
