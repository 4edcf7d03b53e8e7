// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lesson-smart-go/internal/config"
	"lesson-smart-go/internal/handler"
	"lesson-smart-go/internal/middleware"
	"lesson-smart-go/internal/model"
	"lesson-smart-go/internal/pipeline"
	"lesson-smart-go/internal/repository"
	"lesson-smart-go/internal/service"
	"lesson-smart-go/pkg/database"
	"lesson-smart-go/pkg/embedding"
	"lesson-smart-go/pkg/es"
	"lesson-smart-go/pkg/kafka"
	"lesson-smart-go/pkg/llm"
	"lesson-smart-go/pkg/log"
	"lesson-smart-go/pkg/storage"
	"lesson-smart-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// 0. 加载 .env（允许不存在，环境变量可直接由外部注入）
	_ = godotenv.Load()

	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 2.1 启动前校验：API Key 缺失必须在任何请求发生之前暴露
	if err := config.Validate(); err != nil {
		log.Fatalf("配置校验失败: %v", err)
	}

	// 3. 初始化数据库和 Redis
	database.InitMySQL(cfg.Database.MySQL.DSN)
	if err := database.DB.AutoMigrate(&model.User{}, &model.LessonPlan{}, &model.Quiz{}); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	storage.InitMinIO(cfg.MinIO)
	if err := es.InitES(cfg.Elasticsearch, cfg.Embedding.Dimensions); err != nil {
		log.Errorf("es 初始化失败 %s", err)
		return
	}
	kafka.InitProducer(cfg.Kafka)

	// 4. 初始化 Repository
	userRepository := repository.NewUserRepository(database.DB)
	lessonRepo := repository.NewLessonRepository(database.DB)
	quizRepo := repository.NewQuizRepository(database.DB)
	activityRepo := repository.NewActivityRepository(database.RDB)

	// 5. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours, cfg.JWT.RefreshTokenExpireDays)
	embeddingClient := embedding.NewClient(cfg.Embedding)
	llmClient, err := llm.NewClient(cfg.LLM)
	if err != nil {
		log.Fatalf("LLM 客户端初始化失败: %v", err)
	}
	userService := service.NewUserService(userRepository, jwtManager)
	adminService := service.NewAdminService(userRepository, lessonRepo)
	plannerService := service.NewPlannerService(llmClient, lessonRepo, quizRepo, activityRepo, func(ctx context.Context, planID uint) error {
		return es.DeleteLessonDoc(ctx, cfg.Elasticsearch.IndexName, planID)
	})
	quizService := service.NewQuizService(llmClient, lessonRepo, quizRepo)
	exportService := service.NewExportService(lessonRepo, cfg.MinIO)
	searchService := service.NewSearchService(embeddingClient, es.ESClient, cfg.Elasticsearch)

	// 5.1 确保初始管理员账号存在（幂等）
	if err := userService.EnsureAdmin(cfg.Admin.Username, cfg.Admin.Password); err != nil {
		log.Errorf("初始化管理员账号失败: %v", err)
	}

	// 6. 初始化索引管道 (Processor)
	processor := pipeline.NewProcessor(
		embeddingClient,
		cfg.Elasticsearch,
		cfg.Embedding,
		lessonRepo,
	)

	// 7. 启动后台 Kafka 消费者
	go kafka.StartConsumer(cfg.Kafka, processor)

	// 8. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	// 添加我们自定义的日志中间件和 Gin 的 Recovery 中间件
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 9. 注册路由
	apiV1 := r.Group("/api/v1")
	{
		// Auth 路由组
		auth := apiV1.Group("/auth")
		{
			auth.POST("/refreshToken", handler.NewAuthHandler(userService).RefreshToken)
		}

		users := apiV1.Group("/users")
		{
			// 无需认证的路由 (公开访问)
			users.POST("/register", handler.NewUserHandler(userService).Register)
			users.POST("/login", handler.NewUserHandler(userService).Login)

			// 需要认证的路由 (仅限登录用户访问)
			authed := users.Group("/")
			authed.Use(middleware.AuthMiddleware(jwtManager, userService))
			{
				authed.GET("/me", handler.NewUserHandler(userService).GetProfile)
				authed.POST("/logout", handler.NewUserHandler(userService).Logout)
			}
		}

		// Plan 路由组，需要认证
		planHandler := handler.NewPlanHandler(plannerService)
		quizHandler := handler.NewQuizHandler(quizService)
		exportHandler := handler.NewExportHandler(exportService)
		plans := apiV1.Group("/plans")
		plans.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			plans.POST("", planHandler.Generate)
			plans.GET("", planHandler.List)
			plans.GET("/example", planHandler.Example)
			plans.GET("/recent", planHandler.Recent)
			plans.GET("/:id", planHandler.Get)
			plans.DELETE("/:id", planHandler.Delete)
			plans.POST("/:id/quiz", quizHandler.Generate)
			plans.GET("/:id/quiz", quizHandler.List)
			plans.GET("/:id/export", exportHandler.Export)
		}

		// Search 路由组
		search := apiV1.Group("/search")
		search.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			search.GET("", handler.NewSearchHandler(searchService).Search)
		}

		// 流式生成路由 (WebSocket)
		streamHandler := handler.NewStreamHandler(plannerService, userService, jwtManager)
		generate := apiV1.Group("/generate")
		generate.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			generate.GET("/websocket-token", streamHandler.GetWebsocketStopToken)
		}
		r.GET("/generate/:token", streamHandler.Handle)

		admin := apiV1.Group("/admin")
		// 管理员路由组，需要同时通过认证和管理员授权两个中间件
		admin.Use(middleware.AuthMiddleware(jwtManager, userService), middleware.AdminAuthMiddleware())
		{
			admin.GET("/users/list", handler.NewAdminHandler(adminService).ListUsers)
			admin.GET("/plans", handler.NewAdminHandler(adminService).ListPlans)
		}
	}

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 设置一个5秒的超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 关闭 HTTP 服务器
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	// Kafka 消费者是一个循环，会随进程退出自然结束；
	// 若需要更精细的控制，可以在 StartConsumer 中实现一个关闭通道。
	log.Info("服务已优雅关闭")
}
