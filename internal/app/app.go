package app

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"english_tutor_backend/internal/config"
	"english_tutor_backend/internal/controller"
	"english_tutor_backend/internal/llm"
	"english_tutor_backend/internal/planner"
	"english_tutor_backend/internal/repository"
	"english_tutor_backend/internal/service"
	"english_tutor_backend/pkg/configwatcher"
	"english_tutor_backend/pkg/database"
	"english_tutor_backend/pkg/locker"
	"english_tutor_backend/pkg/logger"
	"english_tutor_backend/pkg/monitoring"
	"english_tutor_backend/pkg/security"
	"english_tutor_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	Planner         *planner.Planner
	services        *services
	tracer          *sdktrace.TracerProvider
	done            chan struct{}
	configCallbacks []func(*config.Config)
}

type repositories struct {
	content       *repository.ContentRepository
	lessons       *repository.LessonRepository
	performance   *repository.PerformanceRepository
	studyPlans    *repository.StudyPlanRepository
	conversations *repository.ConversationRepository
	messages      *repository.TutorMessageRepository
}

type services struct {
	lesson    *service.LessonService
	studyPlan *service.StudyPlanService
	tutor     *service.TutorService
	catalog   *service.CatalogService
}

type controllers struct {
	lesson    *controller.LessonController
	studyPlan *controller.StudyPlanController
	tutor     *controller.TutorController
	health    *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func masteryRules(cfg config.MasteryConfig) repository.MasteryRules {
	return repository.MasteryRules{
		Window:       cfg.Window,
		StrongStreak: cfg.StrongStreak,
		Exact:        cfg.StrongStreakExact,
	}
}

func (a *App) initRepositories(db *gorm.DB, cfg *config.Config) *repositories {
	return &repositories{
		content:       repository.NewContentRepository(db),
		lessons:       repository.NewLessonRepository(db),
		performance:   repository.NewPerformanceRepository(db, masteryRules(cfg.Mastery)),
		studyPlans:    repository.NewStudyPlanRepository(db),
		conversations: repository.NewConversationRepository(db),
		messages:      repository.NewTutorMessageRepository(db),
	}
}

// initAI 未配置的提供方不会阻止启动，调用时返回 ErrNotConfigured，规划器会跳过语义策略
func initAI(ctx context.Context, cfg config.AIConfig) (llm.TextGenerator, llm.Embedder) {
	gen, err := llm.NewTextGenerator(ctx, cfg)
	if err != nil {
		logger.Log.Warn("Text generation disabled", zap.String("provider", cfg.TextProvider), zap.Error(err))
		gen = llm.Disabled{Err: err}
	}
	emb, err := llm.NewEmbedder(ctx, cfg)
	if err != nil {
		logger.Log.Warn("Embeddings disabled", zap.String("provider", cfg.EmbeddingProvider), zap.Error(err))
		emb = llm.Disabled{Err: err}
	}
	return gen, emb
}

func (a *App) initLocker(cfg *config.Config) locker.Locker {
	if a.Redis != nil {
		return locker.NewRedisLocker(a.Redis, "tutor:lock:", cfg.Planner.LockTTL)
	}
	return locker.NewLocalLocker()
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	gen, emb := initAI(context.Background(), cfg.AI)
	lk := a.initLocker(cfg)
	level := cfg.Planner.DefaultLevel

	a.Planner = planner.New(planner.Deps{
		Content:  repos.content,
		Signals:  repos.performance,
		Queries:  service.NewSemanticQueryWriter(gen),
		Embedder: emb,
		Lessons:  repos.lessons,
	}, planner.SettingsFromConfig(cfg.Planner), nil)

	s := &services{}
	s.lesson = service.NewLessonService(
		a.Planner,
		repos.lessons,
		repos.content,
		repos.performance,
		repos.messages,
		lk,
		level,
	)
	s.studyPlan = service.NewStudyPlanService(repos.studyPlans, repos.lessons, lk, level)
	s.tutor = service.NewTutorService(
		s.lesson,
		repos.conversations,
		repos.messages,
		service.NewTopicRouter(gen),
		service.NewConversationalist(gen),
	)
	s.catalog = service.NewCatalogService(repos.content, repos.studyPlans, emb)
	return s
}

func (a *App) initControllers(s *services) *controllers {
	return &controllers{
		lesson:    controller.NewLessonController(s.lesson),
		studyPlan: controller.NewStudyPlanController(s.studyPlan),
		tutor:     controller.NewTutorController(s.tutor),
		health:    controller.NewHealthController(a.DB, a.Redis),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	window := time.Duration(max(cfg.RateLimit.WindowMinutes, 1)) * time.Minute
	router.Use(security.RateLimiter(a.done, cfg.RateLimit.MaxRequests, window, security.ByClientIP))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// Bootstrap 打开数据库与 Redis，供 serve 和 seed 共用
func Bootstrap(cfg *config.Config) (*App, error) {
	logger.InitLogger(cfg)

	// 非 release 模式启动时总是迁移
	db, err := database.InitDB(&cfg.Database, cfg.ForceMigrate || cfg.Server.Mode != "release")
	if err != nil {
		return nil, err
	}
	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		done:   make(chan struct{}),
	}
	app.services = app.initServices(app.initRepositories(db, cfg), cfg)
	return app, nil
}

// NewApp 完成全部装配：中间件、路由、链路追踪与配置热更新
func NewApp(cfg *config.Config) *App {
	app, err := Bootstrap(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize application", zap.Error(err))
	}

	// 监控初始化
	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(context.Background(), cfg.Tracing.CollectorEndpoint, cfg.Tracing.Insecure)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, app.initControllers(app.services), cfg)

	app.RegisterConfigCallback(func(newCfg *config.Config) {
		app.Planner.UpdateSettings(planner.SettingsFromConfig(newCfg.Planner))
		logger.Log.Info("Planner settings updated",
			zap.Int("minUnits", newCfg.Planner.MinUnits),
			zap.Float64("weaknessProbability", newCfg.Planner.WeaknessProbability),
			zap.String("selectionPolicy", newCfg.Planner.SelectionPolicy))
	})

	return app
}

// Catalog 供 seed 命令使用
func (a *App) Catalog() *service.CatalogService {
	return a.services.catalog
}

func (a *App) watchConfig(ctx context.Context, configFile string) {
	err := configwatcher.WatchConfig(ctx, configFile, func(newCfg *config.Config) {
		for _, cb := range a.configCallbacks {
			cb(newCfg)
		}
	})
	if err != nil {
		logger.Log.Error("Config watcher stopped", zap.Error(err))
	}
}

// Close 释放数据库和 Redis 连接
func (a *App) Close() {
	if a.Redis != nil {
		a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}
}

func (a *App) Run(configFile string) {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go a.watchConfig(ctx, configFile)

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Listen failed", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	<-ctx.Done()
	logger.Log.Info("Shutting down server...")
	close(a.done)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	a.Close()

	logger.Log.Info("Server exiting")
	logger.Log.Sync()
}
