package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "english_tutor"

// 未匹配到路由的请求统一归到该标签，避免任意路径撑爆基数
const unmatchedRoute = "unmatched"

var (
	RequestCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route template and status",
	}, []string{"method", "endpoint", "status"})

	RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"method", "endpoint"})

	// PlannerStrategyAttempts 每个规划策略的尝试次数及结果
	PlannerStrategyAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "planner",
		Name:      "strategy_attempts_total",
		Help:      "Lesson planning strategy attempts by outcome",
	}, []string{"strategy", "outcome"})

	LessonsPlanned = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "planner",
		Name:      "lessons_planned_total",
		Help:      "Lessons persisted by the planner, by winning strategy",
	}, []string{"strategy"})

	AnswersGraded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "lesson",
		Name:      "answers_graded_total",
		Help:      "Graded answers by correctness",
	}, []string{"correct"})

	// AIRequestDuration 文本生成与向量调用耗时，op 为 generate 或 embed
	AIRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "ai",
		Name:      "request_duration_seconds",
		Help:      "AI provider call latency by provider, operation and outcome",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"provider", "op", "outcome"})

	registerOnce sync.Once
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		RequestCounter,
		RequestDuration,
		PlannerStrategyAttempts,
		LessonsPlanned,
		AnswersGraded,
		AIRequestDuration,
	}
}

// Register 把全部指标注册到 reg
func Register(reg prometheus.Registerer) error {
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Init 注册到默认 registry，重复调用无副作用
func Init() {
	registerOnce.Do(func() {
		if err := Register(prometheus.DefaultRegisterer); err != nil {
			panic(err)
		}
	})
}

// ObserveAI 记录一次 AI 调用
func ObserveAI(provider, op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	AIRequestDuration.WithLabelValues(provider, op, outcome).Observe(time.Since(start).Seconds())
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		method := c.Request.Method

		RequestCounter.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		RequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

func PrometheusHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
