package planner

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"english_tutor_backend/internal/model"
	"english_tutor_backend/pkg/logger"
	"english_tutor_backend/pkg/monitoring"
	"english_tutor_backend/pkg/tracing"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// GeneralTopic is the topic tag of a plain "give me practice" request.
const GeneralTopic = "general-practice"

type Strategy string

const (
	StrategyAnchor           Strategy = "anchor"
	StrategyExercise         Strategy = "exercise"
	StrategySemanticIdeal    Strategy = "semantic_ideal"
	StrategySemanticReliable Strategy = "semantic_reliable"
	StrategySemanticNoFail   Strategy = "semantic_no_fail"
)

const (
	outcomeSuccess      = "success"
	outcomeInsufficient = "insufficient"
	outcomeError        = "error"
)

const personalizedTitle = "Your personalized lesson"

type Request struct {
	StudentID string
	Topic     string
	Level     string
}

// IsGeneral reports whether the request asks for practice without a topic.
func (r Request) IsGeneral() bool {
	t := strings.TrimSpace(r.Topic)
	return t == "" || t == GeneralTopic
}

// Signals is the per-request snapshot of a student's history.
type Signals struct {
	Mastery model.MasterySummary
	Seen    model.SeenSet
}

type Deps struct {
	Content  ContentStore
	Signals  StudentSignals
	Queries  QueryWriter
	Embedder Embedder
	Lessons  LessonSink
}

// Planner runs the lesson-planning funnel.
type Planner struct {
	deps     Deps
	rng      Rand
	settings atomic.Pointer[Settings]
}

// New builds a planner. A nil rng uses the process-wide random source.
func New(deps Deps, settings Settings, rng Rand) *Planner {
	if rng == nil {
		rng = globalRand{}
	} else {
		rng = &lockedRand{r: rng}
	}
	p := &Planner{deps: deps, rng: rng}
	p.UpdateSettings(settings)
	return p
}

func (p *Planner) Settings() Settings {
	return *p.settings.Load()
}

// UpdateSettings swaps the tuning used by subsequent requests.
func (p *Planner) UpdateSettings(s Settings) {
	s = s.normalize()
	p.settings.Store(&s)
}

type draft struct {
	strategy  Strategy
	title     string
	objective string
	units     []model.LearningUnit
}

type attempt struct {
	strategy Strategy
	run      func(ctx context.Context, req Request, sig Signals, s Settings) (*draft, error)
}

// PlanLesson selects, assembles and persists a lesson. It returns
// ErrExhausted when no strategy reaches the minimum unit count and an error
// wrapping ErrPersist when the store rejects the lesson.
func (p *Planner) PlanLesson(ctx context.Context, req Request) (*model.Lesson, error) {
	ctx, span := tracing.Tracer.Start(ctx, "planner.PlanLesson")
	defer span.End()
	span.SetAttributes(
		attribute.String("student.id", req.StudentID),
		attribute.String("lesson.topic", req.Topic),
		attribute.String("lesson.level", req.Level),
	)

	s := p.Settings()

	sig, err := p.fetchSignals(ctx, req.StudentID, s.SeenWindowDays)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "signals")
		return nil, fmt.Errorf("fetch student signals: %w", err)
	}

	for _, a := range p.attempts(req) {
		d, err := p.runAttempt(ctx, a, req, sig, s)
		if err != nil || d == nil {
			continue
		}

		lesson, err := p.persist(ctx, req, d)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "persist")
			return nil, fmt.Errorf("%w: %w", ErrPersist, err)
		}

		monitoring.LessonsPlanned.WithLabelValues(string(d.strategy)).Inc()
		logger.L(ctx).Info("Lesson planned",
			zap.String("studentId", req.StudentID),
			zap.String("lessonId", lesson.ID),
			zap.String("strategy", string(d.strategy)),
			zap.Int("items", len(lesson.Items)),
		)
		return lesson, nil
	}

	logger.L(ctx).Info("All planning strategies exhausted",
		zap.String("studentId", req.StudentID),
		zap.String("topic", req.Topic),
		zap.String("level", req.Level),
	)
	span.SetStatus(codes.Error, "exhausted")
	return nil, ErrExhausted
}

func (p *Planner) attempts(req Request) []attempt {
	var out []attempt
	if !req.IsGeneral() {
		out = append(out,
			attempt{strategy: StrategyAnchor, run: p.anchorLesson},
			attempt{strategy: StrategyExercise, run: p.exerciseLesson},
		)
	}
	for _, r := range Relaxations {
		out = append(out, attempt{strategy: r.Strategy, run: p.semanticLesson(r)})
	}
	return out
}

// runAttempt executes one strategy. Collaborator failures end the attempt
// but never the request.
func (p *Planner) runAttempt(ctx context.Context, a attempt, req Request, sig Signals, s Settings) (*draft, error) {
	ctx, span := tracing.Tracer.Start(ctx, "planner.attempt."+string(a.strategy))
	defer span.End()

	d, err := a.run(ctx, req, sig, s)
	if err == nil && d != nil && len(d.units) < s.MinUnits {
		d = nil
	}

	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		monitoring.PlannerStrategyAttempts.WithLabelValues(string(a.strategy), outcomeError).Inc()
		logger.L(ctx).Warn("Planning strategy failed",
			zap.String("strategy", string(a.strategy)),
			zap.String("studentId", req.StudentID),
			zap.Error(err),
		)
	case d == nil:
		span.SetAttributes(attribute.String("outcome", outcomeInsufficient))
		monitoring.PlannerStrategyAttempts.WithLabelValues(string(a.strategy), outcomeInsufficient).Inc()
		logger.L(ctx).Debug("Planning strategy came up short",
			zap.String("strategy", string(a.strategy)),
			zap.String("studentId", req.StudentID),
		)
	default:
		span.SetAttributes(
			attribute.String("outcome", outcomeSuccess),
			attribute.Int("items", len(d.units)),
		)
		monitoring.PlannerStrategyAttempts.WithLabelValues(string(a.strategy), outcomeSuccess).Inc()
	}
	return d, err
}

func (p *Planner) fetchSignals(ctx context.Context, studentID string, windowDays int) (Signals, error) {
	var sig Signals
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := p.deps.Signals.MasterySummary(gctx, studentID)
		if err != nil {
			return fmt.Errorf("mastery summary: %w", err)
		}
		sig.Mastery = m
		return nil
	})
	g.Go(func() error {
		seen, err := p.deps.Signals.RecentlySeenUnits(gctx, studentID, windowDays)
		if err != nil {
			return fmt.Errorf("recently seen units: %w", err)
		}
		sig.Seen = seen
		return nil
	})
	if err := g.Wait(); err != nil {
		return Signals{}, err
	}
	if sig.Seen == nil {
		sig.Seen = model.SeenSet{}
	}
	return sig, nil
}

func (p *Planner) anchorLesson(ctx context.Context, req Request, sig Signals, s Settings) (*draft, error) {
	topic := strings.TrimSpace(req.Topic)
	pool, err := p.deps.Content.UnitsByTopic(ctx, topic, req.Level, model.AnchorTypes, s.TopicPoolSize)
	if err != nil {
		return nil, fmt.Errorf("anchor candidates: %w", err)
	}
	anchors := Filter(pool, FilterOptions{Level: req.Level, ExcludeSeen: true, Seen: sig.Seen})
	logger.L(ctx).Debug("Anchor candidates",
		zap.String("topic", topic), zap.Int("pool", len(pool)), zap.Int("filtered", len(anchors)))
	if len(anchors) == 0 {
		return nil, nil
	}

	anchor := anchors[p.rng.IntN(len(anchors))]
	deps, err := p.deps.Content.UnitsByDependency(ctx, anchor.ID, req.Level)
	if err != nil {
		return nil, fmt.Errorf("anchor dependencies: %w", err)
	}

	units := dedupe(append([]model.LearningUnit{anchor}, Filter(deps, FilterOptions{Level: req.Level})...))
	if len(units) < s.MinUnits {
		return nil, nil
	}

	title := gjson.GetBytes(anchor.Content, "title").String()
	if title == "" {
		title = "Practice: " + displayTopic(topic)
	}
	return &draft{
		strategy:  StrategyAnchor,
		title:     title,
		objective: fmt.Sprintf("Practice %s using a worked example", displayTopic(topic)),
		units:     units,
	}, nil
}

func (p *Planner) exerciseLesson(ctx context.Context, req Request, sig Signals, s Settings) (*draft, error) {
	topic := strings.TrimSpace(req.Topic)
	pool, err := p.deps.Content.UnitsByTopic(ctx, topic, req.Level, model.ExerciseTypes, s.TopicPoolSize)
	if err != nil {
		return nil, fmt.Errorf("exercise candidates: %w", err)
	}
	candidates := Filter(pool, FilterOptions{Level: req.Level, ExcludeSeen: true, Seen: sig.Seen})
	logger.L(ctx).Debug("Exercise candidates",
		zap.String("topic", topic), zap.Int("pool", len(pool)), zap.Int("filtered", len(candidates)))
	if len(candidates) < s.MinUnits {
		return nil, nil
	}

	return &draft{
		strategy:  StrategyExercise,
		title:     "Exercises on " + displayTopic(topic),
		objective: "A lesson focused on: " + displayTopic(topic),
		units:     Structure(p.rng, s.SelectionPolicy, candidates, s.ExerciseSampleSize),
	}, nil
}

func (p *Planner) semanticLesson(r Relaxation) func(context.Context, Request, Signals, Settings) (*draft, error) {
	return func(ctx context.Context, req Request, sig Signals, s Settings) (*draft, error) {
		topics, err := p.deps.Content.TopicsForLevel(ctx, req.Level)
		if err != nil {
			return nil, fmt.Errorf("topics for level: %w", err)
		}
		focus := SelectFocus(p.rng, sig.Mastery, topics, s.WeaknessProbability)

		query, err := p.deps.Queries.SemanticQuery(ctx, focus.Topic, sig.Mastery.WeakTopics, sig.Mastery.StrongTopics)
		if err != nil {
			return nil, fmt.Errorf("semantic query: %w", err)
		}
		vec, err := p.deps.Embedder.Embed(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("embed semantic query: %w", err)
		}
		pool, err := p.deps.Content.UnitsBySimilarity(ctx, vec, req.Level, s.SemanticPoolSize)
		if err != nil {
			return nil, fmt.Errorf("similarity search: %w", err)
		}

		candidates := Filter(pool, r.options(sig, req.Level))
		logger.L(ctx).Debug("Semantic candidates",
			zap.String("relaxation", r.Label),
			zap.String("focus", focus.Topic),
			zap.String("focusStrategy", string(focus.Strategy)),
			zap.Int("pool", len(pool)),
			zap.Int("filtered", len(candidates)),
		)
		if len(candidates) < s.MinUnits {
			return nil, nil
		}

		return &draft{
			strategy:  r.Strategy,
			title:     personalizedTitle,
			objective: query,
			units:     Structure(p.rng, s.SelectionPolicy, candidates, s.SemanticSampleSize),
		}, nil
	}
}

func (p *Planner) persist(ctx context.Context, req Request, d *draft) (*model.Lesson, error) {
	lesson := &model.Lesson{
		StudentID: req.StudentID,
		Title:     d.title,
		Objective: d.objective,
		Status:    model.LessonNotStarted,
		Strategy:  string(d.strategy),
		Origin:    model.PracticeMode(),
		Items:     make([]model.LessonItem, 0, len(d.units)),
	}
	for i, u := range d.units {
		lesson.Items = append(lesson.Items, model.LessonItem{
			UnitID:    u.ID,
			ItemOrder: i + 1,
			Unit:      u,
		})
	}
	if err := p.deps.Lessons.SaveLesson(ctx, lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

func dedupe(units []model.LearningUnit) []model.LearningUnit {
	seen := make(map[string]struct{}, len(units))
	out := make([]model.LearningUnit, 0, len(units))
	for _, u := range units {
		if _, ok := seen[u.ID]; ok {
			continue
		}
		seen[u.ID] = struct{}{}
		out = append(out, u)
	}
	return out
}

// displayTopic renders a topic tag for titles. Casers hold state, so one is
// built per call.
func displayTopic(topic string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(topic, "-", " "))
}

type lockedRand struct {
	mu sync.Mutex
	r  Rand
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}
