package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"english_tutor_backend/internal/llm"
	"english_tutor_backend/internal/model"
	"english_tutor_backend/internal/repository"
	"english_tutor_backend/pkg/logger"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
)

// Catalog 导入文件结构，YAML 或 JSON 均可
type Catalog struct {
	Units   []CatalogUnit   `yaml:"units"`
	Modules []CatalogModule `yaml:"modules"`
}

type CatalogUnit struct {
	ID           string         `yaml:"id"`
	UnitCode     string         `yaml:"unit_code"`
	Type         string         `yaml:"type"`
	Level        string         `yaml:"level"`
	Topics       []string       `yaml:"topics"`
	Dependencies []string       `yaml:"dependencies"`
	Content      map[string]any `yaml:"content"`
	Metadata     map[string]any `yaml:"metadata"`
}

type CatalogModule struct {
	ID          string          `yaml:"id"`
	Level       string          `yaml:"level"`
	Title       string          `yaml:"title"`
	Description string          `yaml:"description"`
	Order       int             `yaml:"order"`
	Lessons     []CatalogLesson `yaml:"lessons"`
}

type CatalogLesson struct {
	Title     string   `yaml:"title"`
	Objective string   `yaml:"objective"`
	Units     []string `yaml:"units"`
}

type SeedOptions struct {
	SkipEmbeddings bool
}

type SeedStats struct {
	Units    int
	Embedded int
	Modules  int
}

var knownUnitTypes = map[model.UnitType]bool{
	model.UnitGrammarRule:    true,
	model.UnitExercise:       true,
	model.UnitReviewExercise: true,
	model.UnitVocabulary:     true,
	model.UnitDialogue:       true,
	model.UnitReadAndAnswer:  true,
	model.UnitCulturalTip:    true,
}

// CatalogService 将内容目录导入数据库
type CatalogService struct {
	Content    *repository.ContentRepository
	StudyPlans *repository.StudyPlanRepository
	Embedder   llm.Embedder
}

func NewCatalogService(content *repository.ContentRepository, plans *repository.StudyPlanRepository, embedder llm.Embedder) *CatalogService {
	return &CatalogService{Content: content, StudyPlans: plans, Embedder: embedder}
}

func ParseCatalog(r io.Reader) (*Catalog, error) {
	var c Catalog
	if err := yaml.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return &c, nil
}

func (s *CatalogService) Seed(ctx context.Context, src CatalogSource, opts SeedOptions) (SeedStats, error) {
	var stats SeedStats

	rc, err := src.Open(ctx)
	if err != nil {
		return stats, fmt.Errorf("open catalog %s: %w", src, err)
	}
	defer rc.Close()

	catalog, err := ParseCatalog(rc)
	if err != nil {
		return stats, err
	}

	embed := !opts.SkipEmbeddings && s.Embedder != nil
	if !opts.SkipEmbeddings && s.Embedder == nil {
		logger.L(ctx).Warn("No embedding provider configured, units will not be searchable by similarity")
	}

	for _, cu := range catalog.Units {
		unit, err := cu.toModel()
		if err != nil {
			return stats, err
		}
		if embed {
			vec, err := s.Embedder.Embed(ctx, UnitEmbeddingText(unit))
			if err != nil {
				return stats, fmt.Errorf("embed unit %s: %w", unit.ID, err)
			}
			unit.Embedding = vec
			stats.Embedded++
		}
		if err := s.Content.Upsert(ctx, unit); err != nil {
			return stats, err
		}
		stats.Units++
	}

	for _, cm := range catalog.Modules {
		m, err := cm.toModel()
		if err != nil {
			return stats, err
		}
		if err := s.StudyPlans.UpsertModule(ctx, m); err != nil {
			return stats, fmt.Errorf("upsert module %s: %w", m.ID, err)
		}
		stats.Modules++
	}

	logger.L(ctx).Info("Catalog seeded",
		zap.Stringer("source", src),
		zap.Int("units", stats.Units),
		zap.Int("embedded", stats.Embedded),
		zap.Int("modules", stats.Modules))
	return stats, nil
}

// catalogID 未给出 id 时由 code 派生稳定的 UUID，重复导入得到同一行
func catalogID(id, kind, code string) (string, error) {
	if id != "" {
		return id, nil
	}
	if code == "" {
		return "", fmt.Errorf("%s needs an id or a code", kind)
	}
	return model.StableID(kind, code), nil
}

func (cu CatalogUnit) toModel() (*model.LearningUnit, error) {
	id, err := catalogID(cu.ID, "unit", cu.UnitCode)
	if err != nil {
		return nil, err
	}
	typ := model.UnitType(cu.Type)
	if !knownUnitTypes[typ] {
		return nil, fmt.Errorf("unit %s: unknown type %q", id, cu.Type)
	}
	if cu.Level == "" {
		return nil, fmt.Errorf("unit %s: level is required", id)
	}

	content, err := jsonColumn(cu.Content)
	if err != nil {
		return nil, fmt.Errorf("unit %s content: %w", id, err)
	}
	var metadata datatypes.JSON
	if len(cu.Metadata) > 0 {
		if metadata, err = jsonColumn(cu.Metadata); err != nil {
			return nil, fmt.Errorf("unit %s metadata: %w", id, err)
		}
	}

	unit := &model.LearningUnit{
		UnitCode: cu.UnitCode,
		Type:     typ,
		Level:    strings.ToUpper(cu.Level),
		Content:  content,
		Metadata: metadata,
	}
	unit.ID = id

	seen := map[string]bool{}
	for _, t := range cu.Topics {
		tag := NormalizeTopic(t)
		if seen[tag] {
			continue
		}
		seen[tag] = true
		unit.Topics = append(unit.Topics, model.UnitTopic{UnitID: id, Topic: tag})
	}
	for _, dep := range cu.Dependencies {
		unit.Dependencies = append(unit.Dependencies, model.UnitDependency{UnitID: id, DependsOnID: dep})
	}
	return unit, nil
}

func (cm CatalogModule) toModel() (*model.StudyModule, error) {
	id, err := catalogID(cm.ID, "module", cm.Level+"/"+cm.Title)
	if err != nil {
		return nil, err
	}
	m := &model.StudyModule{
		Level:       strings.ToUpper(cm.Level),
		Title:       cm.Title,
		Description: cm.Description,
		Order:       cm.Order,
	}
	m.ID = id

	for i, cl := range cm.Lessons {
		ml := model.ModuleLesson{
			LessonOrder: i + 1,
			Title:       cl.Title,
			Objective:   cl.Objective,
		}
		ml.ID, _ = catalogID("", "module-lesson", fmt.Sprintf("%s/%d", id, i+1))
		for j, unitID := range cl.Units {
			ml.Items = append(ml.Items, model.ModuleLessonItem{UnitID: unitID, ItemOrder: j + 1})
		}
		m.Lessons = append(m.Lessons, ml)
	}
	return m, nil
}

func jsonColumn(v map[string]any) (datatypes.JSON, error) {
	if v == nil {
		return datatypes.JSON("{}"), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

// UnitEmbeddingText 单元的检索文本：类型、主题以及内容中的全部字符串
func UnitEmbeddingText(u *model.LearningUnit) string {
	parts := []string{string(u.Type)}
	for _, t := range u.TopicTags() {
		parts = append(parts, strings.ReplaceAll(t, "-", " "))
	}
	collectStrings(gjson.ParseBytes(u.Content), &parts)
	return strings.Join(parts, ". ")
}

func collectStrings(v gjson.Result, out *[]string) {
	switch {
	case v.IsObject() || v.IsArray():
		v.ForEach(func(_, child gjson.Result) bool {
			collectStrings(child, out)
			return true
		})
	case v.Type == gjson.String:
		if s := strings.TrimSpace(v.String()); s != "" {
			*out = append(*out, s)
		}
	}
}
