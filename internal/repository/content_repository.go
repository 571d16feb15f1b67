package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"english_tutor_backend/internal/model"
	"english_tutor_backend/internal/util"

	"github.com/patrickmn/go-cache"
	"gonum.org/v1/gonum/floats"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ContentRepository 学习单元目录（只读查询 + 导入）
type ContentRepository struct {
	DB     *gorm.DB
	topics *cache.Cache
}

func NewContentRepository(db *gorm.DB) *ContentRepository {
	return &ContentRepository{
		DB:     db,
		topics: cache.New(5*time.Minute, 10*time.Minute),
	}
}

func (r *ContentRepository) FindByID(ctx context.Context, id string) (*model.LearningUnit, error) {
	var unit model.LearningUnit
	err := r.DB.WithContext(ctx).Preload("Topics").First(&unit, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUnitNotFound
	}
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *ContentRepository) UnitsByTopic(ctx context.Context, topic, level string, types []model.UnitType, limit int) ([]model.LearningUnit, error) {
	q := r.DB.WithContext(ctx).
		Select("learning_units.*").
		Joins("JOIN unit_topics ON unit_topics.unit_id = learning_units.id").
		Where("unit_topics.topic = ? AND learning_units.level = ?", topic, level)
	if len(types) > 0 {
		q = q.Where("learning_units.type IN ?", types)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var units []model.LearningUnit
	err := q.Preload("Topics").Order("learning_units.created_at, learning_units.id").Find(&units).Error
	return units, err
}

// UnitsByDependency 返回声明依赖 anchorID 的单元
func (r *ContentRepository) UnitsByDependency(ctx context.Context, anchorID, level string) ([]model.LearningUnit, error) {
	var units []model.LearningUnit
	err := r.DB.WithContext(ctx).
		Select("learning_units.*").
		Joins("JOIN unit_dependencies ON unit_dependencies.unit_id = learning_units.id").
		Where("unit_dependencies.depends_on_id = ? AND learning_units.level = ?", anchorID, level).
		Preload("Topics").
		Order("learning_units.created_at, learning_units.id").
		Find(&units).Error
	return units, err
}

// UnitsBySimilarity 按余弦相似度排序，返回最接近的 limit 个单元
func (r *ContentRepository) UnitsBySimilarity(ctx context.Context, embedding []float32, level string, limit int) ([]model.LearningUnit, error) {
	if len(embedding) == 0 {
		return nil, errors.New("empty query embedding")
	}

	var units []model.LearningUnit
	err := r.DB.WithContext(ctx).
		Where("level = ? AND embedding IS NOT NULL", level).
		Preload("Topics").
		Find(&units).Error
	if err != nil {
		return nil, err
	}

	query := toFloat64(embedding)
	qNorm := floats.Norm(query, 2)
	if qNorm == 0 {
		return nil, errors.New("zero query embedding")
	}

	type scored struct {
		unit  model.LearningUnit
		score float64
	}
	ranked := make([]scored, 0, len(units))
	for _, u := range units {
		if len(u.Embedding) != len(query) {
			continue
		}
		v := toFloat64(u.Embedding)
		n := floats.Norm(v, 2)
		if n == 0 {
			continue
		}
		ranked = append(ranked, scored{unit: u, score: floats.Dot(query, v) / (qNorm * n)})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]model.LearningUnit, len(ranked))
	for i, s := range ranked {
		out[i] = s.unit
	}
	return out, nil
}

// TopicsForLevel 返回某等级下所有主题标签，结果缓存五分钟
func (r *ContentRepository) TopicsForLevel(ctx context.Context, level string) ([]string, error) {
	key := "topics:" + level
	if v, ok := r.topics.Get(key); ok {
		return v.([]string), nil
	}

	var topics []string
	err := r.DB.WithContext(ctx).
		Model(&model.UnitTopic{}).
		Distinct("unit_topics.topic").
		Joins("JOIN learning_units ON learning_units.id = unit_topics.unit_id").
		Where("learning_units.level = ? AND learning_units.deleted_at IS NULL", level).
		Order("unit_topics.topic").
		Pluck("unit_topics.topic", &topics).Error
	if err != nil {
		return nil, err
	}

	r.topics.SetDefault(key, topics)
	return topics, nil
}

// Upsert 写入或覆盖单元及其主题、依赖
func (r *ContentRepository) Upsert(ctx context.Context, unit *model.LearningUnit) error {
	conflict := clause.OnConflict{UpdateAll: true}
	if unit.Embedding == nil {
		// 未计算向量时保留已有的 embedding
		conflict = clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"unit_code", "type", "level", "content", "metadata", "updated_at", "deleted_at"}),
		}
	}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(conflict).
			Omit(clause.Associations).
			Create(unit).Error; err != nil {
			return fmt.Errorf("upsert unit %s: %w", unit.ID, err)
		}

		if err := tx.Where("unit_id = ?", unit.ID).Delete(&model.UnitTopic{}).Error; err != nil {
			return err
		}
		if err := tx.Where("unit_id = ?", unit.ID).Delete(&model.UnitDependency{}).Error; err != nil {
			return err
		}

		for i := range unit.Topics {
			unit.Topics[i].UnitID = unit.ID
		}
		if len(unit.Topics) > 0 {
			if err := tx.Create(&unit.Topics).Error; err != nil {
				return err
			}
		}
		for i := range unit.Dependencies {
			unit.Dependencies[i].UnitID = unit.ID
		}
		if len(unit.Dependencies) > 0 {
			if err := tx.Create(&unit.Dependencies).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.topics.Flush()
	return nil
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
