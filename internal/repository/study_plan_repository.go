package repository

import (
	"context"
	"errors"

	"english_tutor_backend/internal/model"
	"english_tutor_backend/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StudyPlanRepository struct {
	DB *gorm.DB
}

func NewStudyPlanRepository(db *gorm.DB) *StudyPlanRepository {
	return &StudyPlanRepository{DB: db}
}

// ModuleWithCount 模块及其课程总数
type ModuleWithCount struct {
	model.StudyModule
	TotalLessons int
}

func (r *StudyPlanRepository) ModulesForLevel(ctx context.Context, level string) ([]ModuleWithCount, error) {
	var modules []model.StudyModule
	if err := r.DB.WithContext(ctx).
		Where("level = ?", level).
		Order("module_order, created_at").
		Find(&modules).Error; err != nil {
		return nil, err
	}
	if len(modules) == 0 {
		return nil, nil
	}

	ids := make([]string, len(modules))
	for i, m := range modules {
		ids[i] = m.ID
	}

	type countRow struct {
		ModuleID string
		Total    int
	}
	var counts []countRow
	if err := r.DB.WithContext(ctx).
		Model(&model.ModuleLesson{}).
		Select("module_id, COUNT(*) AS total").
		Where("module_id IN ?", ids).
		Group("module_id").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	byModule := make(map[string]int, len(counts))
	for _, c := range counts {
		byModule[c.ModuleID] = c.Total
	}

	out := make([]ModuleWithCount, len(modules))
	for i, m := range modules {
		out[i] = ModuleWithCount{StudyModule: m, TotalLessons: byModule[m.ID]}
	}
	return out, nil
}

func (r *StudyPlanRepository) FindModule(ctx context.Context, id string) (*model.StudyModule, error) {
	var m model.StudyModule
	err := r.DB.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrModuleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *StudyPlanRepository) CountLessons(ctx context.Context, moduleID string) (int, error) {
	return countModuleLessons(r.DB.WithContext(ctx), moduleID)
}

func countModuleLessons(db *gorm.DB, moduleID string) (int, error) {
	var n int64
	err := db.Model(&model.ModuleLesson{}).Where("module_id = ?", moduleID).Count(&n).Error
	return int(n), err
}

// ModuleLesson 按序号取模块课程及其单元
func (r *StudyPlanRepository) ModuleLesson(ctx context.Context, moduleID string, order int) (*model.ModuleLesson, error) {
	var ml model.ModuleLesson
	err := r.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("module_lesson_items.item_order")
		}).
		Preload("Items.Unit.Topics").
		Where("module_id = ? AND lesson_order = ?", moduleID, order).
		First(&ml).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrNoModuleLesson
	}
	if err != nil {
		return nil, err
	}
	return &ml, nil
}

// Progress 取学生在模块中的进度，不存在时创建
func (r *StudyPlanRepository) Progress(ctx context.Context, studentID, moduleID string) (*model.ModuleProgress, error) {
	return progress(r.DB.WithContext(ctx), studentID, moduleID)
}

func progress(db *gorm.DB, studentID, moduleID string) (*model.ModuleProgress, error) {
	var p model.ModuleProgress
	err := db.
		Where(model.ModuleProgress{StudentID: studentID, ModuleID: moduleID}).
		Attrs(model.ModuleProgress{CurrentLessonOrder: 1}).
		FirstOrCreate(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *StudyPlanRepository) ProgressForStudent(ctx context.Context, studentID string) (map[string]model.ModuleProgress, error) {
	var rows []model.ModuleProgress
	if err := r.DB.WithContext(ctx).Where("student_id = ?", studentID).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]model.ModuleProgress, len(rows))
	for _, p := range rows {
		out[p.ModuleID] = p
	}
	return out, nil
}

// Advance 将当前课程序号加一，最多到 total+1（表示模块完成）。返回是否有推进。
func (r *StudyPlanRepository) Advance(ctx context.Context, studentID, moduleID string, total int) (bool, error) {
	return advanceProgress(r.DB.WithContext(ctx), studentID, moduleID, total)
}

func advanceProgress(db *gorm.DB, studentID, moduleID string, total int) (bool, error) {
	if _, err := progress(db, studentID, moduleID); err != nil {
		return false, err
	}
	res := db.
		Model(&model.ModuleProgress{}).
		Where("student_id = ? AND module_id = ? AND current_lesson_order <= ?", studentID, moduleID, total).
		UpdateColumn("current_lesson_order", gorm.Expr("current_lesson_order + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// advanceModule 在调用方的事务内按模块当前课程数推进
func advanceModule(tx *gorm.DB, studentID, moduleID string) (bool, error) {
	total, err := countModuleLessons(tx, moduleID)
	if err != nil {
		return false, err
	}
	return advanceProgress(tx, studentID, moduleID, total)
}

// ActiveModuleIDs 学生当前有未完成课程的模块
func (r *StudyPlanRepository) ActiveModuleIDs(ctx context.Context, studentID string) (map[string]bool, error) {
	var ids []string
	err := r.DB.WithContext(ctx).
		Model(&model.Lesson{}).
		Where("student_id = ? AND origin_kind = ? AND status IN ?", studentID, model.OriginStudyPlan, model.ActiveLessonStatuses).
		Pluck("origin_module_id", &ids).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// UpsertModule 导入模块及其课程模板（整体替换课程列表）
func (r *StudyPlanRepository) UpsertModule(ctx context.Context, m *model.StudyModule) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).
			Omit(clause.Associations).
			Create(m).Error; err != nil {
			return err
		}

		var oldIDs []string
		if err := tx.Model(&model.ModuleLesson{}).Where("module_id = ?", m.ID).Pluck("id", &oldIDs).Error; err != nil {
			return err
		}
		if len(oldIDs) > 0 {
			if err := tx.Where("module_lesson_id IN ?", oldIDs).Delete(&model.ModuleLessonItem{}).Error; err != nil {
				return err
			}
			if err := tx.Unscoped().Where("id IN ?", oldIDs).Delete(&model.ModuleLesson{}).Error; err != nil {
				return err
			}
		}

		for i := range m.Lessons {
			ml := &m.Lessons[i]
			ml.ModuleID = m.ID
			if ml.LessonOrder == 0 {
				ml.LessonOrder = i + 1
			}
			if err := tx.Omit(clause.Associations).Create(ml).Error; err != nil {
				return err
			}
			for j := range ml.Items {
				ml.Items[j].ModuleLessonID = ml.ID
				if ml.Items[j].ItemOrder == 0 {
					ml.Items[j].ItemOrder = j + 1
				}
			}
			if len(ml.Items) > 0 {
				if err := tx.Omit(clause.Associations).Create(&ml.Items).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}
