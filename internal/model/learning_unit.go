package model

import (
	"gorm.io/datatypes"
)

type UnitType string

const (
	UnitGrammarRule    UnitType = "grammar_rule"
	UnitExercise       UnitType = "exercise"
	UnitReviewExercise UnitType = "review_exercise"
	UnitVocabulary     UnitType = "vocabulary"
	UnitDialogue       UnitType = "dialogue"
	UnitReadAndAnswer  UnitType = "read_and_answer"
	UnitCulturalTip    UnitType = "cultural_tip"
)

// AnchorTypes are the long-form units a contextual lesson is built around.
var AnchorTypes = []UnitType{UnitReadAndAnswer, UnitDialogue}

// ExerciseTypes are the unit types an exercise-only lesson draws from.
var ExerciseTypes = []UnitType{UnitExercise, UnitGrammarRule, UnitReviewExercise}

// LearningUnit is an immutable piece of catalog content. Topic tags and
// dependency links live in their own tables so they can be queried portably
// across database drivers; Metadata keeps the original document as loaded.
// swagger:model LearningUnit
type LearningUnit struct {
	UUIDBase
	UnitCode     string                       `gorm:"size:64;index" json:"unit_code"`
	Type         UnitType                     `gorm:"size:32;index;not null" json:"type"`
	Level        string                       `gorm:"size:8;index;not null" json:"level"`
	Content      datatypes.JSON               `json:"content"`
	Metadata     datatypes.JSON               `json:"metadata"`
	Embedding    datatypes.JSONSlice[float32] `json:"-"`
	Topics       []UnitTopic                  `gorm:"foreignKey:UnitID" json:"-"`
	Dependencies []UnitDependency             `gorm:"foreignKey:UnitID" json:"-"`
}

func (LearningUnit) TableName() string {
	return "learning_units"
}

// TopicTags returns the unit's topic tags in stored order.
func (u *LearningUnit) TopicTags() []string {
	tags := make([]string, 0, len(u.Topics))
	for _, t := range u.Topics {
		tags = append(tags, t.Topic)
	}
	return tags
}

// HasAnyTopic reports whether the unit is tagged with any topic in set.
func (u *LearningUnit) HasAnyTopic(set map[string]struct{}) bool {
	if len(set) == 0 {
		return false
	}
	for _, t := range u.Topics {
		if _, ok := set[t.Topic]; ok {
			return true
		}
	}
	return false
}

type UnitTopic struct {
	UnitID string `gorm:"primaryKey;type:varchar(36)" json:"unitId"`
	Topic  string `gorm:"primaryKey;size:128;index" json:"topic"`
}

func (UnitTopic) TableName() string {
	return "unit_topics"
}

// UnitDependency records that UnitID builds on DependsOnID (usually an anchor).
type UnitDependency struct {
	UnitID      string `gorm:"primaryKey;type:varchar(36)" json:"unitId"`
	DependsOnID string `gorm:"primaryKey;type:varchar(36);index" json:"dependsOnId"`
}

func (UnitDependency) TableName() string {
	return "unit_dependencies"
}
