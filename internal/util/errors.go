package util

import "errors"

var (
	ErrUnitNotFound       = errors.New("learning unit not found")
	ErrLessonNotFound     = errors.New("lesson not found")
	ErrModuleNotFound     = errors.New("study module not found")
	ErrNoModuleLesson     = errors.New("no lesson available or module already completed")
	ErrActiveLessonExists = errors.New("another lesson is already active")
	ErrMessageNotFound    = errors.New("tutor message not found")
	ErrIntentInvalid      = errors.New("invalid intent")
	ErrPermissionDenied   = errors.New("permission denied")
)
