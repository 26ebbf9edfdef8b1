package i18n

import (
	"fmt"

	"github.com/go-playground/locales"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
)

// MessageKey key of a user-facing message
type MessageKey string

// user-facing messages
const (
	MsgLessonLoadFailed     MessageKey = "lesson.load_failed"
	MsgLessonStartFailed    MessageKey = "lesson.start_failed"
	MsgLessonCompleteFailed MessageKey = "lesson.complete_failed"
	MsgLessonUpdateFailed   MessageKey = "lesson.update_failed"
	MsgCourseLoadFailed     MessageKey = "course.load_failed"
	MsgSummaryLoadFailed    MessageKey = "summary.load_failed"
	MsgSyncFailing          MessageKey = "sync.failing"
)

var catalogs = map[string]map[MessageKey]string{
	"en": {
		MsgLessonLoadFailed:     "Failed to load lesson progress",
		MsgLessonStartFailed:    "Failed to start lesson",
		MsgLessonCompleteFailed: "Failed to complete lesson",
		MsgLessonUpdateFailed:   "Failed to update lesson progress",
		MsgCourseLoadFailed:     "Failed to load course progress",
		MsgSummaryLoadFailed:    "Failed to load learning summary",
		MsgSyncFailing:          "Offline progress could not be synced, it will be retried",
	},
	"zh": {
		MsgLessonLoadFailed:     "加载课时进度失败",
		MsgLessonStartFailed:    "开始课时失败",
		MsgLessonCompleteFailed: "完成课时失败",
		MsgLessonUpdateFailed:   "更新课时进度失败",
		MsgCourseLoadFailed:     "加载课程进度失败",
		MsgSummaryLoadFailed:    "加载学习概况失败",
		MsgSyncFailing:          "离线进度同步失败，稍后将重试",
	},
}

// Catalog localized user-facing messages
type Catalog struct {
	locale string
	trans  ut.Translator
}

// NewCatalog create a catalog for locale, en is the fallback
func NewCatalog(locale string) (*Catalog, error) {
	if locale == "" {
		locale = "en"
	}
	supported := []locales.Translator{en.New(), zh.New()}
	uni := ut.New(supported[0], supported...)
	for _, lt := range supported {
		trans, _ := uni.GetTranslator(lt.Locale())
		for key, text := range catalogs[lt.Locale()] {
			if err := trans.Add(key, text, false); err != nil {
				return nil, fmt.Errorf("failed to register message %s: %w", key, err)
			}
		}
	}
	trans, found := uni.GetTranslator(locale)
	if !found {
		return nil, fmt.Errorf("unsupported locale: %s", locale)
	}
	return &Catalog{locale: locale, trans: trans}, nil
}

// Locale active locale
func (c *Catalog) Locale() string {
	return c.locale
}

// Translator underlying translator, shared with validation messages
func (c *Catalog) Translator() ut.Translator {
	return c.trans
}

// Message localized text of key, the key itself is returned if unknown
func (c *Catalog) Message(key MessageKey) string {
	text, err := c.trans.T(key)
	if err != nil {
		return string(key)
	}
	return text
}
