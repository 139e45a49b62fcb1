package langdetect

import (
	"errors"
	"fmt"
	"strings"

	"github.com/RadhiFadlillah/whatlanggo"
	"github.com/forPelevin/gomoji"
)

// ErrorLanguage marks a post whose language could not be classified.
// It never appears in an allow-list, so such posts are dropped.
const ErrorLanguage = "error"

var (
	ErrEmptyText    = errors.New("no text to classify")
	ErrInconclusive = errors.New("language is inconclusive")
)

// ClassificationError is returned by Detect and swallowed by Classify.
type ClassificationError struct {
	Text string
	Err  error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classify %q: %v", truncate(e.Text, 40), e.Err)
}

func (e *ClassificationError) Unwrap() error { return e.Err }

// Detector classifies post text into ISO 639-1 codes.
type Detector struct {
	options whatlanggo.Options
}

func NewDetector() *Detector {
	return &Detector{}
}

// Detect returns the language code of text.
func (d *Detector) Detect(text string) (string, error) {
	cleaned := strings.TrimSpace(gomoji.RemoveEmojis(text))
	if cleaned == "" {
		return "", &ClassificationError{Text: text, Err: ErrEmptyText}
	}

	info := whatlanggo.DetectWithOptions(cleaned, d.options)
	if info.Lang < 0 || info.Confidence <= 0 {
		return "", &ClassificationError{Text: text, Err: ErrInconclusive}
	}

	code := info.Lang.Iso6391()
	if code == "" {
		return "", &ClassificationError{Text: text, Err: fmt.Errorf("%w: %s has no ISO 639-1 code", ErrInconclusive, info.Lang.String())}
	}
	return code, nil
}

// Classify is Detect with any failure mapped to ErrorLanguage.
func (d *Detector) Classify(text string) string {
	lang, err := d.Detect(text)
	if err != nil {
		return ErrorLanguage
	}
	return lang
}

// Allowed reports whether lang is in the allow-list.
func Allowed(lang string, allowList []string) bool {
	for _, l := range allowList {
		if strings.EqualFold(strings.TrimSpace(l), lang) {
			return true
		}
	}
	return false
}

func truncate(s string, max int) string {
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	return string(rs[:max]) + "..."
}
