package validation

import (
	"fmt"
	"math"
	"strings"

	apperrors "go-page-translator/internal/errors"
	"go-page-translator/pkg/models"

	"golang.org/x/text/language"
)

// PreferenceLimits bounds the user-adjustable overlay settings
type PreferenceLimits struct {
	MinOpacity   float64
	MaxOpacity   float64
	MinFontScale float64
	MaxFontScale float64

	// AllowedLanguages restricts language codes; empty allows any valid
	// BCP 47 tag
	AllowedLanguages []string
}

// DefaultPreferenceLimits accepts any opacity in [0, 1] and font scales
// up to 5. The settings screen offers 0.5 to 2.0.
func DefaultPreferenceLimits() PreferenceLimits {
	return PreferenceLimits{
		MinOpacity:   0.0,
		MaxOpacity:   1.0,
		MinFontScale: 0.1,
		MaxFontScale: 5.0,
	}
}

// PreferenceValidator checks preference values before they go live
type PreferenceValidator struct {
	limits PreferenceLimits
}

// NewPreferenceValidator creates a validator with default limits
func NewPreferenceValidator() *PreferenceValidator {
	return &PreferenceValidator{limits: DefaultPreferenceLimits()}
}

// NewPreferenceValidatorWithLimits creates a validator with custom limits
func NewPreferenceValidatorWithLimits(limits PreferenceLimits) *PreferenceValidator {
	return &PreferenceValidator{limits: limits}
}

// PreferenceIssue describes one invalid preference field
type PreferenceIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Issues returns every problem found in p
func (v *PreferenceValidator) Issues(p models.Preferences) []PreferenceIssue {
	var issues []PreferenceIssue

	if math.IsNaN(p.BackgroundOpacity) || p.BackgroundOpacity < v.limits.MinOpacity || p.BackgroundOpacity > v.limits.MaxOpacity {
		issues = append(issues, PreferenceIssue{
			Field:   "background_opacity",
			Message: fmt.Sprintf("must be between %.2f and %.2f", v.limits.MinOpacity, v.limits.MaxOpacity),
		})
	}
	if math.IsNaN(p.FontScale) || p.FontScale <= 0 || p.FontScale < v.limits.MinFontScale || p.FontScale > v.limits.MaxFontScale {
		issues = append(issues, PreferenceIssue{
			Field:   "font_scale",
			Message: fmt.Sprintf("must be between %.2f and %.2f", v.limits.MinFontScale, v.limits.MaxFontScale),
		})
	}
	if msg := v.languageIssue(p.SourceLanguage); msg != "" {
		issues = append(issues, PreferenceIssue{Field: "source_language", Message: msg})
	}
	if msg := v.languageIssue(p.TargetLanguage); msg != "" {
		issues = append(issues, PreferenceIssue{Field: "target_language", Message: msg})
	}
	return issues
}

// ValidatePreferences returns a validation AppError listing all issues
func (v *PreferenceValidator) ValidatePreferences(p models.Preferences) error {
	issues := v.Issues(p)
	if len(issues) == 0 {
		return nil
	}
	parts := make([]string, 0, len(issues))
	for _, issue := range issues {
		parts = append(parts, issue.Field+" "+issue.Message)
	}
	appErr := apperrors.NewValidationError("Invalid preferences", nil)
	appErr.Details = strings.Join(parts, "; ")
	return appErr
}

// ValidateLanguage checks a single language code
func (v *PreferenceValidator) ValidateLanguage(code string) error {
	if msg := v.languageIssue(code); msg != "" {
		return apperrors.NewValidationError(fmt.Sprintf("Invalid language %q: %s", code, msg), nil)
	}
	return nil
}

func (v *PreferenceValidator) languageIssue(code string) string {
	if strings.TrimSpace(code) == "" {
		return "cannot be empty"
	}
	if _, err := language.Parse(code); err != nil {
		return "is not a valid language tag"
	}
	if len(v.limits.AllowedLanguages) == 0 {
		return ""
	}
	for _, allowed := range v.limits.AllowedLanguages {
		if code == allowed {
			return ""
		}
	}
	return "is not supported"
}
