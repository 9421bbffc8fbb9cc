// Package i18n resolves respondent languages and holds the localized bot messages.
package i18n

import (
	"strings"

	"golang.org/x/text/language"

	"github.com/aura-survey/backend/internal/models"
)

var (
	supported = []models.Language{models.LangUzCyrl, models.LangUzLatn, models.LangRu}
	matcher   = language.NewMatcher([]language.Tag{
		language.MustParse("uz-Cyrl"),
		language.MustParse("uz-Latn"),
		language.Russian,
	})
)

// Resolve maps a stored language value or a client language code (e.g. "ru-RU", "uz-Latn")
// to a supported language. Unknown codes resolve to models.DefaultLanguage.
func Resolve(code string) models.Language {
	code = strings.TrimSpace(code)
	if l := models.Language(strings.ToLower(code)); l.Valid() {
		return l
	}
	if code == "" {
		return models.DefaultLanguage
	}
	tag, err := language.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return models.DefaultLanguage
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return models.DefaultLanguage
	}
	return supported[idx]
}
