package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aura-survey/backend/internal/models"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		code string
		want models.Language
	}{
		{"uz_cyrl", models.LangUzCyrl},
		{"uz_latn", models.LangUzLatn},
		{"RU", models.LangRu},
		{"ru-RU", models.LangRu},
		{"uz-Cyrl", models.LangUzCyrl},
		{"uz-Latn", models.LangUzLatn},
		{"", models.DefaultLanguage},
		{"not a tag!", models.DefaultLanguage},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.code))
		})
	}
}

func TestTFormatsAndFallsBack(t *testing.T) {
	assert.Equal(t, "Прогресс: 50%", T(models.LangRu, Progress, 50))
	assert.Equal(t, catalog[models.DefaultLanguage][CannotGoBack], T(models.Language("de"), CannotGoBack))
}

func TestCatalogComplete(t *testing.T) {
	for key := range catalog[models.DefaultLanguage] {
		for lang, msgs := range catalog {
			_, ok := msgs[key]
			assert.Truef(t, ok, "missing %s in %s", key, lang)
		}
	}
}
