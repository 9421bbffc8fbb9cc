package models

// Language is a display language a respondent reads the poll in.
type Language string

const (
	LangUzCyrl Language = "uz_cyrl"
	LangUzLatn Language = "uz_latn"
	LangRu     Language = "ru"
)

// DefaultLanguage is used when a respondent's language is unknown.
const DefaultLanguage = LangUzCyrl

// Valid reports whether l is one of the supported languages.
func (l Language) Valid() bool {
	switch l {
	case LangUzCyrl, LangUzLatn, LangRu:
		return true
	}
	return false
}

// Localized holds a text with per-language variants. Default is the uz_cyrl text;
// an empty variant falls back to Default.
type Localized struct {
	Default string `json:"default"`
	UzLatn  string `json:"uz_latn,omitempty"`
	Ru      string `json:"ru,omitempty"`
}

// In returns the variant for lang, falling back to Default.
func (l Localized) In(lang Language) string {
	switch lang {
	case LangUzLatn:
		if l.UzLatn != "" {
			return l.UzLatn
		}
	case LangRu:
		if l.Ru != "" {
			return l.Ru
		}
	}
	return l.Default
}

// Text returns a Localized with only the default variant set.
func Text(s string) Localized {
	return Localized{Default: s}
}
