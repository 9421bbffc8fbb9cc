package captcha

import (
	"math/rand"
	"strconv"
	"sync"

	"github.com/aura-survey/backend/internal/i18n"
	"github.com/aura-survey/backend/internal/models"
)

var words = map[models.Language][]string{
	models.LangUzCyrl: {"китоб", "қалам", "дафтар", "стол", "курси", "ойна", "эшик"},
	models.LangUzLatn: {"kitob", "qalam", "daftar", "stol", "kursi", "oyna", "eshik"},
	models.LangRu:     {"книга", "ручка", "тетрадь", "стол", "стул", "окно", "дверь"},
}

// Generator produces localized challenge content. It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewGenerator creates a generator drawing from src.
func NewGenerator(src rand.Source) *Generator {
	return &Generator{rnd: rand.New(src)}
}

// between returns a uniform int in [lo, hi].
func (g *Generator) between(lo, hi int) int {
	return lo + g.rnd.Intn(hi-lo+1)
}

// Generate returns a challenge type, its prompt in lang and the expected answer.
func (g *Generator) Generate(lang models.Language) (models.CaptchaType, string, string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.rnd.Intn(2) == 0 {
		q, a := g.math(lang)
		return models.CaptchaMath, q, a
	}
	q, a := g.text(lang)
	return models.CaptchaText, q, a
}

func (g *Generator) math(lang models.Language) (string, string) {
	var a, b, answer int
	var symbol string
	switch g.rnd.Intn(3) {
	case 0:
		a, b = g.between(1, 50), g.between(1, 50)
		symbol, answer = "+", a+b
	case 1:
		a = g.between(20, 100)
		b = g.between(1, a-1)
		symbol, answer = "-", a-b
	default:
		a, b = g.between(1, 12), g.between(1, 12)
		symbol, answer = "×", a*b
	}
	return i18n.T(lang, i18n.CaptchaMath, a, symbol, b), strconv.Itoa(answer)
}

func (g *Generator) text(lang models.Language) (string, string) {
	if g.rnd.Intn(2) == 0 {
		list, ok := words[lang]
		if !ok {
			list = words[models.DefaultLanguage]
		}
		w := list[g.rnd.Intn(len(list))]
		return i18n.T(lang, i18n.CaptchaWord, w), w
	}
	n := strconv.Itoa(g.between(1000, 9999))
	return i18n.T(lang, i18n.CaptchaNumber, n), n
}
