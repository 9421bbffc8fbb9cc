package i18n

import (
	"fmt"

	"github.com/aura-survey/backend/internal/models"
)

// Key identifies a bot message.
type Key string

const (
	NoActivePolls      Key = "no_active_polls"
	NoNewPolls         Key = "no_new_polls"
	PollCompleted      Key = "poll_completed"
	AlreadyCompleted   Key = "already_completed"
	RewardCredited     Key = "reward_credited"
	InvalidOption      Key = "invalid_option"
	TooManySelections  Key = "too_many_selections"
	SelectAtLeastOne   Key = "select_at_least_one"
	CannotGoBack       Key = "cannot_go_back"
	QuestionPrefix     Key = "question_prefix"
	WriteAnswer        Key = "write_answer"
	WriteOther         Key = "write_other"
	ChooseAnswer       Key = "choose_answer"
	ChooseMultiple     Key = "choose_multiple"
	OtherLabel         Key = "other_label"
	BackLabel          Key = "back_label"
	ConfirmLabel       Key = "confirm_label"
	Progress           Key = "progress"
	FinishCheckFirst   Key = "finish_check_first"
	CaptchaMath        Key = "captcha_math"
	CaptchaWord        Key = "captcha_word"
	CaptchaNumber      Key = "captcha_number"
	CaptchaWrong       Key = "captcha_wrong"
	CaptchaFailed      Key = "captcha_failed"
	CaptchaSolved      Key = "captcha_solved"
	TryAgainLater      Key = "try_again_later"
)

var catalog = map[models.Language]map[Key]string{
	models.LangUzCyrl: {
		NoActivePolls:     "Ҳозирча актив сўровномалар мавжуд эмас.",
		NoNewPolls:        "Ҳозирча сиз учун янги сўровномалар мавжуд эмас.",
		PollCompleted:     "Сиз сўровномани тўлиқ якунладингиз. Рахмат!",
		AlreadyCompleted:  "Сиз бу сўровномани аллақачон якунлагансиз. Қайта бошлаш мумкин.",
		RewardCredited:    "💰 Ҳисобингизга %s сўм қўшилди. Жорий баланс: %s сўм.",
		InvalidOption:     "Бундай вариант йўқ. Илтимос, тўғри жавобни танланг.",
		TooManySelections: "Кўпи билан %d та жавоб танлаш мумкин.",
		SelectAtLeastOne:  "Илтимос, камида битта жавобни танланг.",
		CannotGoBack:      "Бундан олдинга қайтиб бўлмайди.",
		QuestionPrefix:    "Савол:",
		WriteAnswer:       "Жавобингизни ёзинг ✍️",
		WriteOther:        "Ўз жавобингизни ёзинг ✍️",
		ChooseAnswer:      "Жавобни танланг 👇",
		ChooseMultiple:    "Танланган жавоблар ✅ билан белгиланган:",
		OtherLabel:        "📝 Бошқа",
		BackLabel:         "🔙 Ортга",
		ConfirmLabel:      "➡️ Кейинги савол",
		Progress:          "Жараён: %d%%",
		FinishCheckFirst:  "Аввал антибот текширувидан ўтинг.",
		CaptchaMath:       "🤖 Антибот текшируви\n\nҲисобланг: %d %s %d = ?\n\nИлтимос, жавобни киритинг:",
		CaptchaWord:       "🤖 Антибот текшируви\n\nҚуйидаги сўзни қайта ёзинг:\n\n%s",
		CaptchaNumber:     "🤖 Антибот текшируви\n\nҚуйидаги рақамни қайта ёзинг:\n\n%s",
		CaptchaWrong:      "❌ Нотўғри жавоб! Қайта уриниб кўринг.\n\nУринишлар: %d/%d",
		CaptchaFailed:     "❌ Сиз %d марта нотўғри жавоб бердингиз.\n\nСўровнома тўхтатилди. Илтимос, бошқатдан уриниб кўринг.",
		CaptchaSolved:     "✅ Тўғри! Сўровнома давом этади...",
		TryAgainLater:     "Илтимос, бироздан сўнг қайта уриниб кўринг.",
	},
	models.LangUzLatn: {
		NoActivePolls:     "Hozircha aktiv so'rovnomalar mavjud emas.",
		NoNewPolls:        "Hozircha siz uchun yangi so'rovnomalar mavjud emas.",
		PollCompleted:     "Siz so'rovnomani to'liq yakunladingiz. Rahmat!",
		AlreadyCompleted:  "Siz bu so'rovnomani allaqachon yakunlagansiz. Qayta boshlash mumkin.",
		RewardCredited:    "💰 Hisobingizga %s so'm qo'shildi. Joriy balans: %s so'm.",
		InvalidOption:     "Bunday variant yo'q. Iltimos, to'g'ri javobni tanlang.",
		TooManySelections: "Ko'pi bilan %d ta javob tanlash mumkin.",
		SelectAtLeastOne:  "Iltimos, kamida bitta javobni tanlang.",
		CannotGoBack:      "Bundan oldinga qaytib bo'lmaydi.",
		QuestionPrefix:    "Savol:",
		WriteAnswer:       "Javobingizni yozing ✍️",
		WriteOther:        "O'z javobingizni yozing ✍️",
		ChooseAnswer:      "Javobni tanlang 👇",
		ChooseMultiple:    "Tanlangan javoblar ✅ bilan belgilangan:",
		OtherLabel:        "📝 Boshqa",
		BackLabel:         "🔙 Ortga",
		ConfirmLabel:      "➡️ Keyingi savol",
		Progress:          "Jarayon: %d%%",
		FinishCheckFirst:  "Avval antibot tekshiruvidan o'ting.",
		CaptchaMath:       "🤖 Antibot tekshiruvi\n\nHisoblang: %d %s %d = ?\n\nIltimos, javobni kiriting:",
		CaptchaWord:       "🤖 Antibot tekshiruvi\n\nQuyidagi so'zni qayta yozing:\n\n%s",
		CaptchaNumber:     "🤖 Antibot tekshiruvi\n\nQuyidagi raqamni qayta yozing:\n\n%s",
		CaptchaWrong:      "❌ Noto'g'ri javob! Qayta urinib ko'ring.\n\nUrinishlar: %d/%d",
		CaptchaFailed:     "❌ Siz %d marta noto'g'ri javob berdingiz.\n\nSo'rovnoma to'xtatildi. Iltimos, boshqatdan urinib ko'ring.",
		CaptchaSolved:     "✅ To'g'ri! So'rovnoma davom etadi...",
		TryAgainLater:     "Iltimos, birozdan so'ng qayta urinib ko'ring.",
	},
	models.LangRu: {
		NoActivePolls:     "Сейчас нет активных опросов.",
		NoNewPolls:        "Сейчас для вас нет новых опросов.",
		PollCompleted:     "Вы полностью завершили опрос. Спасибо!",
		AlreadyCompleted:  "Вы уже завершили этот опрос. Его можно пройти заново.",
		RewardCredited:    "💰 На ваш счёт зачислено %s сум. Текущий баланс: %s сум.",
		InvalidOption:     "Такого варианта нет. Пожалуйста, выберите правильный ответ.",
		TooManySelections: "Можно выбрать не более %d вариантов.",
		SelectAtLeastOne:  "Пожалуйста, выберите хотя бы один вариант.",
		CannotGoBack:      "Дальше назад вернуться нельзя.",
		QuestionPrefix:    "Вопрос:",
		WriteAnswer:       "Напишите ваш ответ ✍️",
		WriteOther:        "Напишите свой вариант ✍️",
		ChooseAnswer:      "Выберите ответ 👇",
		ChooseMultiple:    "Выбранные ответы отмечены ✅:",
		OtherLabel:        "📝 Другое",
		BackLabel:         "🔙 Назад",
		ConfirmLabel:      "➡️ Следующий вопрос",
		Progress:          "Прогресс: %d%%",
		FinishCheckFirst:  "Сначала пройдите антибот проверку.",
		CaptchaMath:       "🤖 Антибот проверка\n\nВычислите: %d %s %d = ?\n\nПожалуйста, введите ответ:",
		CaptchaWord:       "🤖 Антибот проверка\n\nПовторите следующее слово:\n\n%s",
		CaptchaNumber:     "🤖 Антибот проверка\n\nПовторите следующее число:\n\n%s",
		CaptchaWrong:      "❌ Неправильный ответ! Попробуйте снова.\n\nПопыток: %d/%d",
		CaptchaFailed:     "❌ Вы ответили неправильно %d раза.\n\nОпрос остановлен. Пожалуйста, попробуйте снова.",
		CaptchaSolved:     "✅ Правильно! Опрос продолжается...",
		TryAgainLater:     "Пожалуйста, попробуйте ещё раз чуть позже.",
	},
}

// T returns the message for key in lang, formatted with args. Missing translations fall back
// to the default language.
func T(lang models.Language, key Key, args ...any) string {
	msg, ok := catalog[lang][key]
	if !ok {
		msg = catalog[models.DefaultLanguage][key]
	}
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}
