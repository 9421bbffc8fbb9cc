package main

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/aura-survey/backend/internal/models"
)

func loc(cyrl, latn, ru string) models.Localized {
	return models.Localized{Default: cyrl, UzLatn: latn, Ru: ru}
}

// demoPoll builds a multilingual poll that exercises every question type.
func demoPoll(now time.Time, days int, reward decimal.Decimal) (*models.Poll, []models.Question) {
	two := 2
	poll := &models.Poll{
		Name:        "Demo: city transport",
		Description: loc("Шаҳар транспорти ҳақида қисқа сўровнома", "Shahar transporti haqida qisqa so'rovnoma", "Короткий опрос о городском транспорте"),
		Deadline:    now.Add(time.Duration(days) * 24 * time.Hour),
		Reward:      reward,
	}
	choices := func(labels ...models.Localized) []models.Choice {
		out := make([]models.Choice, len(labels))
		for i, l := range labels {
			out[i] = models.Choice{Order: i + 1, Text: l}
		}
		return out
	}
	questions := []models.Question{
		{
			Order: 1, Type: models.QuestionClosedSingle,
			Text: loc("Қанча тез-тез жамоат транспортидан фойдаланасиз?", "Qanchalik tez-tez jamoat transportidan foydalanasiz?", "Как часто вы пользуетесь общественным транспортом?"),
			Choices: choices(
				loc("Ҳар куни", "Har kuni", "Каждый день"),
				loc("Ҳафтада бир неча марта", "Haftada bir necha marta", "Несколько раз в неделю"),
				loc("Камдан-кам", "Kamdan-kam", "Редко"),
			),
		},
		{
			Order: 2, Type: models.QuestionClosedMultiple, MaxChoices: &two,
			Text: loc("Қайси транспорт турларидан фойдаланасиз?", "Qaysi transport turlaridan foydalanasiz?", "Какими видами транспорта вы пользуетесь?"),
			Choices: choices(
				loc("Автобус", "Avtobus", "Автобус"),
				loc("Метро", "Metro", "Метро"),
				loc("Такси", "Taksi", "Такси"),
			),
		},
		{
			Order: 3, Type: models.QuestionMixed,
			Text: loc("Энг катта муаммо нима?", "Eng katta muammo nima?", "Какая проблема самая серьёзная?"),
			Choices: choices(
				loc("Тирбандлик", "Tirbandlik", "Пробки"),
				loc("Нарх", "Narx", "Цена"),
			),
		},
		{
			Order: 4, Type: models.QuestionMixedMultiple,
			Text: loc("Нимани яхшилаш керак?", "Nimani yaxshilash kerak?", "Что нужно улучшить?"),
			Choices: choices(
				loc("Жадвал", "Jadval", "Расписание"),
				loc("Тозалик", "Tozalik", "Чистоту"),
				loc("Хавфсизлик", "Xavfsizlik", "Безопасность"),
			),
		},
		{
			Order: 5, Type: models.QuestionOpen,
			Text: loc("Ёшингиз нечада?", "Yoshingiz nechada?", "Сколько вам лет?"),
		},
	}
	return poll, questions
}
