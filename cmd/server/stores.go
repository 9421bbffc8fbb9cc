package main

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-survey/backend/internal/answers"
	"github.com/aura-survey/backend/internal/captcha"
	"github.com/aura-survey/backend/internal/polls"
	"github.com/aura-survey/backend/internal/reports"
	"github.com/aura-survey/backend/internal/respondents"
	"github.com/aura-survey/backend/internal/rewards"
	"github.com/aura-survey/backend/internal/session"
	"github.com/aura-survey/backend/internal/store/memory"
)

type catalogStore interface {
	session.Catalog
	polls.Catalog
}

// stores groups every persistence contract the server wires.
type stores struct {
	catalog     catalogStore
	respondents session.Respondents
	answers     session.Answers
	ledger      session.Ledger
	challenges  captcha.Store
	reports     reports.Store
}

// Aliases give each embedded repository a distinct field name.
type (
	pollsRepository       = polls.Repository
	respondentsRepository = respondents.Repository
	answersRepository     = answers.Repository
	rewardsRepository     = rewards.Repository
)

// postgresReports joins the repositories the reporting endpoints read from.
type postgresReports struct {
	*pollsRepository
	*respondentsRepository
	*answersRepository
	*rewardsRepository
}

func postgresStores(pool *pgxpool.Pool) stores {
	p := polls.NewRepository(pool)
	r := respondents.NewRepository(pool)
	a := answers.NewRepository(pool)
	l := rewards.NewRepository(pool)
	return stores{
		catalog:     p,
		respondents: r,
		answers:     a,
		ledger:      l,
		challenges:  captcha.NewRepository(pool),
		reports:     postgresReports{p, r, a, l},
	}
}

func memoryStores() stores {
	m := memory.New()
	return stores{catalog: m, respondents: m, answers: m, ledger: m, challenges: m, reports: m}
}
