// Package main seeds a demo poll into the catalog and can mint service tokens for local use.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aura-survey/backend/config"
	"github.com/aura-survey/backend/internal/auth"
	"github.com/aura-survey/backend/internal/polls"
	"github.com/aura-survey/backend/pkg/database"
)

type options struct {
	days   int
	reward string
	tokens bool
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.IntVar(&opts.days, "days", 30, "Days until the demo poll's deadline")
	fs.StringVar(&opts.reward, "reward", "5000", "Completion reward")
	fs.BoolVar(&opts.tokens, "tokens", false, "Also print transport, operator and admin tokens")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.days <= 0 {
		return options{}, fmt.Errorf("days must be positive, got %d", opts.days)
	}
	return opts, nil
}

func main() {
	logger := newLogger()
	defer logger.Sync()

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		logger.Fatal("flags", zap.Error(err))
	}
	reward, err := decimal.NewFromString(opts.reward)
	if err != nil {
		logger.Fatal("reward", zap.String("reward", opts.reward), zap.Error(err))
	}
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), cfg.Database.MaxConns, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	poll, questions := demoPoll(time.Now(), opts.days, reward)
	if err := polls.Validate(poll, questions); err != nil {
		logger.Fatal("demo poll", zap.Error(err))
	}
	if err := polls.NewRepository(pool).CreatePoll(ctx, poll, questions); err != nil {
		logger.Fatal("create poll", zap.Error(err))
	}
	logger.Info("demo poll created", zap.String("poll_id", poll.ID.String()), zap.Int("questions", len(questions)),
		zap.Time("deadline", poll.Deadline))

	if opts.tokens {
		jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
		for _, role := range []string{auth.RoleTransport, auth.RoleOperator, auth.RoleAdmin} {
			token, err := jwtService.Generate("seed-"+role, role)
			if err != nil {
				logger.Fatal("token", zap.String("role", role), zap.Error(err))
			}
			fmt.Printf("%s\t%s\n", role, token)
		}
	}
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
