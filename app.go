package main

import (
	"context"
	"fmt"

	"github.com/princinho/hrmbackend/auth"
	"github.com/princinho/hrmbackend/config"
	"github.com/princinho/hrmbackend/database"
	"github.com/princinho/hrmbackend/logging"
	"github.com/princinho/hrmbackend/repository"
	"github.com/princinho/hrmbackend/sequence"
	"go.uber.org/zap"
)

// app is the wired dependency graph shared by the commands.
type app struct {
	cfg        config.Config
	log        *zap.Logger
	store      *database.Store
	users      *repository.UserRepository
	teams      *repository.TeamRepository
	contracts  *repository.ContractRepository
	attendance *repository.AttendanceRepository
	auth       *auth.Service
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logging.New(logging.Config{Env: cfg.Env, Level: cfg.LogLevel, ServiceName: "hrm"})

	store, err := database.Connect(ctx, cfg.Mongo, database.WithLogger(log))
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	a, err := wire(cfg, log, store)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	return a, nil
}

// wire takes ownership of store and closes it when wiring fails.
func wire(cfg config.Config, log *zap.Logger, store *database.Store) (*app, error) {
	seq := sequence.New(store, sequence.WithLogger(log))
	users := repository.NewUserRepository(store, seq)

	svc, err := auth.NewService(users, cfg.Auth, auth.WithLogger(log.Named("auth")))
	if err != nil {
		if cerr := store.Close(context.Background()); cerr != nil {
			log.Warn("close store", zap.Error(cerr))
		}
		return nil, fmt.Errorf("auth: %w", err)
	}
	return &app{
		cfg:        cfg,
		log:        log,
		store:      store,
		users:      users,
		teams:      repository.NewTeamRepository(store),
		contracts:  repository.NewContractRepository(store),
		attendance: repository.NewAttendanceRepository(store),
		auth:       svc,
	}, nil
}

func (a *app) ensureIndexes(ctx context.Context) error {
	for name, ensure := range map[string]func(context.Context) error{
		repository.UsersCollection:      a.users.EnsureIndexes,
		repository.TeamsCollection:      a.teams.EnsureIndexes,
		repository.ContractsCollection:  a.contracts.EnsureIndexes,
		repository.AttendanceCollection: a.attendance.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			return fmt.Errorf("indexes for %s: %w", name, err)
		}
	}
	return nil
}

func (a *app) close(ctx context.Context) {
	if err := a.store.Close(ctx); err != nil {
		a.log.Warn("close store", zap.Error(err))
	}
	_ = a.log.Sync()
}
