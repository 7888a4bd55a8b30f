package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/princinho/hrmbackend/database"
	"github.com/princinho/hrmbackend/models"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create the SuperAdmin account from ADMIN_USERNAME and ADMIN_PASSWORD",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
		defer cancel()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close(context.Background())

		if err := a.ensureIndexes(ctx); err != nil {
			return err
		}
		_, err = seedAdmin(ctx, a)
		return err
	},
}

// seedAdmin creates the SuperAdmin once. It reports whether an account was
// created; an existing one is left untouched.
func seedAdmin(ctx context.Context, a *app) (bool, error) {
	name, pass := a.cfg.Admin.Username, a.cfg.Admin.Password
	if name == "" || pass == "" {
		return false, errors.New("missing ADMIN_USERNAME or ADMIN_PASSWORD env vars")
	}

	if _, found, err := a.users.FindByUserName(ctx, name); err != nil {
		return false, err
	} else if found {
		a.log.Info("admin user already exists", zap.String("user", name))
		return false, nil
	}

	hash, err := a.auth.HashPassword(pass)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}
	_, err = a.users.Create(ctx, &models.User{
		UserName:     name,
		FullName:     "Administrator",
		PasswordHash: hash,
		Role:         models.RoleSuperAdmin,
		IsActive:     true,
	})
	if database.IsKind(err, database.KindDuplicateKey) {
		// another instance won the race
		a.log.Info("admin user already exists", zap.String("user", name))
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}
	a.log.Info("admin user seeded", zap.String("user", name))
	return true, nil
}
