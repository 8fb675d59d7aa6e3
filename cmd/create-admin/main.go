package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/gymcore/license-server/internal/admin"
	"github.com/gymcore/license-server/pkg/config"
	"github.com/gymcore/license-server/pkg/db"
	"github.com/gymcore/license-server/pkg/db/models"
	"github.com/gymcore/license-server/pkg/logger"
	"github.com/gymcore/license-server/pkg/security"
)

// create-admin provisions an operator account. When -password is omitted a
// temporary one is generated and printed once.
func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "create-admin"})

	_ = godotenv.Load()

	username := flag.String("username", "", "admin username")
	password := flag.String("password", "", "admin password (generated when empty)")
	flag.Parse()

	name := strings.TrimSpace(*username)
	if name == "" {
		fmt.Fprintln(os.Stderr, "missing -username")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	secret := *password
	generated := false
	if secret == "" {
		secret, err = security.GenerateTempPassword(20)
		if err != nil {
			logg.Error(ctx, "failed to generate password", err)
			os.Exit(1)
		}
		generated = true
	}

	hash, err := security.HashPassword(secret, cfg.Password)
	if err != nil {
		logg.Error(ctx, "failed to hash password", err)
		os.Exit(1)
	}

	repo := admin.NewRepository(dbClient.DB())
	if _, err := repo.Create(ctx, &models.AdminUser{Username: name, PasswordHash: hash}); err != nil {
		logg.Error(ctx, "failed to create admin user", err)
		os.Exit(1)
	}

	fmt.Println("created admin:", name)
	if generated {
		fmt.Println("temporary password:", secret)
	}
}
