// Command seed provisions an account from the command line, typically the
// first administrator on a fresh database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/spec-kit/flashdash-service/internal/config"
	"github.com/spec-kit/flashdash-service/internal/domain"
	"github.com/spec-kit/flashdash-service/internal/observability"
	"github.com/spec-kit/flashdash-service/internal/persistence"
	"github.com/spec-kit/flashdash-service/internal/repository"
	"github.com/spec-kit/flashdash-service/internal/service"
)

func main() {
	name := flag.String("name", "", "display name")
	email := flag.String("email", "", "login email (unique)")
	password := flag.String("password", "", "plaintext password, hashed before storage")
	role := flag.String("role", string(domain.RoleAdmin), "role: admin, agent or viewer")
	flag.Parse()

	if *name == "" || *email == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		log.Fatalf("failed to connect postgres: %v", err)
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
	}

	users := service.NewUserService(cfg.Auth, repository.NewUserRepository(pg.PoolHandle()))
	user, err := users.Create(ctx, *name, *email, *password, domain.Role(*role))
	if err != nil {
		log.Fatalf("failed to create user: %v", err)
	}

	fmt.Printf("created user %d (%s) with role %s\n", user.ID, user.Email, user.Role)
}
