package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/tradingnft/backend/internal/config"
	"github.com/tradingnft/backend/internal/repository"
	"github.com/tradingnft/backend/internal/services"
	"github.com/tradingnft/backend/pkg/logger"
)

// create_account inserts an account into the configured database so the
// sign-in flow can be tried locally.
//
//	go run ./cmd/scripts/create_account -email a@x.com -password secret123
func main() {
	var (
		configPath = flag.String("config", os.Getenv("CONFIG_PATH"), "path to config.yaml")
		email      = flag.String("email", "", "account email (required)")
		password   = flag.String("password", "", "account password, at least 8 characters (required)")
		firstName  = flag.String("first", "Test", "first name")
		lastName   = flag.String("last", "User", "last name")
	)
	flag.Parse()

	if *email == "" || len(*password) < 8 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stores, err := repository.Open(ctx, cfg)
	if err != nil {
		logger.Fatalf("Failed to open database: %v", err)
	}
	defer stores.Close(ctx)

	users := services.NewUserService(stores.Accounts, nil)
	account, err := users.Create(ctx, &services.CreateUserRequest{
		Email:     *email,
		Password:  *password,
		FirstName: *firstName,
		LastName:  *lastName,
	})
	if errors.Is(err, services.ErrEmailExists) {
		fmt.Printf("Account %s already exists\n", *email)
		return
	}
	if err != nil {
		logger.Fatalf("Failed to create account: %v", err)
	}

	fmt.Printf("Created account %s (%s)\n", account.Email, account.ID)
}
