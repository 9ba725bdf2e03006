package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/CivicLens/BillboardGuard/app/models"
	"github.com/CivicLens/BillboardGuard/app/repository"
	"github.com/CivicLens/BillboardGuard/internal/pkg/database"
	"github.com/CivicLens/BillboardGuard/internal/pkg/env"
)

// useradmin provisions API users. Accounts carry an API key whose hash is
// the only credential the server stores; the raw key is printed once here.
func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	env.SetupEnvFile()
	database.SetupDatabase()
	repository.InitializeFactory(database.GetDB())
	repos := repository.GetGlobalRepositories()

	switch os.Args[1] {
	case "create":
		fs := flag.NewFlagSet("create", flag.ExitOnError)
		name := fs.String("name", "", "display name")
		email := fs.String("email", "", "login email (unique)")
		password := fs.String("password", "", "initial password")
		admin := fs.Bool("admin", false, "grant the admin role")
		fs.Parse(os.Args[2:])

		user, err := models.CreateUser(*name, *email, *password)
		if err != nil {
			log.Fatalf("Invalid user: %v", err)
		}
		if *admin {
			user.Role = models.ROLE_ADMIN
		}
		rawKey, err := user.GenerateAPIKey()
		if err != nil {
			log.Fatalf("Failed to generate API key: %v", err)
		}
		if err := repos.User.Create(user); err != nil {
			log.Fatalf("Failed to create user: %v", err)
		}

		fmt.Printf("User %d (%s) created\n", user.ID, user.Email)
		fmt.Printf("API key (shown once, store it now): %s\n", rawKey)

	case "rotate-key":
		fs := flag.NewFlagSet("rotate-key", flag.ExitOnError)
		email := fs.String("email", "", "email of the user to rotate")
		fs.Parse(os.Args[2:])

		user, err := repos.User.GetByEmail(*email)
		if err != nil {
			log.Fatalf("User not found: %v", err)
		}
		rawKey, err := user.GenerateAPIKey()
		if err != nil {
			log.Fatalf("Failed to generate API key: %v", err)
		}
		if err := repos.User.Update(user); err != nil {
			log.Fatalf("Failed to save user: %v", err)
		}

		fmt.Printf("API key for %s rotated\n", user.Email)
		fmt.Printf("New API key (shown once, store it now): %s\n", rawKey)

	case "disable":
		fs := flag.NewFlagSet("disable", flag.ExitOnError)
		email := fs.String("email", "", "email of the user to disable")
		fs.Parse(os.Args[2:])

		user, err := repos.User.GetByEmail(*email)
		if err != nil {
			log.Fatalf("User not found: %v", err)
		}
		user.Status = models.STATUS_DISABLED
		if err := repos.User.Update(user); err != nil {
			log.Fatalf("Failed to save user: %v", err)
		}
		fmt.Printf("User %s disabled\n", user.Email)

	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: go run cmd/useradmin/main.go [command]")
	fmt.Println("Commands:")
	fmt.Println("  create -name N -email E -password P [-admin]  - create a user and print its API key")
	fmt.Println("  rotate-key -email E                           - issue a fresh API key")
	fmt.Println("  disable -email E                              - block a user's API access")
}
