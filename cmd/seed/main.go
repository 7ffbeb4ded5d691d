// Package main seeds the configured store with a demo user and a few saved books.
//
// It goes through the same services as the server, so validation and
// normalization apply. Running it twice logs in instead of re-registering.
//
// Usage:
//
//	go run ./cmd/seed --store sqlite --data-path /tmp/readlist
//	SEED_EMAIL=me@example.com SEED_PASSWORD=secret go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/samber/do/v2"

	"github.com/readlist/readlist-server/internal/di"
	domainerrors "github.com/readlist/readlist-server/internal/errors"
	"github.com/readlist/readlist-server/internal/logger"
	"github.com/readlist/readlist-server/internal/service"
)

var demoBooks = []service.SaveBookRequest{
	{
		BookID:      "hFfhrCWiLSMC",
		Title:       "The Hobbit",
		Authors:     []string{"J.R.R. Tolkien"},
		Description: "<p>Bilbo Baggins is a hobbit who enjoys a <em>comfortable</em>, unambitious life.</p>",
		Link:        "https://books.google.com/books?id=hFfhrCWiLSMC",
	},
	{
		BookID:  "B1DnDAAAQBAJ",
		Title:   "Dune",
		Authors: []string{"Frank Herbert"},
		Link:    "https://books.google.com/books?id=B1DnDAAAQBAJ",
	},
	{
		BookID:  "yl4dILkcqm4C",
		Title:   "Good Omens",
		Authors: []string{"Terry Pratchett", "Neil Gaiman"},
	},
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	injector := di.NewContainer(os.Args[1:])
	if err := di.BootstrapServices(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap services: %v\n", err)
		os.Exit(1)
	}

	log := do.MustInvoke[*logger.Logger](injector).WithComponent("seed")
	defer func() {
		if err := injector.Shutdown(); err != nil {
			log.WithError(err).Error("Shutdown error")
		}
	}()

	authService := do.MustInvoke[*service.AuthService](injector)
	bookService := do.MustInvoke[*service.BookService](injector)
	ctx := context.Background()

	req := service.AddUserRequest{
		Username: envOr("SEED_USERNAME", "demo"),
		Email:    envOr("SEED_EMAIL", "demo@readlist.local"),
		Password: envOr("SEED_PASSWORD", "readlist"),
	}

	res, err := authService.AddUser(ctx, req)
	if domainerrors.CodeOf(err) == domainerrors.CodeAlreadyExists {
		fmt.Printf("User %s already exists, logging in\n", req.Email)
		res, err = authService.Login(ctx, service.LoginRequest{Email: req.Email, Password: req.Password})
	}
	if err != nil {
		log.Fatal("Failed to get demo user", "email", req.Email, "error", err)
	}

	viewer := authService.Authenticate(res.Token)
	for _, book := range demoBooks {
		user, err := bookService.SaveBook(ctx, viewer, book)
		if err != nil {
			log.Fatal("Failed to save book", "book_id", book.BookID, "error", err)
		}
		fmt.Printf("  saved %-12s %s (%d saved)\n", book.BookID, book.Title, user.SavedBookCount())
	}

	fmt.Printf("\nDemo user %s (%s)\nToken: %s\n", res.User.Username, res.User.ID, res.Token)
}
