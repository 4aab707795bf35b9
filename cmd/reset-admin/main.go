package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/BradenHooton/inscriptions/internal/config"
	"github.com/BradenHooton/inscriptions/internal/database"
	"github.com/BradenHooton/inscriptions/internal/repositories"
	"github.com/BradenHooton/inscriptions/internal/services"
	pkgauth "github.com/BradenHooton/inscriptions/pkg/auth"
	"github.com/spf13/cobra"
)

var (
	username   string
	password   string
	bcryptCost int
)

var rootCmd = &cobra.Command{
	Use:   "reset-admin",
	Short: "Recreate the admin account and clear all login attempts",
	Long: `reset-admin deletes the admin account with the given username, creates it
again with a new password and purges the login attempt ledger, which also
lifts any lockout once the API restarts.

The database is selected with the same DB_DRIVER / DATABASE_URL / SQLITE_PATH
variables the API server reads.

Examples:
  reset-admin --password 'n3w-secret'
  ADMIN_PASSWORD='n3w-secret' reset-admin --username alice`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVarP(&username, "username", "u", envOr("ADMIN_USERNAME", "admin"), "admin username to reset")
	rootCmd.Flags().StringVarP(&password, "password", "p", os.Getenv("ADMIN_PASSWORD"), "new password (defaults to $ADMIN_PASSWORD)")
	rootCmd.Flags().IntVar(&bcryptCost, "bcrypt-cost", pkgauth.DefaultBcryptCost, "bcrypt cost for the new hash")
}

func run(cmd *cobra.Command, args []string) error {
	if password == "" {
		return fmt.Errorf("a password is required (--password or ADMIN_PASSWORD)")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	dbCfg, err := config.LoadDatabase()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	db, err := database.NewConnection(dbCfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	if err := db.Migrate(ctx); err != nil {
		return err
	}

	store, err := repositories.NewStore(db)
	if err != nil {
		return err
	}

	users := services.NewUserService(store.Admins, pkgauth.NewHasher(bcryptCost), logger)
	user, purged, err := users.ResetAdmin(ctx, username, password, store.Attempts)
	if err != nil {
		return err
	}

	cmd.Printf("Admin account %q recreated (id %d)\n", user.Username, user.ID)
	cmd.Printf("%d login attempt(s) purged\n", purged)
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
