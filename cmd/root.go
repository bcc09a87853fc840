package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sohith73/flashfire-CRM/internal/config"
	"github.com/sohith73/flashfire-CRM/internal/store"
	"github.com/sohith73/flashfire-CRM/pkg/crm"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "flashfire",
	Short: "BDA lead claim and incentive console",
	Long:  "Claims leads, drives booking status changes, tracks incentives, and reviews claim approvals against the FlashFire CRM API.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// newClient builds an API client from the loaded config.
func newClient() crm.Client {
	opts := []crm.Option{
		crm.WithBaseURL(cfg.API.BaseURL),
	}
	if cfg.API.AdminToken != "" {
		opts = append(opts, crm.WithAdminToken(cfg.API.AdminToken))
	}
	if cfg.API.RateLimit > 0 {
		opts = append(opts, crm.WithRateLimit(cfg.API.RateLimit))
	}
	return crm.NewClient(cfg.API.Token, opts...)
}

// initStore opens the configured local store and runs migrations.
func initStore(cmd *cobra.Command) (store.Store, error) {
	ctx := cmd.Context()

	var st store.Store
	var err error
	switch cfg.Store.Driver {
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		st, err = store.NewSQLite(cfg.Store.Path)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

// promptConfirm asks the operator to confirm an action on stdin. The
// --yes flag on mutating commands bypasses it.
func promptConfirm(prompt string) (bool, error) {
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
