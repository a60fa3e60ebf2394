package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkharitonov/gmailcal-mcp/internal/auth"
	"github.com/mkharitonov/gmailcal-mcp/internal/config"
	"github.com/mkharitonov/gmailcal-mcp/internal/gservice"
	"github.com/mkharitonov/gmailcal-mcp/internal/logging"
)

func newCheckCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Test the configured Gmail credentials",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd.Context(), envFile)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to env file")

	return cmd
}

func runCheck(ctx context.Context, envFile string) error {
	logger, cleanup, err := logging.New(logging.Options{Debug: true})
	if err != nil {
		return fmt.Errorf("logging.New failed: %w", err)
	}
	defer cleanup()

	cfg, err := config.FromEnv(envFile)
	if err != nil {
		return fmt.Errorf("config.FromEnv failed: %w", err)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	mgr := auth.NewTokenManager(cfg, &http.Client{Timeout: 30 * time.Second}, logger)

	// Force a real refresh so stale configured tokens don't mask broken
	// credentials.
	mgr.Invalidate()

	tok, err := mgr.GetToken(ctx)
	if err != nil {
		return fmt.Errorf("token refresh failed: %w", err)
	}

	gmailSvc := gservice.NewGmail(mgr, logger)

	profile, err := gmailSvc.GetProfile(ctx)
	if err != nil {
		return fmt.Errorf("GetProfile failed: %w", err)
	}

	fmt.Printf("Connected as %s (%d messages, %d threads)\n",
		profile.EmailAddress, profile.MessagesTotal, profile.ThreadsTotal)
	fmt.Printf("Token: %s\n", auth.Mask(tok))

	return nil
}
