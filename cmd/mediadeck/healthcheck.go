// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/ManuGH/mediadeck/internal/health"
)

func newHealthcheckCmd(opts *rootOptions) *cobra.Command {
	var (
		addr    string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Query the health endpoint of a running daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				cfg, err := loadConfig(opts, cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				addr = cfg.API.ListenAddr
			}

			client := http.Client{Timeout: timeout}
			resp, err := client.Get("http://" + addr + "/healthz")
			if err != nil {
				return fmt.Errorf("healthcheck failed (network): %w", err)
			}
			defer resp.Body.Close()

			var body health.HealthResponse
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				return fmt.Errorf("healthcheck failed (decode): %w", err)
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("healthcheck failed (status): %d %s", resp.StatusCode, body.Status)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (version %s)\n", body.Status, body.Version)
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "daemon address host:port (default from config)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "check timeout")
	return cmd
}
