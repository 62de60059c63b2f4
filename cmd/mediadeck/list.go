// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ManuGH/mediadeck/internal/daemon"
	"github.com/ManuGH/mediadeck/internal/domain/session/model"
	"github.com/ManuGH/mediadeck/internal/infra/media"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	var (
		kind  string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the assets of a media library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			k := model.AssetKind(kind)
			if !k.Valid() || k == model.AssetMicrophone {
				return fmt.Errorf("unknown library kind %q (supported: audio, photo, video)", kind)
			}
			if !cmd.Flags().Changed("limit") {
				limit = cfg.Library.ListLimit
			}

			provider := media.NewFSProvider(daemon.ProviderConfig(cfg))
			perm, err := provider.RequestPermission(cmd.Context(), k)
			if err != nil {
				return err
			}
			if perm != model.PermissionGranted {
				return fmt.Errorf("%s library: %w", k, model.ErrPermissionDenied)
			}
			assets, err := provider.ListAssets(cmd.Context(), k, limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "INDEX\tFILENAME\tID")
			for i, a := range assets {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", i, a.Filename, a.ID)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(model.AssetAudio), "library kind: audio, photo or video")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of assets, 0 lists all (default from config)")
	return cmd
}
