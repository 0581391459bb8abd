package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"

	"telegram-imgbb-uploader/internal/config"
	"telegram-imgbb-uploader/internal/domain/model"
	"telegram-imgbb-uploader/internal/infra/adapters/imgbb"
	"telegram-imgbb-uploader/internal/infra/logging"
)

// newUploadCmd sends one local file through the same ImgBB client the bot uses.
func newUploadCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a single image to ImgBB and print its links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadUploaderConfig(flags.configPath, flags.dev)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			host, err := imgbb.NewAdapter(&cfg.ImgBB, logging.New(cfg.Log, cfg.Runtime.Dev))
			if err != nil {
				return fmt.Errorf("imgbb: %w", err)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			payload := model.NewImagePayload(data, filepath.Base(args[0]), mimetype.Detect(data).String())
			out := host.Upload(ctx, payload)
			if !out.OK {
				return out.Err()
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "direct:    %s\n", out.DirectURL)
			if out.ThumbnailURL != "" {
				fmt.Fprintf(w, "thumbnail: %s\n", out.ThumbnailURL)
			}
			if out.ViewerURL != "" {
				fmt.Fprintf(w, "viewer:    %s\n", out.ViewerURL)
			}
			if out.DeleteURL != "" {
				fmt.Fprintf(w, "delete:    %s\n", out.DeleteURL)
			}
			return nil
		},
	}
}
