package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/partsline/partsline/internal/config"
	"github.com/partsline/partsline/internal/media"
)

type imageUploader interface {
	Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
}

// NewUploadCmd creates the upload command
func NewUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <image>",
		Short: "Upload an image to the CDN and print its URL",
		Long: `Upload an image to the CDN and print its URL.

The bucket is read from CDN_ENDPOINT, CDN_ACCESS_KEY, CDN_SECRET_KEY, CDN_BUCKET
and CDN_PUBLIC_URL, the same variables the web server uses.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadCDN()
			if err != nil {
				return err
			}
			if !cfg.Enabled() {
				return fmt.Errorf("CDN is not configured (set CDN_ENDPOINT and CDN_BUCKET)")
			}
			uploader, err := media.NewUploader(cfg)
			if err != nil {
				return err
			}
			return runUpload(cmd, uploader, args[0])
		},
	}
}

func runUpload(cmd *cobra.Command, uploader imageUploader, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	url, err := uploader.Upload(cmd.Context(), filepath.Base(path), "", f)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), url)
	return nil
}
