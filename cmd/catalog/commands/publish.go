package commands

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"wallpaper-catalog/internal/publish"
	"wallpaper-catalog/internal/store"
)

func (a *app) publishCommand() *cobra.Command {
	var assets bool

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Upload the built catalog (and optionally the images) to S3",
		Long: `Uploads the derived document tree under <s3-prefix>/api/v1. With --assets
the wallpapers/ and thumbnails/ trees are uploaded first, so documents never
reference an object that is not there yet. Credentials come from the default
AWS chain.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := a.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer e.Close()

			if e.cfg.S3Bucket == "" {
				return errors.New("s3-bucket is required to publish")
			}

			client, err := publish.NewS3Client(cmd.Context(), e.cfg.S3Region)
			if err != nil {
				return err
			}
			p := publish.New(client, e.cfg.S3Bucket, e.cfg.S3Prefix)

			report, err := p.Publish(cmd.Context(), publishTrees(e.cfg.Root, e.cfg.OutputDir, assets)...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %d object(s), %d bytes to s3://%s/%s\n",
				report.Objects, report.Bytes, e.cfg.S3Bucket, e.cfg.S3Prefix)
			return nil
		},
	}

	cmd.Flags().BoolVar(&assets, "assets", false, "also upload the wallpapers/ and thumbnails/ trees")
	cmd.Flags().String("s3-bucket", "", "destination bucket")
	cmd.Flags().String("s3-region", "", "bucket region (default us-east-1)")
	cmd.Flags().String("s3-prefix", "", "key prefix inside the bucket")
	a.bind(cmd.Flags(), "s3-bucket", "s3-region", "s3-prefix")
	return cmd
}

// publishTrees lists what to upload, assets before the documents that
// link to them.
func publishTrees(root, outputDir string, assets bool) []publish.Tree {
	var trees []publish.Tree
	if assets {
		trees = append(trees,
			publish.Tree{Dir: filepath.Join(root, store.ImagesDir), KeyPrefix: store.ImagesDir, Immutable: true},
			publish.Tree{Dir: filepath.Join(root, store.ThumbnailsDir), KeyPrefix: store.ThumbnailsDir, Immutable: true},
		)
	}
	return append(trees, publish.Tree{Dir: outputDir, KeyPrefix: "api/v1"})
}
