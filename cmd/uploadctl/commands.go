package main

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"file-uploader/internal/bootstrap"
	"file-uploader/internal/placement"
	"file-uploader/internal/shared/config"
)

type configLoader func() (config.Config, error)

func newRootCmd(load configLoader) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "uploadctl",
		Short:         "Place files under the upload root and inspect stored names",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.AddCommand(newPlaceCmd(load), newRecoverNameCmd(load))
	return rootCmd
}

func newPlaceCmd(load configLoader) *cobra.Command {
	var (
		subdir string
		scope  string
		batch  bool
		strict bool
	)
	cmd := &cobra.Command{
		Use:   "place FILE...",
		Short: "Copy local files into the spool and place them like HTTP uploads",
		Long: `Copy local files into the spool and place them like HTTP uploads.

Examples:
  uploadctl place ./photo.jpg --subdir avatars
  uploadctl place a.pdf b.pdf --batch --scope import-42
  uploadctl place a.pdf b.exe --batch --all-or-nothing`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(load)
			if err != nil {
				return err
			}
			defer app.Close()

			files := make([]placement.UploadedFile, 0, len(args))
			for _, path := range args {
				file, err := spoolLocal(app, path)
				if err != nil {
					app.Spool.Discard(files...)
					return err
				}
				files = append(files, file)
			}
			defer app.Spool.Discard(files...)

			ctx := cmd.Context()
			uctx := app.UploadContext(subdir, scope)
			out := cmd.OutOrStdout()

			if batch {
				if strict {
					app.UploadsService.PrecheckBatch = true
				}
				records, err := app.UploadsService.UploadBatch(ctx, files, uctx)
				if err != nil {
					var batchErr *placement.BatchError
					if errors.As(err, &batchErr) {
						for _, item := range batchErr.Stored {
							fmt.Fprintf(out, "%s\t%s\n", item.Name, item.URL)
						}
					}
					return err
				}
				for _, rec := range records {
					fmt.Fprintf(out, "%s\t%s\n", rec.OriginalName, rec.URL)
				}
				return nil
			}

			var failed []error
			for _, file := range files {
				rec, err := app.UploadsService.Upload(ctx, file, uctx)
				if err != nil {
					failed = append(failed, fmt.Errorf("[%s]: %w", file.Name, err))
					continue
				}
				fmt.Fprintf(out, "%s\t%s\n", rec.OriginalName, rec.URL)
			}
			return errors.Join(failed...)
		},
	}
	cmd.Flags().StringVarP(&subdir, "subdir", "s", "", "Subdirectory below the base path")
	cmd.Flags().StringVar(&scope, "scope", "", "Scope recorded with each upload")
	cmd.Flags().BoolVarP(&batch, "batch", "b", false, "Place all files as one batch")
	cmd.Flags().BoolVar(&strict, "all-or-nothing", false, "With --batch, validate every file before placing any")
	return cmd
}

func newRecoverNameCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "recover-name NAME...",
		Short: "Print the original client name of stored files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(load)
			if err != nil {
				return err
			}
			defer app.Close()

			for _, stored := range args {
				name, err := app.UploadsService.OriginalName(cmd.Context(), stored)
				if err != nil {
					return fmt.Errorf("recover %s: %w", stored, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", stored, name)
			}
			return nil
		},
	}
}

func buildApp(load configLoader) (*bootstrap.App, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	return bootstrap.Build(cfg)
}

func spoolLocal(app *bootstrap.App, path string) (placement.UploadedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return placement.UploadedFile{}, err
	}
	defer f.Close()
	name := filepath.Base(path)
	return app.Spool.Ingest("file", name, mime.TypeByExtension(filepath.Ext(name)), f)
}
