package main

import (
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"cv-builder/internal/codec"
	"cv-builder/internal/model"
)

var errInvalidDocument = errors.New("document has problems")

func newRootCmd() *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:           "cvctl",
		Short:         "Work with cv-data.json files from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log pipeline activity")

	root.AddCommand(
		newValidateCmd(),
		newExportCmd(),
		newPreviewCmd(),
		newThemesCmd(),
		newSectionsCmd(),
		newTailorCmd(),
		newTokenCmd(),
	)
	return root
}

// loadDocument decodes path, or standard input when path is "-".
func loadDocument(cmd *cobra.Command, path string) (model.Document, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return model.Document{}, err
		}
		defer f.Close()
		r = f
	}
	return codec.DecodeReader(r)
}
