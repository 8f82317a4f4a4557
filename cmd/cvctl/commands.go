package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cv-builder/internal/auth"
	"cv-builder/internal/export"
	"cv-builder/internal/render"
	"cv-builder/internal/section"
	"cv-builder/internal/theme"
	"cv-builder/internal/usecase"
	infra "cv-builder/pkg/infrastructure"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a cv-data.json file and report how complete it is",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDocument(cmd, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			reg := section.Default()

			problems := 0
			if err := d.Validate(); err != nil {
				fmt.Fprintf(out, "  x %v\n", err)
				problems++
			}
			for _, s := range d.Sections() {
				if err := reg.Resolve(s.ID).Validate(s.Raw); err != nil {
					fmt.Fprintf(out, "  x %v\n", err)
					problems++
				}
			}
			if _, ok := theme.Lookup(d.ActiveTheme()); !ok && d.ActiveTheme() != "" {
				fmt.Fprintf(out, "  ! unknown theme %q, the default theme will be used\n", d.ActiveTheme())
			}
			for _, st := range usecase.Completeness(d, reg) {
				if st.Valid {
					fmt.Fprintf(out, "  %-10s complete\n", st.Stage)
					continue
				}
				fmt.Fprintf(out, "  %-10s missing %s\n", st.Stage, strings.Join(st.Missing, ", "))
			}
			if problems > 0 {
				return fmt.Errorf("%w: %d", errInvalidDocument, problems)
			}
			fmt.Fprintf(out, "%s: ok (%d sections)\n", args[0], d.Len())
			return nil
		},
	}
}

func newExportCmd() *cobra.Command {
	var (
		format  string
		outDir  string
		strict  bool
		chrome  bool
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Render a cv-data.json file to pdf, docx, html, preview or json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDocument(cmd, args[0])
			if err != nil {
				return err
			}
			var projOpts []render.Option
			if strict {
				projOpts = append(projOpts, render.WithStrict())
			}
			if chrome {
				projOpts = append(projOpts, render.WithBackend(render.FormatPDF, infra.NewChromiumBackend("")))
			}
			written := ""
			sink := export.SinkFunc(func(ctx context.Context, a *render.Artifact) error {
				written = filepath.Join(outDir, a.Filename)
				return os.WriteFile(written, a.Data, 0o644)
			})
			pl := export.NewPipeline(
				export.WithProjector(render.NewProjector(projOpts...)),
				export.WithSink(sink),
				export.WithTimeout(timeout),
			)

			var art *render.Artifact
			switch f := render.Format(strings.ToLower(format)); f {
			case export.FormatJSON:
				art, err = pl.ExportJSON(cmd.Context(), d)
			default:
				art, err = pl.Export(cmd.Context(), d, f)
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, is := range art.Issues {
				fmt.Fprintf(out, "  ! %s: %s\n", is.SectionID, is.Message)
			}
			fmt.Fprintf(out, "wrote %s (%d bytes, sha256 %s)\n", written, len(art.Data), art.Digest)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "pdf", "Output format: pdf, docx, html, preview or json")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Directory to write the file to")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail on sections that cannot be rendered")
	cmd.Flags().BoolVar(&chrome, "chromium", false, "Print the PDF with headless Chromium")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Export timeout")
	return cmd
}

func newThemesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "themes",
		Short: "List the available themes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, id := range theme.IDs() {
				th, _ := theme.Lookup(id)
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", id, th.Name)
			}
			return nil
		},
	}
}

func newSectionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sections",
		Short: "List the section ids with a dedicated editor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := section.Default()
			for _, id := range reg.Known() {
				h := reg.Resolve(id)
				fmt.Fprintf(cmd.OutOrStdout(), "%-14s %-14s %s\n", id, h.Kind, h.Label)
			}
			return nil
		},
	}
}

func newTokenCmd() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token [subject]",
		Short: "Issue an API token signed with AUTH_SECRET",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := os.Getenv("AUTH_SECRET")
			if secret == "" {
				return errors.New("AUTH_SECRET is not set")
			}
			token, err := auth.NewHMAC(secret).Issue(args[0], ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
