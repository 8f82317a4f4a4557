package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cv-builder/internal/codec"
	"cv-builder/internal/tailor"
	"cv-builder/pkg/ai"
)

func newTailorCmd() *cobra.Command {
	var (
		jobFile   string
		sectionID string
		aiURL     string
		language  string
		outFile   string
		headings  bool
	)
	cmd := &cobra.Command{
		Use:   "tailor [file]",
		Short: "Rewrite a cv-data.json file for a job description with the AI service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDocument(cmd, args[0])
			if err != nil {
				return err
			}
			client := ai.NewClient(aiURL, ai.WithLanguage(language))

			var r tailor.Result
			switch {
			case headings:
				r, err = client.TranslateHeadings(cmd.Context(), d)
			case jobFile == "":
				return errors.New("--job is required")
			default:
				jd, rerr := os.ReadFile(jobFile)
				if rerr != nil {
					return rerr
				}
				if sectionID != "" {
					r, err = client.TailorSection(cmd.Context(), d, sectionID, string(jd))
				} else {
					r, err = client.Tailor(cmd.Context(), d, string(jd))
				}
			}
			if err != nil {
				return err
			}
			merged, err := tailor.Merge(d, r)
			if err != nil {
				return err
			}
			data, err := codec.EncodeIndent(merged)
			if err != nil {
				return err
			}
			if outFile == "" || outFile == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(outFile, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%s result merged into %s\n", r.Kind, outFile)
			return nil
		},
	}
	cmd.Flags().StringVarP(&jobFile, "job", "j", "", "File holding the job description")
	cmd.Flags().StringVarP(&sectionID, "section", "s", "", "Only rewrite this section")
	cmd.Flags().StringVar(&aiURL, "ai-url", "", "AI service URL (defaults to AI_SERVICE_URL)")
	cmd.Flags().StringVar(&language, "language", "", "Language for the rewritten text")
	cmd.Flags().StringVarP(&outFile, "out", "o", "-", "Where to write the merged document")
	cmd.Flags().BoolVar(&headings, "headings", false, "Only translate section headings into --language")
	return cmd
}
