package main

import (
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"cv-builder/internal/export"
	"cv-builder/internal/layout"
	"cv-builder/internal/render"
)

func newPreviewCmd() *cobra.Command {
	var markdown bool
	cmd := &cobra.Command{
		Use:   "preview [file]",
		Short: "Show the themed preview in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDocument(cmd, args[0])
			if err != nil {
				return err
			}
			pl := export.NewPipeline()
			if markdown {
				art, err := pl.Export(cmd.Context(), d, render.FormatHTML)
				if err != nil {
					return err
				}
				md, err := toMarkdown(art.Data)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), md)
				return nil
			}
			art, err := pl.Export(cmd.Context(), d, render.FormatPreview)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTree(art.Tree))
			return nil
		},
	}
	cmd.Flags().BoolVar(&markdown, "markdown", false, "Print the HTML rendering as Markdown")
	return cmd
}

func toMarkdown(html []byte) (string, error) {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
		),
	)
	md, err := conv.ConvertString(string(html))
	if err != nil {
		return "", fmt.Errorf("convert to markdown: %w", err)
	}
	return strings.TrimSpace(md), nil
}

func styleFor(st render.Style) lipgloss.Style {
	s := lipgloss.NewStyle().Bold(st.Bold).Italic(st.Italic)
	if st.Color != "" {
		s = s.Foreground(lipgloss.Color(st.Color))
	}
	if st.Indent > 0 {
		s = s.PaddingLeft(2)
	}
	return s
}

// renderTree lays the preview tree out as styled terminal text using the
// colours the theme resolved for every node.
func renderTree(t *render.Tree) string {
	if t == nil {
		return ""
	}
	var b strings.Builder
	rule := lipgloss.NewStyle().Foreground(lipgloss.Color(t.Rule))
	for i, blk := range t.Blocks {
		if i > 0 {
			b.WriteString("\n")
		}
		if !blk.Header && blk.Title != "" {
			b.WriteString(styleFor(blk.Heading).Render(blk.Title))
			b.WriteString("\n")
			if t.Rule != "" {
				b.WriteString(rule.Render(strings.Repeat("─", 40)))
				b.WriteString("\n")
			}
		}
		for _, n := range blk.Nodes {
			b.WriteString(renderNode(n))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func renderNode(n render.TreeNode) string {
	s := styleFor(n.Style)
	switch n.Type {
	case layout.Bullet:
		return s.Render("• " + n.Text)
	case layout.Tags:
		return s.Render(strings.Join(n.Items, " · "))
	case layout.Field:
		return s.Render(n.Label + ": " + n.Text)
	case layout.Link:
		label := n.Label
		if label == "" {
			label = n.Text
		}
		return s.Render(label + " <" + n.Href + ">")
	}
	if n.Text == "" && len(n.Items) > 0 {
		return s.Render(strings.Join(n.Items, ", "))
	}
	return s.Render(n.Text)
}
