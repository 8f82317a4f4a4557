package render

import (
	"context"

	"github.com/go-json-experiment/json"

	"cv-builder/internal/layout"
	"cv-builder/internal/theme"
)

// Tree is the preview rendering: every node with its resolved style and the
// id a click should open in the editor.
type Tree struct {
	Theme      string      `json:"theme"`
	Background string      `json:"background"`
	Rule       string      `json:"rule,omitempty"`
	Margin     float64     `json:"margin"`
	Blocks     []TreeBlock `json:"blocks"`
}

type TreeBlock struct {
	SectionID string     `json:"sectionId"`
	Kind      string     `json:"kind"`
	Title     string     `json:"title"`
	Heading   Style      `json:"heading"`
	Header    bool       `json:"header,omitempty"`
	Degraded  bool       `json:"degraded,omitempty"`
	Nodes     []TreeNode `json:"nodes"`
}

type TreeNode struct {
	ID    string          `json:"id"`
	Type  layout.NodeType `json:"type"`
	Text  string          `json:"text,omitempty"`
	Label string          `json:"label,omitempty"`
	Href  string          `json:"href,omitempty"`
	Items []string        `json:"items,omitempty"`
	Style Style           `json:"style"`
}

// Block returns the block for a section id.
func (t *Tree) Block(sectionID string) (TreeBlock, bool) {
	for _, b := range t.Blocks {
		if b.SectionID == sectionID {
			return b, true
		}
	}
	return TreeBlock{}, false
}

// Node finds a node by its click-to-edit id.
func (t *Tree) Node(id string) (TreeNode, bool) {
	sec, _, ok := layout.SplitNodeID(id)
	if !ok {
		return TreeNode{}, false
	}
	b, ok := t.Block(sec)
	if !ok {
		return TreeNode{}, false
	}
	for _, n := range b.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return TreeNode{}, false
}

// PreviewBackend produces a Tree and its JSON encoding.
type PreviewBackend struct{}

func (PreviewBackend) Render(ctx context.Context, job Job) (Output, error) {
	tree := BuildTree(job.Page, job.Theme)
	data, err := json.Marshal(tree, json.Deterministic(true))
	if err != nil {
		return Output{}, err
	}
	return Output{Data: data, Tree: tree}, nil
}

// BuildTree resolves styles for every node of page.
func BuildTree(page layout.Page, th theme.Config) *Tree {
	tree := &Tree{
		Theme:      th.ID,
		Background: th.Palette.Background,
		Margin:     th.Spacing.Margin,
		Blocks:     make([]TreeBlock, 0, len(page.Blocks)),
	}
	if th.Layout.SectionRule {
		tree.Rule = th.Palette.Rule
	}
	for _, b := range page.Blocks {
		tb := TreeBlock{
			SectionID: b.SectionID,
			Kind:      string(b.Kind),
			Title:     th.Heading(b.Title),
			Heading:   headingStyle(th),
			Degraded:  b.Degraded,
			Header:    isHeader(b),
			Nodes:     make([]TreeNode, 0, len(b.Nodes)),
		}
		for _, n := range b.Nodes {
			tb.Nodes = append(tb.Nodes, TreeNode{
				ID:    n.ID,
				Type:  n.Type,
				Text:  n.Text,
				Label: n.Label,
				Href:  n.Href,
				Items: n.Items,
				Style: nodeStyle(n.Type, th),
			})
		}
		tree.Blocks = append(tree.Blocks, tb)
	}
	return tree
}
