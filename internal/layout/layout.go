// Package layout holds the format-agnostic tree a section is projected into
// before a backend turns it into preview nodes, PDF text or WordprocessingML.
package layout

import (
	"strconv"
	"strings"

	"cv-builder/internal/model"
)

// NodeType tells a backend which style to apply to a node.
type NodeType string

const (
	Name        NodeType = "name"
	Headline    NodeType = "headline"
	Contact     NodeType = "contact"
	EntryTitle  NodeType = "entryTitle"
	EntryMeta   NodeType = "entryMeta"
	Paragraph   NodeType = "paragraph"
	Bullet      NodeType = "bullet"
	Tags        NodeType = "tags"
	Link        NodeType = "link"
	Field       NodeType = "field"
	Code        NodeType = "code"
	Placeholder NodeType = "placeholder"
)

// Node is one styled run of text. ID points back to the section entry it was
// produced from ("experiences/2"), so a preview click can open the right editor.
type Node struct {
	ID    string   `json:"id"`
	Type  NodeType `json:"type"`
	Text  string   `json:"text,omitempty"`
	Label string   `json:"label,omitempty"`
	Href  string   `json:"href,omitempty"`
	Items []string `json:"items,omitempty"`
}

// Block is the projection of one section.
type Block struct {
	SectionID string     `json:"sectionId"`
	Kind      model.Kind `json:"kind"`
	Title     string     `json:"title"`
	Nodes     []Node     `json:"nodes"`
	Degraded  bool       `json:"degraded,omitempty"`
}

// Page is the ordered list of visible blocks handed to a backend.
type Page struct {
	Blocks []Block
}

// NodeID formats the click-to-edit id of entry index within section id.
func NodeID(sectionID string, index int) string {
	return sectionID + "/" + strconv.Itoa(index)
}

// SplitNodeID is the inverse of NodeID.
func SplitNodeID(id string) (sectionID string, index int, ok bool) {
	i := strings.LastIndexByte(id, '/')
	if i <= 0 {
		return "", 0, false
	}
	n, err := strconv.Atoi(id[i+1:])
	if err != nil || n < 0 {
		return "", 0, false
	}
	return id[:i], n, true
}

// Builder appends nodes for one block.
type Builder struct {
	block Block
}

func NewBuilder(sectionID string, kind model.Kind, title string) *Builder {
	return &Builder{block: Block{SectionID: sectionID, Kind: kind, Title: title, Nodes: []Node{}}}
}

// Add appends a node for entry index. Empty text nodes are dropped unless they
// carry items.
func (b *Builder) Add(index int, t NodeType, text string) *Builder {
	text = strings.TrimSpace(text)
	if text == "" {
		return b
	}
	b.block.Nodes = append(b.block.Nodes, Node{ID: NodeID(b.block.SectionID, index), Type: t, Text: text})
	return b
}

func (b *Builder) AddField(index int, label, text string) *Builder {
	text = strings.TrimSpace(text)
	if text == "" {
		return b
	}
	b.block.Nodes = append(b.block.Nodes, Node{ID: NodeID(b.block.SectionID, index), Type: Field, Label: label, Text: text})
	return b
}

func (b *Builder) AddLink(index int, label, href string) *Builder {
	if strings.TrimSpace(href) == "" {
		return b
	}
	b.block.Nodes = append(b.block.Nodes, Node{ID: NodeID(b.block.SectionID, index), Type: Link, Text: label, Href: href})
	return b
}

func (b *Builder) AddItems(index int, t NodeType, items []string) *Builder {
	var kept []string
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			kept = append(kept, it)
		}
	}
	if len(kept) == 0 {
		return b
	}
	b.block.Nodes = append(b.block.Nodes, Node{ID: NodeID(b.block.SectionID, index), Type: t, Items: kept})
	return b
}

func (b *Builder) Degrade() *Builder {
	b.block.Degraded = true
	return b
}

func (b *Builder) Block() Block { return b.block }

// PlaceholderBlock stands in for a section that could not be projected.
func PlaceholderBlock(sectionID, title, reason string) Block {
	return Block{
		SectionID: sectionID,
		Kind:      model.KindOpaque,
		Title:     title,
		Nodes:     []Node{{ID: NodeID(sectionID, 0), Type: Placeholder, Text: reason}},
		Degraded:  true,
	}
}

// FlatText flattens a node into a single line for backends without inline styles.
func (n Node) FlatText() string {
	switch {
	case len(n.Items) > 0:
		return strings.Join(n.Items, " · ")
	case n.Label != "":
		return n.Label + ": " + n.Text
	case n.Type == Link && n.Href != "" && n.Text != "" && n.Text != n.Href:
		return n.Text + " (" + n.Href + ")"
	case n.Text == "" && n.Href != "":
		return n.Href
	}
	return n.Text
}
