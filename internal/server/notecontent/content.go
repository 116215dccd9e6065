// Package notecontent interprets a note body according to its kind. A
// document body is a rich-text node tree, a board body is a node/edge graph;
// both are stored as JSON text.
package notecontent

import (
	"encoding/json"
	"strings"

	"github.com/hubpessoal/hub/internal/common"
	"github.com/hubpessoal/hub/internal/server/models"
	"github.com/tidwall/gjson"
)

// Content is either a *Document or a *Board.
type Content interface {
	Kind() models.NoteKind
	isContent()
}

// Node is one element of a rich-text tree. Unknown attributes and marks are
// carried through untouched.
type Node struct {
	Type    string          `json:"type"`
	Text    string          `json:"text,omitempty"`
	Attrs   json.RawMessage `json:"attrs,omitempty"`
	Marks   json.RawMessage `json:"marks,omitempty"`
	Content []Node          `json:"content,omitempty"`
}

type Document struct {
	Type    string `json:"type"`
	Content []Node `json:"content"`
}

func (*Document) Kind() models.NoteKind { return models.NoteDocument }
func (*Document) isContent()            {}

// Board keeps nodes and edges as raw JSON so editor-specific fields
// (positions, styles, handles) survive a round trip.
type Board struct {
	Nodes []json.RawMessage `json:"nodes"`
	Edges []json.RawMessage `json:"edges"`
}

func (*Board) Kind() models.NoteKind { return models.NoteBoard }
func (*Board) isContent()            {}

func emptyDocument() *Document {
	return &Document{Type: "doc", Content: []Node{}}
}

func textDocument(text string) *Document {
	return &Document{Type: "doc", Content: []Node{{
		Type:    "paragraph",
		Content: []Node{{Type: "text", Text: text}},
	}}}
}

func emptyBoard() *Board {
	return &Board{Nodes: []json.RawMessage{}, Edges: []json.RawMessage{}}
}

// Parse interprets body for kind. Documents are lenient: an empty body is
// an empty document and anything that is not a JSON object becomes a single
// paragraph holding the raw text. Boards must be a JSON object with nodes
// and edges arrays; every node needs an id and every edge a source and a
// target.
func Parse(kind models.NoteKind, body string) (Content, error) {
	switch kind {
	case models.NoteDocument:
		return parseDocument(body), nil
	case models.NoteBoard:
		return parseBoard(body)
	default:
		return nil, common.NewValidationError("unknown note type")
	}
}

// View is Parse for reading stored rows: a board that fails validation is
// shown as an empty board instead of failing the listing.
func View(kind models.NoteKind, body string) Content {
	c, err := Parse(kind, body)
	if err != nil {
		if kind == models.NoteBoard {
			return emptyBoard()
		}
		return parseDocument(body)
	}
	return c
}

// Encode serialises c into the stored body form.
func Encode(c Content) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func parseDocument(body string) *Document {
	if strings.TrimSpace(body) == "" {
		return emptyDocument()
	}
	if !isJSONObject(body) {
		return textDocument(body)
	}

	doc := &Document{}
	if err := json.Unmarshal([]byte(body), doc); err != nil {
		return textDocument(body)
	}
	if doc.Type == "" {
		doc.Type = "doc"
	}
	if doc.Content == nil {
		doc.Content = []Node{}
	}
	return doc
}

func parseBoard(body string) (*Board, error) {
	if strings.TrimSpace(body) == "" {
		return emptyBoard(), nil
	}
	if !isJSONObject(body) {
		return nil, common.NewValidationError("board content must be a JSON object")
	}

	nodes := gjson.Get(body, "nodes")
	edges := gjson.Get(body, "edges")
	if !nodes.IsArray() || !edges.IsArray() {
		return nil, common.NewValidationError("board content needs nodes and edges arrays")
	}

	board := emptyBoard()
	for _, n := range nodes.Array() {
		if !n.IsObject() || n.Get("id").String() == "" {
			return nil, common.NewValidationError("every board node needs an id")
		}
		board.Nodes = append(board.Nodes, json.RawMessage(n.Raw))
	}
	for _, e := range edges.Array() {
		if !e.IsObject() || e.Get("source").String() == "" || e.Get("target").String() == "" {
			return nil, common.NewValidationError("every board edge needs a source and a target")
		}
		board.Edges = append(board.Edges, json.RawMessage(e.Raw))
	}
	return board, nil
}

func isJSONObject(s string) bool {
	return gjson.Valid(s) && gjson.Parse(s).IsObject()
}
