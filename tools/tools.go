// Package tools provides small record-keeping and presentation helpers
// built on top of the mutation and shadowtree packages: a per-tag
// mutation history tracker and a pretty/JSON stringifier for mutation
// lists, used by the CLI's inspect command.
package tools

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/leowmjw/shadowdiff/mutation"
	"github.com/leowmjw/shadowdiff/shadowtree"
)

// HistoryEntry is one recorded mutation against a tag, stamped with the
// revision it occurred in.
type HistoryEntry struct {
	Revision int64
	Type     mutation.Type
	View     shadowtree.View
}

// MutationHistory tracks, per tag, the sequence of mutations applied to
// it across revisions. It is purely additive bookkeeping; it never
// reaches back into the differ or an applier.
type MutationHistory struct {
	entries map[shadowtree.Tag][]HistoryEntry
}

// NewMutationHistory creates an empty history tracker.
func NewMutationHistory() *MutationHistory {
	return &MutationHistory{entries: make(map[shadowtree.Tag][]HistoryEntry)}
}

// Record appends revision's mutations to each mutation's subject tag's
// history.
func (h *MutationHistory) Record(revision int64, muts mutation.List) {
	for _, m := range muts {
		tag := m.NewChildView.Tag
		view := m.NewChildView
		if m.Type == mutation.Delete || m.Type == mutation.Remove {
			tag = m.OldChildView.Tag
			view = m.OldChildView
		}
		h.entries[tag] = append(h.entries[tag], HistoryEntry{Revision: revision, Type: m.Type, View: view})
	}
}

// For returns the recorded history for tag, oldest first.
func (h *MutationHistory) For(tag shadowtree.Tag) []HistoryEntry {
	return h.entries[tag]
}

// Format selects the rendering Stringify uses.
type Format int

const (
	// JSONLines renders one JSON object per mutation, one per line.
	JSONLines Format = iota
	// Pretty renders a human-readable one-line-per-mutation summary.
	Pretty
)

// Stringifier renders a mutation.List for CLI output or log lines.
type Stringifier struct {
	format Format
}

// NewStringifier creates a Stringifier using format.
func NewStringifier(format Format) *Stringifier {
	return &Stringifier{format: format}
}

// Stringify renders muts according to the Stringifier's format.
func (s *Stringifier) Stringify(muts mutation.List) string {
	switch s.format {
	case JSONLines:
		return s.stringifyJSONLines(muts)
	default:
		return s.stringifyPretty(muts)
	}
}

func (s *Stringifier) stringifyJSONLines(muts mutation.List) string {
	var b strings.Builder
	for _, m := range muts {
		line, err := json.Marshal(m)
		if err != nil {
			continue
		}
		b.Write(line)
		b.WriteByte('\n')
	}
	return b.String()
}

func (s *Stringifier) stringifyPretty(muts mutation.List) string {
	var b strings.Builder
	for _, m := range muts {
		switch m.Type {
		case mutation.Create:
			fmt.Fprintf(&b, "Create   tag=%d component=%s\n", m.NewChildView.Tag, m.NewChildView.ComponentName)
		case mutation.Delete:
			fmt.Fprintf(&b, "Delete   tag=%d component=%s\n", m.OldChildView.Tag, m.OldChildView.ComponentName)
		case mutation.Insert:
			fmt.Fprintf(&b, "Insert   tag=%d into=%d index=%d\n", m.NewChildView.Tag, m.ParentView.Tag, m.Index)
		case mutation.Remove:
			fmt.Fprintf(&b, "Remove   tag=%d from=%d index=%d\n", m.OldChildView.Tag, m.ParentView.Tag, m.Index)
		case mutation.Update:
			fmt.Fprintf(&b, "Update   tag=%d\n", m.OldChildView.Tag)
		}
	}
	return b.String()
}
