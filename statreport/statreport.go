// Package statreport provides a hierarchical byte-count report for the
// dictionary's components (bit vectors, int vectors, tail store, code
// table), grounded on the teacher's utils.MemReport but rendered with
// human-readable sizes via go-humanize instead of raw byte counts.
package statreport

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// Report is one node of a memory breakdown tree.
type Report struct {
	Name       string   `json:"name"`
	TotalBytes uint64   `json:"total_bytes"`
	Children   []Report `json:"children,omitempty"`
}

// New builds a leaf report.
func New(name string, bytes uint64) Report {
	return Report{Name: name, TotalBytes: bytes}
}

// WithChildren attaches children and sums their bytes into the parent's
// total, so callers only need to supply component totals once.
func WithChildren(name string, children ...Report) Report {
	var total uint64
	for _, c := range children {
		total += c.TotalBytes
	}
	return Report{Name: name, TotalBytes: total, Children: children}
}

// JSON returns a JSON representation of the tree.
func (r Report) JSON() string {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(b)
}

// String renders the tree with human-readable sizes, one line per node.
func (r Report) String() string {
	var sb strings.Builder
	r.buildString(&sb, 0)
	return sb.String()
}

func (r Report) buildString(sb *strings.Builder, indent int) {
	prefix := strings.Repeat("  ", indent)
	fmt.Fprintf(sb, "%s- %s: %s\n", prefix, r.Name, humanize.Bytes(r.TotalBytes))
	for _, child := range r.Children {
		child.buildString(sb, indent+1)
	}
}
