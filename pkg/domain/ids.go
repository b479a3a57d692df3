// Package domain defines the typed identifiers shared across modules.
//
// Identifiers are distinct string types rather than bare strings so the
// compiler rejects accidental cross-assignment (a report ref passed where an
// invoice ref is expected, and so on).
package domain

import (
	"errors"
	"strings"
)

// ReportRef is the immutable public reference of a contravention report,
// e.g. "CTR-5F3A2B1C". Assigned once at creation and never reused.
type ReportRef string

func (r ReportRef) String() string { return string(r) }

// IsNil reports whether the ref is unset.
func (r ReportRef) IsNil() bool { return r == "" }

// InvoiceRef is the public reference of an issued invoice,
// e.g. "FAC-CTR-5F3A2B1C-9D41E07A".
type InvoiceRef string

func (r InvoiceRef) String() string { return string(r) }

func (r InvoiceRef) IsNil() bool { return r == "" }

// MotifLabel identifies a violation type in the motif catalog. Labels are
// unique and matched exactly (case-sensitive), as the catalog is the single
// writer of its own labels.
type MotifLabel string

func (l MotifLabel) String() string { return string(l) }

func (l MotifLabel) IsNil() bool { return l == "" }

// ParseMotifLabel trims surrounding whitespace and rejects empty labels.
func ParseMotifLabel(s string) (MotifLabel, error) {
	label := MotifLabel(strings.TrimSpace(s))
	if label.IsNil() {
		return "", errors.New("motif label is empty")
	}
	return label, nil
}

// ResidentID is the durable identifier of a resident known to the housing
// administration. Reports may carry one; when they do, it is authoritative
// for recidive grouping.
type ResidentID string

func (id ResidentID) String() string { return string(id) }

func (id ResidentID) IsNil() bool { return id == "" }

// AgentID identifies the field agent who authored a report.
type AgentID string

func (id AgentID) String() string { return string(id) }

func (id AgentID) IsNil() bool { return id == "" }
