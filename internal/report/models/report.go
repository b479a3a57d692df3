// Package models defines the contravention report and its lifecycle states.
package models

import (
	"fmt"
	"strings"
	"time"

	dErrors "contraventions/pkg/domain-errors"

	id "contraventions/pkg/domain"
)

// Status is the closed set of report lifecycle states. Transitions are
// one-directional: PENDING is the only non-terminal state and a report never
// leaves CONFIRMED or DISMISSED.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusDismissed Status = "DISMISSED"
)

// ParseStatus validates a stored status string. Unrecognized values are an
// error, never a silent "unknown" state.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusConfirmed, StatusDismissed:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unrecognized report status %q", s)
	}
}

func (s Status) String() string { return string(s) }

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	switch s {
	case StatusConfirmed, StatusDismissed:
		return true
	case StatusPending:
		return false
	default:
		return false
	}
}

// Location is the informal "room + building" tag a report may carry when no
// durable resident identifier is known.
type Location struct {
	Room     string `json:"room"`
	Building string `json:"building"`
}

// IsZero reports whether the tag carries nothing usable.
func (l Location) IsZero() bool {
	return strings.TrimSpace(l.Room) == "" && strings.TrimSpace(l.Building) == ""
}

// Complete reports whether both parts are present, which is what recidive
// grouping requires.
func (l Location) Complete() bool {
	return strings.TrimSpace(l.Room) != "" && strings.TrimSpace(l.Building) != ""
}

// Report is a single filed contravention.
type Report struct {
	Ref         id.ReportRef   `json:"ref"`
	CreatedAt   time.Time      `json:"createdAt"`
	Description string         `json:"description"`
	Status      Status         `json:"status"`
	MotifLabel  id.MotifLabel  `json:"motifLabel"`
	AuthorID    id.AgentID     `json:"authorId,omitempty"`
	ResidentID  *id.ResidentID `json:"residentId,omitempty"`
	Location    Location       `json:"location"`
	InvoiceRef  *id.InvoiceRef `json:"invoiceRef,omitempty"`
}

// NewReport validates and constructs a pending report.
func NewReport(ref id.ReportRef, motif id.MotifLabel, author id.AgentID, description string, residentID *id.ResidentID, loc Location, now time.Time) (*Report, error) {
	if ref.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "report ref is required")
	}
	if motif.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "motif label is required")
	}
	if residentID != nil && residentID.IsNil() {
		residentID = nil
	}
	return &Report{
		Ref:         ref,
		CreatedAt:   now,
		Description: strings.TrimSpace(description),
		Status:      StatusPending,
		MotifLabel:  motif,
		AuthorID:    author,
		ResidentID:  residentID,
		Location: Location{
			Room:     strings.TrimSpace(loc.Room),
			Building: strings.TrimSpace(loc.Building),
		},
	}, nil
}

// CanTransition returns nil when the report may leave PENDING.
func (r *Report) CanTransition() error {
	if r.Status != StatusPending {
		return dErrors.Newf(dErrors.CodeInvalidState,
			"report %s is %s and cannot transition", r.Ref, r.Status)
	}
	return nil
}

// AppendNote appends a free-text note to the description, matching the
// dismissal contract: informational only, not structured data.
func (r *Report) AppendNote(note string) {
	note = strings.TrimSpace(note)
	if note == "" {
		return
	}
	line := "Dismissal note: " + note
	if r.Description == "" {
		r.Description = line
		return
	}
	r.Description += "\n" + line
}
