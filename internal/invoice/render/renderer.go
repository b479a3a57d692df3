// Package render produces the human-readable invoice document. Rendering is
// a collaborator call: the confirmation flow treats any failure here as
// reason to abort with no state change.
package render

import (
	"context"
	"time"
)

// Input is the deterministic input used for invoice rendering.
type Input struct {
	InvoiceRef  string
	ReportRef   string
	MotifLabel  string
	Description string
	Occurrence  int
	Amount      int64
	IssuedAt    time.Time
	Identity    IdentityView
}

// IdentityView is the resolved display identity of the billed party: the
// residency directory entry when one exists, otherwise a generic location
// or resident label.
type IdentityView struct {
	DisplayName string
	Address     string
}

// Renderer writes the invoice document and returns the reference under which
// it can later be retrieved.
type Renderer interface {
	Render(ctx context.Context, in Input) (documentRef string, err error)
}
