// Package models defines the invoice ("facture") produced when a report is
// confirmed.
package models

import (
	"time"

	id "contraventions/pkg/domain"
)

// PaymentStatus is the closed set of invoice payment states. Invoices start
// unpaid; payment handling lives outside this service.
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "UNPAID"
	PaymentPaid   PaymentStatus = "PAID"
)

// Invoice is the billing record for one confirmed report. Everything except
// PaymentStatus is immutable after creation; Amount in particular is never
// recomputed.
type Invoice struct {
	Ref           id.InvoiceRef `json:"ref"`
	ReportRef     id.ReportRef  `json:"reportRef"`
	CreatedAt     time.Time     `json:"createdAt"`
	Amount        int64         `json:"amount"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	DocumentRef   string        `json:"documentRef"`
}
