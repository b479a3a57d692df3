package handler

import (
	"time"

	invoicemodels "contraventions/internal/invoice/models"
	"contraventions/internal/report/models"
	"contraventions/internal/report/service"
)

// ReportResponse is the wire shape of a report.
type ReportResponse struct {
	Ref         string    `json:"ref"`
	CreatedAt   time.Time `json:"createdAt"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Motif       string    `json:"motif"`
	AuthorID    string    `json:"authorId,omitempty"`
	ResidentID  string    `json:"residentId,omitempty"`
	Room        string    `json:"room,omitempty"`
	Building    string    `json:"building,omitempty"`
	InvoiceRef  string    `json:"invoiceRef,omitempty"`
}

func fromReport(r *models.Report) ReportResponse {
	resp := ReportResponse{
		Ref:         r.Ref.String(),
		CreatedAt:   r.CreatedAt,
		Description: r.Description,
		Status:      r.Status.String(),
		Motif:       r.MotifLabel.String(),
		AuthorID:    r.AuthorID.String(),
		Room:        r.Location.Room,
		Building:    r.Location.Building,
	}
	if r.ResidentID != nil {
		resp.ResidentID = r.ResidentID.String()
	}
	if r.InvoiceRef != nil {
		resp.InvoiceRef = r.InvoiceRef.String()
	}
	return resp
}

func fromReports(reports []*models.Report) []ReportResponse {
	out := make([]ReportResponse, len(reports))
	for i, r := range reports {
		out[i] = fromReport(r)
	}
	return out
}

// InvoiceResponse is the wire shape of an issued invoice.
type InvoiceResponse struct {
	Ref           string    `json:"ref"`
	ReportRef     string    `json:"reportRef"`
	CreatedAt     time.Time `json:"createdAt"`
	Amount        int64     `json:"amount"`
	PaymentStatus string    `json:"paymentStatus"`
	DocumentRef   string    `json:"documentRef"`
}

func fromInvoice(inv *invoicemodels.Invoice) InvoiceResponse {
	return InvoiceResponse{
		Ref:           inv.Ref.String(),
		ReportRef:     inv.ReportRef.String(),
		CreatedAt:     inv.CreatedAt,
		Amount:        inv.Amount,
		PaymentStatus: string(inv.PaymentStatus),
		DocumentRef:   inv.DocumentRef,
	}
}

// ConfirmResponse is the outcome of a confirmation.
type ConfirmResponse struct {
	Report     ReportResponse  `json:"report"`
	Invoice    InvoiceResponse `json:"invoice"`
	Occurrence int             `json:"occurrence"`
}

func fromConfirmResult(result *service.ConfirmResult) ConfirmResponse {
	return ConfirmResponse{
		Report:     fromReport(result.Report),
		Invoice:    fromInvoice(result.Invoice),
		Occurrence: result.Occurrence,
	}
}

// PreviewResponse is the recidive standing for a party and motif.
type PreviewResponse struct {
	PreviousCount  int      `json:"previousCount"`
	NextOccurrence int      `json:"nextOccurrence"`
	NextAmount     *int64   `json:"nextAmount"`
	Tiers          []*int64 `json:"tiers"`
}

func fromPreview(p *service.Preview) PreviewResponse {
	return PreviewResponse{
		PreviousCount:  p.PreviousCount,
		NextOccurrence: p.NextOccurrence,
		NextAmount:     p.NextAmount,
		Tiers:          p.Tiers[:],
	}
}
