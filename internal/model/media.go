package model

import (
	"time"
)

// ReviewStatus is the moderation outcome of a gallery photo.
type ReviewStatus string

const (
	ReviewEditorsChoice ReviewStatus = "editors_choice"
	ReviewApproved      ReviewStatus = "approved"
	ReviewNotApproved   ReviewStatus = "not_approved"
)

// Priority ranks review statuses for display; higher sorts first.
func (s ReviewStatus) Priority() int {
	switch s {
	case ReviewEditorsChoice:
		return 3
	case ReviewApproved:
		return 2
	case ReviewNotApproved:
		return 1
	default:
		return 0
	}
}

// GalleryPhoto is one photo from an event gallery.
type GalleryPhoto struct {
	ID           string       `json:"id" yaml:"id"`
	FullURL      string       `json:"full_url" yaml:"full_url"`
	ThumbnailURL string       `json:"thumbnail_url" yaml:"thumbnail_url"`
	Caption      string       `json:"caption,omitempty" yaml:"caption,omitempty"`
	UploadedAt   time.Time    `json:"uploaded_at" yaml:"uploaded_at"`
	ReviewStatus ReviewStatus `json:"review_status" yaml:"review_status"`
}

// InvoiceStatus is the payment state of an invoice.
type InvoiceStatus string

const (
	InvoicePending InvoiceStatus = "pending"
	InvoicePaid    InvoiceStatus = "paid"
	InvoiceOverdue InvoiceStatus = "overdue"
)

// Invoice is the billing document attached to a booking.
type Invoice struct {
	ID         string        `json:"id" yaml:"id"`
	BookingRef string        `json:"booking_ref" yaml:"booking_ref"`
	Amount     string        `json:"amount" yaml:"amount"`
	Status     InvoiceStatus `json:"status" yaml:"status"`
	IssueDate  time.Time     `json:"issue_date" yaml:"issue_date"`
	DueDate    time.Time     `json:"due_date" yaml:"due_date"`
	LineItems  []string      `json:"line_items" yaml:"line_items"`
}
