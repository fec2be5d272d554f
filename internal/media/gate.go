// Package media decides when a conversation's gallery and invoice are
// visible and provides the circular photo viewer used to browse them.
package media

import (
	"sort"

	"github.com/capitalize-ai/conversation-handoff/internal/model"
)

// GalleryView is the gallery panel of a conversation.
type GalleryView struct {
	Locked bool                 `json:"locked"`
	Photos []model.GalleryPhoto `json:"photos,omitempty"`
}

// InvoiceView is the invoice panel of a conversation.
type InvoiceView struct {
	Locked  bool           `json:"locked"`
	Invoice *model.Invoice `json:"invoice,omitempty"`
}

// Gallery unlocks the gallery when the conversation has photos and returns
// them best first: editors' choice, then approved, then not approved, most
// recent upload first within a status. Ties keep their original order.
func Gallery(conv model.Conversation) GalleryView {
	if len(conv.Gallery) == 0 {
		return GalleryView{Locked: true}
	}

	photos := make([]model.GalleryPhoto, len(conv.Gallery))
	copy(photos, conv.Gallery)

	sort.SliceStable(photos, func(i, j int) bool {
		pi, pj := photos[i].ReviewStatus.Priority(), photos[j].ReviewStatus.Priority()
		if pi != pj {
			return pi > pj
		}
		return photos[i].UploadedAt.After(photos[j].UploadedAt)
	})

	return GalleryView{Photos: photos}
}

// Invoice unlocks the invoice when the conversation carries one.
func Invoice(conv model.Conversation) InvoiceView {
	if conv.Invoice == nil {
		return InvoiceView{Locked: true}
	}
	inv := *conv.Invoice
	return InvoiceView{Invoice: &inv}
}
