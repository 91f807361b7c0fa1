package server

import (
	"github.com/amit429/billbreak/internal/calculator"
	"github.com/amit429/billbreak/internal/models"
)

type addParticipantRequest struct {
	Name string `json:"name" validate:"required"`
}

type addItemRequest struct {
	Name      string  `json:"name" validate:"required"`
	UnitPrice float64 `json:"unit_price" validate:"gte=0"`
	// Quantity 0 means unspecified and defaults to 1.
	Quantity int `json:"quantity" validate:"gte=0"`
}

type updateItemRequest struct {
	Name      *string  `json:"name,omitempty"`
	UnitPrice *float64 `json:"unit_price,omitempty" validate:"omitempty,gte=0"`
	Quantity  *int     `json:"quantity,omitempty" validate:"omitempty,gte=1"`
}

type assignRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

type toggleRequest struct {
	ParticipantID string `json:"participant_id" validate:"required"`
}

type amountRequest struct {
	Amount float64 `json:"amount" validate:"gte=0"`
}

type loadItem struct {
	Name      string  `json:"name" validate:"required"`
	UnitPrice float64 `json:"unit_price" validate:"gte=0"`
	Quantity  int     `json:"quantity" validate:"gte=1"`
}

type loadRequest struct {
	Items        []loadItem `json:"items" validate:"required,min=1,dive"`
	Participants []string   `json:"participants" validate:"dive,required"`
	TaxAmount    float64    `json:"tax_amount" validate:"gte=0"`
}

type parseReceiptRequest struct {
	// ImageBase64 is the receipt image, standard base64 without a data URL
	// prefix.
	ImageBase64 string `json:"image_base64" validate:"required"`
	MimeType    string `json:"mime_type"`
}

// snapshotResponse is returned by every read and every mutation: the new
// state plus all derived values, so the UI re-renders from one response.
type snapshotResponse struct {
	SessionID  string                    `json:"session_id"`
	State      models.BillState          `json:"state"`
	Progress   int                       `json:"progress"`
	Subtotal   float64                   `json:"subtotal"`
	GrandTotal float64                   `json:"grand_total"`
	Ready      bool                      `json:"ready"`
	Shares     []*calculator.PersonShare `json:"shares"`
}

// snapshot derives the response for a state. Shares come back in participant
// order, not map order.
func snapshot(sessionID string, state models.BillState) snapshotResponse {
	byID := calculator.UserShares(state)
	shares := make([]*calculator.PersonShare, 0, len(state.Participants))
	for _, p := range state.Participants {
		if share, ok := byID[p.ID]; ok {
			shares = append(shares, share)
		}
	}
	return snapshotResponse{
		SessionID:  sessionID,
		State:      state,
		Progress:   calculator.Progress(state),
		Subtotal:   calculator.Subtotal(state),
		GrandTotal: calculator.GrandTotal(state),
		Ready:      calculator.IsReady(state),
		Shares:     shares,
	}
}
