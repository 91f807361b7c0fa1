package models

// AssignmentRecord is a claim by one participant on some quantity of one
// item. At most one record exists per (item, participant) pair; the bill
// package enforces this with upsert semantics.
type AssignmentRecord struct {
	// ParticipantID references a Participant in the same BillState.
	// Removing that participant cascades to remove this record.
	ParticipantID string `json:"participant_id"`

	// Quantity is the number of units claimed. Never negative. It may be
	// zero (a present-but-empty claim) and the sum of claims on an item may
	// exceed the item's quantity: that is how shared items are modeled, and
	// the calculator's proportional rule turns it into an even split of the
	// item's value.
	Quantity int `json:"quantity"`
}

// LineItem represents one priced, quantified entry on the bill.
type LineItem struct {
	// ID is the unique identifier for the item (UUID format).
	ID string `json:"id"`

	// Name is the item description (e.g., "Pizza", "Coke").
	Name string `json:"name"`

	// UnitPrice is the price of a single unit. Never negative; the HTTP
	// boundary clamps input before it reaches here.
	UnitPrice float64 `json:"unit_price"`

	// Quantity is the number of units listed on the receipt. Always >= 1.
	Quantity int `json:"quantity"`

	// Assignments are the participant claims on this item, in claim order.
	Assignments []AssignmentRecord `json:"assignments"`
}

// Total is the item's full value: unit price times listed quantity.
func (it LineItem) Total() float64 {
	return it.UnitPrice * float64(it.Quantity)
}

// AssignedQuantity is the sum of all claimed quantities on the item. It may
// exceed it.Quantity for shared items.
func (it LineItem) AssignedQuantity() int {
	total := 0
	for _, a := range it.Assignments {
		total += a.Quantity
	}
	return total
}

// AssignmentFor returns the record for the given participant and whether one
// exists.
func (it LineItem) AssignmentFor(participantID string) (AssignmentRecord, bool) {
	for _, a := range it.Assignments {
		if a.ParticipantID == participantID {
			return a, true
		}
	}
	return AssignmentRecord{}, false
}

// BillState is the aggregate root for one splitting session: the single
// source of truth from which all display values are derived.
type BillState struct {
	// Items are the line items on the bill, in display order.
	Items []LineItem `json:"items"`

	// Participants are the people splitting the bill, in the order they
	// were added. Order matters: assign-all hands remainder units to the
	// earliest participants.
	Participants []Participant `json:"participants"`

	// TaxAmount is the total tax on the bill, distributed proportionally
	// to each participant's share of assigned value.
	TaxAmount float64 `json:"tax_amount"`

	// TipAmount is the tip, distributed the same way as tax.
	TipAmount float64 `json:"tip_amount"`

	// SelectedItemID references the item currently focused in the UI, or
	// "" when nothing is selected. Cleared when the referenced item is
	// removed.
	SelectedItemID string `json:"selected_item_id,omitempty"`
}

// Item returns the item with the given id and whether it exists.
func (s BillState) Item(id string) (LineItem, bool) {
	for _, it := range s.Items {
		if it.ID == id {
			return it, true
		}
	}
	return LineItem{}, false
}

// HasParticipant reports whether a participant with the given id exists.
func (s BillState) HasParticipant(id string) bool {
	for _, p := range s.Participants {
		if p.ID == id {
			return true
		}
	}
	return false
}
