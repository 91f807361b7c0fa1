// Package calculator derives display values from a BillState snapshot.
//
// Every function here is pure and stateless: the same snapshot always
// produces the same result, and nothing is memoized. The interesting policy
// is the proportional-division rule in UserShares, which makes over-assigned
// shared items split their value evenly among claimants instead of charging
// each claimant a full unit price.
package calculator

import (
	"math"

	"github.com/amit429/billbreak/internal/models"
)

// ItemShare is one participant's slice of a single item.
type ItemShare struct {
	ItemID   string  `json:"item_id"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Amount   float64 `json:"amount"`
}

// PersonShare is one participant's computed share of the bill.
type PersonShare struct {
	ParticipantID string       `json:"participant_id"`
	Name          string       `json:"name"`
	Color         models.Color `json:"color"`

	// Subtotal is the sum of this person's item share amounts (pre-tax).
	Subtotal float64 `json:"subtotal"`

	// TaxShare and TipShare are proportional to this person's share of
	// assigned value: people who claimed more expensive items absorb more.
	TaxShare float64 `json:"tax_share"`
	TipShare float64 `json:"tip_share"`

	// Total is what this person owes: subtotal + tax share + tip share.
	Total float64 `json:"total"`

	// Items are the claims that make up Subtotal.
	Items []ItemShare `json:"items"`
}

// Subtotal is the pre-tax/tip total of the bill based on listed quantities,
// independent of assignment status.
func Subtotal(s models.BillState) float64 {
	var total float64
	for _, it := range s.Items {
		total += it.Total()
	}
	return total
}

// GrandTotal is the subtotal plus tax and tip.
func GrandTotal(s models.BillState) float64 {
	return Subtotal(s) + s.TaxAmount + s.TipAmount
}

// Progress reports how much of the bill's quantity is claimed, as a
// percentage in [0, 100]. Each item's claimed quantity is clamped to its
// listed quantity so over-assigned shared items count as fully covered
// rather than pushing past 100.
func Progress(s models.BillState) int {
	totalQty := 0
	coveredQty := 0
	for _, it := range s.Items {
		totalQty += it.Quantity
		assigned := it.AssignedQuantity()
		if assigned > it.Quantity {
			assigned = it.Quantity
		}
		coveredQty += assigned
	}
	if totalQty == 0 {
		return 0
	}
	return int(math.Round(float64(coveredQty) / float64(totalQty) * 100))
}

// IsReady reports whether the bill can show results: at least one item, at
// least one participant, and every item at least partially claimed. Partial
// coverage is deliberately tolerated; full coverage is visible through
// Progress instead.
func IsReady(s models.BillState) bool {
	if len(s.Items) == 0 || len(s.Participants) == 0 {
		return false
	}
	for _, it := range s.Items {
		if it.AssignedQuantity() == 0 {
			return false
		}
	}
	return true
}

// UserShares computes the per-participant breakdown for the snapshot, keyed
// by participant id. Every participant gets an entry, including those with
// no claims.
//
// For each claim with quantity > 0:
//
//	share = item_total × (claimed_qty / total_claimed_qty_on_item)
//
// When an item is exactly fully assigned this reduces to unit price times
// the claimed quantity. When claims exceed the item quantity (a shared
// item, quantity 1 each for N people) it divides the item's true value
// evenly among the claimants. Tax and tip are then distributed by each
// participant's share of the assigned value.
func UserShares(s models.BillState) map[string]*PersonShare {
	shares := make(map[string]*PersonShare, len(s.Participants))
	for _, p := range s.Participants {
		shares[p.ID] = &PersonShare{
			ParticipantID: p.ID,
			Name:          p.Name,
			Color:         p.Color,
		}
	}

	for _, it := range s.Items {
		totalAssigned := it.AssignedQuantity()
		if totalAssigned == 0 {
			continue
		}
		itemTotal := it.Total()
		for _, a := range it.Assignments {
			if a.Quantity <= 0 {
				continue
			}
			share, ok := shares[a.ParticipantID]
			if !ok {
				continue
			}
			amount := itemTotal * float64(a.Quantity) / float64(totalAssigned)
			share.Subtotal += amount
			share.Items = append(share.Items, ItemShare{
				ItemID:   it.ID,
				Name:     it.Name,
				Quantity: a.Quantity,
				Amount:   amount,
			})
		}
	}

	billSubtotal := Subtotal(s)
	for _, share := range shares {
		ratio := 0.0
		if billSubtotal != 0 {
			ratio = share.Subtotal / billSubtotal
		}
		share.TaxShare = s.TaxAmount * ratio
		share.TipShare = s.TipAmount * ratio
		share.Total = share.Subtotal + share.TaxShare + share.TipShare
	}
	return shares
}
