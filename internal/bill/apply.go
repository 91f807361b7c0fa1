package bill

import (
	"github.com/google/uuid"

	"github.com/amit429/billbreak/internal/models"
)

// Apply runs one transition against a snapshot and returns the new snapshot.
// The input state is never mutated; untouched slices are shared between old
// and new snapshots.
func Apply(s models.BillState, op Op) models.BillState {
	switch op := op.(type) {
	case AddParticipant:
		return applyAddParticipant(s, op)
	case RemoveParticipant:
		return applyRemoveParticipant(s, op)
	case AddItem:
		return applyAddItem(s, op)
	case RemoveItem:
		return applyRemoveItem(s, op)
	case UpdateItem:
		return applyUpdateItem(s, op)
	case Assign:
		return applyAssign(s, op)
	case Unassign:
		return applyUnassign(s, op)
	case Toggle:
		return applyToggle(s, op)
	case AssignAll:
		return applyAssignAll(s, op)
	case UnassignAll:
		return applyUnassignAll(s, op)
	case SetTax:
		s.TaxAmount = op.Amount
		return s
	case SetTip:
		s.TipAmount = op.Amount
		return s
	case SelectItem:
		return applySelectItem(s, op)
	case Reset:
		return models.BillState{}
	case Load:
		return models.BillState{
			Items:        op.Items,
			Participants: op.Participants,
			TaxAmount:    op.TaxAmount,
		}
	default:
		// Op is a closed set; an unknown variant is a programming error.
		panic("bill: unknown op")
	}
}

func applyAddParticipant(s models.BillState, op AddParticipant) models.BillState {
	p := models.Participant{
		ID:    uuid.NewString(),
		Name:  op.Name,
		Color: models.NextColor(len(s.Participants)),
	}
	s.Participants = appendParticipant(s.Participants, p)
	return s
}

func applyRemoveParticipant(s models.BillState, op RemoveParticipant) models.BillState {
	found := false
	participants := make([]models.Participant, 0, len(s.Participants))
	for _, p := range s.Participants {
		if p.ID == op.ID {
			found = true
			continue
		}
		participants = append(participants, p)
	}
	if !found {
		return s
	}
	s.Participants = participants

	// Cascade: strip the removed participant's records from every item.
	items := make([]models.LineItem, len(s.Items))
	for i, it := range s.Items {
		items[i] = it
		if _, ok := it.AssignmentFor(op.ID); !ok {
			continue
		}
		records := make([]models.AssignmentRecord, 0, len(it.Assignments)-1)
		for _, a := range it.Assignments {
			if a.ParticipantID != op.ID {
				records = append(records, a)
			}
		}
		items[i].Assignments = records
	}
	s.Items = items
	return s
}

func applyAddItem(s models.BillState, op AddItem) models.BillState {
	qty := op.Quantity
	if qty == 0 {
		qty = 1
	}
	it := models.LineItem{
		ID:        uuid.NewString(),
		Name:      op.Name,
		UnitPrice: op.UnitPrice,
		Quantity:  qty,
	}
	s.Items = appendItem(s.Items, it)
	return s
}

func applyRemoveItem(s models.BillState, op RemoveItem) models.BillState {
	items := make([]models.LineItem, 0, len(s.Items))
	for _, it := range s.Items {
		if it.ID != op.ID {
			items = append(items, it)
		}
	}
	s.Items = items
	if s.SelectedItemID == op.ID {
		s.SelectedItemID = ""
	}
	return s
}

func applyUpdateItem(s models.BillState, op UpdateItem) models.BillState {
	return replaceItem(s, op.ID, func(it models.LineItem) models.LineItem {
		if op.Name != nil {
			it.Name = *op.Name
		}
		if op.UnitPrice != nil {
			it.UnitPrice = *op.UnitPrice
		}
		if op.Quantity != nil {
			it.Quantity = *op.Quantity
		}
		return it
	})
}

func applyAssign(s models.BillState, op Assign) models.BillState {
	if !s.HasParticipant(op.ParticipantID) || op.Quantity < 0 {
		return s
	}
	return replaceItem(s, op.ItemID, func(it models.LineItem) models.LineItem {
		it.Assignments = upsertRecord(it.Assignments, op.ParticipantID, op.Quantity)
		return it
	})
}

func applyUnassign(s models.BillState, op Unassign) models.BillState {
	return replaceItem(s, op.ItemID, func(it models.LineItem) models.LineItem {
		it.Assignments = removeRecord(it.Assignments, op.ParticipantID)
		return it
	})
}

func applyToggle(s models.BillState, op Toggle) models.BillState {
	if !s.HasParticipant(op.ParticipantID) {
		return s
	}
	return replaceItem(s, op.ItemID, func(it models.LineItem) models.LineItem {
		if _, ok := it.AssignmentFor(op.ParticipantID); ok {
			it.Assignments = removeRecord(it.Assignments, op.ParticipantID)
			return it
		}
		qty := 1
		if it.Quantity > 1 {
			if remaining := it.Quantity - it.AssignedQuantity(); remaining > 1 {
				qty = remaining
			}
		}
		it.Assignments = upsertRecord(it.Assignments, op.ParticipantID, qty)
		return it
	})
}

func applyAssignAll(s models.BillState, op AssignAll) models.BillState {
	count := len(s.Participants)
	if count == 0 {
		return s
	}
	return replaceItem(s, op.ItemID, func(it models.LineItem) models.LineItem {
		records := make([]models.AssignmentRecord, count)
		if it.Quantity >= count {
			// Divide as evenly as possible: the first quantity%count
			// participants take one extra unit, so the distributed sum
			// equals the item quantity exactly.
			base := it.Quantity / count
			remainder := it.Quantity % count
			for i, p := range s.Participants {
				qty := base
				if i < remainder {
					qty++
				}
				records[i] = models.AssignmentRecord{ParticipantID: p.ID, Quantity: qty}
			}
		} else {
			// Shared item: everyone claims 1 regardless of the item's
			// actual quantity. The claimed sum exceeds the quantity on
			// purpose; the calculator divides the item's value evenly
			// among claimants.
			for i, p := range s.Participants {
				records[i] = models.AssignmentRecord{ParticipantID: p.ID, Quantity: 1}
			}
		}
		it.Assignments = records
		return it
	})
}

func applyUnassignAll(s models.BillState, op UnassignAll) models.BillState {
	return replaceItem(s, op.ItemID, func(it models.LineItem) models.LineItem {
		it.Assignments = nil
		return it
	})
}

func applySelectItem(s models.BillState, op SelectItem) models.BillState {
	if op.ID == "" {
		s.SelectedItemID = ""
		return s
	}
	if _, ok := s.Item(op.ID); !ok {
		return s
	}
	s.SelectedItemID = op.ID
	return s
}

// replaceItem rebuilds the item slice with fn applied to the matching item.
// Unknown ids leave the state unchanged.
func replaceItem(s models.BillState, itemID string, fn func(models.LineItem) models.LineItem) models.BillState {
	idx := -1
	for i, it := range s.Items {
		if it.ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return s
	}
	items := make([]models.LineItem, len(s.Items))
	copy(items, s.Items)
	items[idx] = fn(items[idx])
	s.Items = items
	return s
}

func upsertRecord(records []models.AssignmentRecord, participantID string, qty int) []models.AssignmentRecord {
	out := make([]models.AssignmentRecord, len(records))
	copy(out, records)
	for i, a := range out {
		if a.ParticipantID == participantID {
			out[i].Quantity = qty
			return out
		}
	}
	return append(out, models.AssignmentRecord{ParticipantID: participantID, Quantity: qty})
}

func removeRecord(records []models.AssignmentRecord, participantID string) []models.AssignmentRecord {
	out := make([]models.AssignmentRecord, 0, len(records))
	for _, a := range records {
		if a.ParticipantID != participantID {
			out = append(out, a)
		}
	}
	return out
}

func appendParticipant(participants []models.Participant, p models.Participant) []models.Participant {
	out := make([]models.Participant, len(participants), len(participants)+1)
	copy(out, participants)
	return append(out, p)
}

func appendItem(items []models.LineItem, it models.LineItem) []models.LineItem {
	out := make([]models.LineItem, len(items), len(items)+1)
	copy(out, items)
	return append(out, it)
}
