// Package bill implements the assignment store: a fixed set of transitions
// over BillState, each applied as a pure function that returns a new
// snapshot.
//
// Transitions are modeled as a closed set of Op variants dispatched
// exhaustively by Apply. Adding an operation means adding a variant here and
// a case there; the compile-time marker method keeps outside packages from
// introducing variants Apply does not know about.
//
// No transition can fail in a caller-visible way: operations referencing
// unknown ids are no-ops, because the UI only ever issues operations against
// ids it currently displays.
package bill

import "github.com/amit429/billbreak/internal/models"

// Op is one assignment-store transition. The concrete types below are the
// only implementations.
type Op interface {
	isOp()
}

// AddParticipant appends a participant with a generated id and the next
// palette color.
type AddParticipant struct {
	Name string
}

// RemoveParticipant removes the participant and strips every assignment
// record referencing it. Idempotent when the id is unknown.
type RemoveParticipant struct {
	ID string
}

// AddItem appends a line item with no assignments. A zero Quantity means
// unspecified and defaults to 1.
type AddItem struct {
	Name      string
	UnitPrice float64
	Quantity  int
}

// RemoveItem removes the item and clears the selection if it pointed at it.
type RemoveItem struct {
	ID string
}

// UpdateItem shallow-merges the non-nil fields into the item. Existing
// assignments are left untouched, even when Quantity shrinks below what is
// already claimed; the calculator clamps at display time.
type UpdateItem struct {
	ID        string
	Name      *string
	UnitPrice *float64
	Quantity  *int
}

// Assign upserts the (item, participant) record to exactly Quantity,
// replacing any prior value rather than adding to it. Quantity 0 leaves an
// empty claim in place; use Unassign for true removal.
type Assign struct {
	ItemID        string
	ParticipantID string
	Quantity      int
}

// Unassign removes the participant's record from the item entirely.
type Unassign struct {
	ItemID        string
	ParticipantID string
}

// Toggle removes the participant's claim if one exists, otherwise adds one.
// Single-unit items toggle a claim of exactly 1; multi-unit items grant
// whatever is still unclaimed, minimum 1, so the UI can offer a quantity
// adjustment afterwards.
type Toggle struct {
	ItemID        string
	ParticipantID string
}

// AssignAll distributes the item's quantity across all current participants.
// With quantity >= headcount the units divide as evenly as possible, earliest
// participants taking the remainder. With quantity < headcount (a shared
// item) every participant is granted quantity 1 and the calculator's
// proportional rule produces the even 1/N value split.
type AssignAll struct {
	ItemID string
}

// UnassignAll clears every assignment record on the item.
type UnassignAll struct {
	ItemID string
}

// SetTax replaces the bill's tax amount.
type SetTax struct {
	Amount float64
}

// SetTip replaces the bill's tip amount.
type SetTip struct {
	Amount float64
}

// SelectItem points the selection at the given item, or clears it when ID is
// empty.
type SelectItem struct {
	ID string
}

// Reset discards the session's bill and returns the empty initial state.
type Reset struct{}

// Load wholesale-replaces the bill. Used for demo data and for confirmed
// receipt parses. Tip and selection are cleared.
type Load struct {
	Items        []models.LineItem
	Participants []models.Participant
	TaxAmount    float64
}

func (AddParticipant) isOp()    {}
func (RemoveParticipant) isOp() {}
func (AddItem) isOp()           {}
func (RemoveItem) isOp()        {}
func (UpdateItem) isOp()        {}
func (Assign) isOp()            {}
func (Unassign) isOp()          {}
func (Toggle) isOp()            {}
func (AssignAll) isOp()         {}
func (UnassignAll) isOp()       {}
func (SetTax) isOp()            {}
func (SetTip) isOp()            {}
func (SelectItem) isOp()        {}
func (Reset) isOp()             {}
func (Load) isOp()              {}
