// Package models defines the core domain models for billbreak.
//
// # Models
//
//   - BillState: the aggregate root for one interactive splitting session
//   - LineItem: a priced, quantified entry on the bill
//   - Participant: a person splitting the bill
//   - AssignmentRecord: a claim by one participant on some quantity of an item
//
// # Design Principles
//
// 1. **Snapshot semantics**: BillState is treated as immutable once handed to
// a reader. Every transition in the bill package builds a replacement value;
// nothing is mutated in place, so concurrent readers always observe either
// the old or the new complete snapshot.
//
// 2. **Derived values are never stored**: progress, totals, and per-person
// shares are recomputed from the snapshot by the calculator package to avoid
// staleness.
//
// 3. **Avoid circular references**: relationships use ID strings (UUID
// format) instead of pointers.
//
// 4. **Session-scoped only**: no model here persists beyond the in-memory
// session that owns it.
package models
