// Package receipt is the boundary to the AI receipt-parsing collaborator.
//
// The model's output is never trusted: everything it produces passes through
// a strict coercion step that either yields well-typed items or fails with
// ErrParseFailed. Nothing loosely typed crosses into the bill core, and no
// partial parse is ever committed.
package receipt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrParseFailed wraps every condition in which the collaborator could not
// produce usable item data: API failures, non-JSON output, or output with no
// valid items.
var ErrParseFailed = errors.New("receipt parsing failed")

// ParsedItem is one line item extracted from a receipt image, already
// coerced to the invariants the bill core expects (price >= 0, quantity >= 1).
type ParsedItem struct {
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

// ParsedReceipt is the typed result of a successful parse.
type ParsedReceipt struct {
	Items     []ParsedItem `json:"items"`
	TaxAmount float64      `json:"tax_amount"`
}

// Parser extracts structured items from a receipt image.
type Parser interface {
	Parse(ctx context.Context, image []byte, mimeType string) (*ParsedReceipt, error)
}

// wire mirrors the JSON shape the model is prompted to emit. The tax
// breakdown is an open map whose fields sum to the total tax figure.
type wire struct {
	Items []wireItem         `json:"items"`
	Tax   map[string]float64 `json:"tax"`
}

type wireItem struct {
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  float64 `json:"quantity"`
}

// decode coerces raw model output into a ParsedReceipt. Code fences are
// stripped, blank-named items are dropped, prices are clamped to >= 0 and
// quantities to >= 1, and tax breakdown fields are summed. An output with no
// surviving items is a failure.
func decode(raw string) (*ParsedReceipt, error) {
	cleaned := stripFences(raw)

	var w wire
	if err := json.Unmarshal([]byte(cleaned), &w); err != nil {
		return nil, fmt.Errorf("%w: decoding model output: %v", ErrParseFailed, err)
	}

	items := make([]ParsedItem, 0, len(w.Items))
	for _, it := range w.Items {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			continue
		}
		price := it.UnitPrice
		if price < 0 {
			price = 0
		}
		qty := int(it.Quantity)
		if qty < 1 {
			qty = 1
		}
		items = append(items, ParsedItem{Name: name, UnitPrice: price, Quantity: qty})
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no usable items in model output", ErrParseFailed)
	}

	var tax float64
	for _, v := range w.Tax {
		if v > 0 {
			tax += v
		}
	}

	return &ParsedReceipt{Items: items, TaxAmount: tax}, nil
}

// stripFences removes a surrounding markdown code fence if the model added
// one despite instructions.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
