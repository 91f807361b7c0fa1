// Package demo provides the canned sample bill used by the demo-load flow.
package demo

import (
	"github.com/google/uuid"

	"github.com/amit429/billbreak/internal/models"
)

// Bill returns a fresh copy of the sample bill: items plus the tax total.
// The pizza is a quantity-1 item so the shared-item split is visible as
// soon as more than one participant claims it.
func Bill() ([]models.LineItem, float64) {
	items := []models.LineItem{
		{ID: uuid.NewString(), Name: "Margherita Pizza", UnitPrice: 500, Quantity: 1},
		{ID: uuid.NewString(), Name: "Coke", UnitPrice: 60, Quantity: 5},
		{ID: uuid.NewString(), Name: "Garlic Bread", UnitPrice: 180, Quantity: 2},
		{ID: uuid.NewString(), Name: "Tiramisu", UnitPrice: 220, Quantity: 1},
	}
	return items, 120
}
