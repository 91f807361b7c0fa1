package models

// Color is a display tag from the fixed participant palette.
type Color string

// The four-color participant palette. Colors cycle by participant count once
// all four are in use.
const (
	ColorCoral Color = "coral"
	ColorMint  Color = "mint"
	ColorSky   Color = "sky"
	ColorAmber Color = "amber"
)

// Palette lists the participant colors in assignment order.
var Palette = []Color{ColorCoral, ColorMint, ColorSky, ColorAmber}

// NextColor returns the palette color for the participant added when count
// participants already exist. The assignment is a pure function of the
// current participant count; a participant never changes color once created
// except via an explicit update.
func NextColor(count int) Color {
	return Palette[count%len(Palette)]
}

// Participant represents one person splitting the bill.
type Participant struct {
	// ID is the unique identifier for the participant (UUID format).
	ID string `json:"id"`

	// Name is the display name (e.g., "Alice").
	Name string `json:"name"`

	// Color is the display tag assigned from the palette at creation time.
	Color Color `json:"color"`
}
