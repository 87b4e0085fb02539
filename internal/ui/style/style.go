// Package style provides shared UI styling primitives including brand colors
// and icons for consistent visual presentation across the CLI.
package style

// Color is a hex color usable as a termenv RGB color.
type Color string

// Brand Colors.
const (
	Slate  Color = "#667085"
	Green  Color = "#22A06B"
	Red    Color = "#D93025"
	Yellow Color = "#F59E0B"
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
)
