// ABOUTME: Build and product identity constants
// ABOUTME: Shared by the console hello, the TUI footer, and the simulator
package version

const (
	// Version is the console software version.
	Version = "0.1.0"

	// Product is the user-facing product name.
	Product = "Mixdesk"

	// Manufacturer identifies who ships the console.
	Manufacturer = "Mixdesk Audio"
)
