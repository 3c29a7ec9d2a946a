// ABOUTME: High-level Mixdesk library API
// ABOUTME: Provides the Console entry point for most use cases
// Package mixdesk provides the high-level API for the Mixdesk console.
//
// This is the main entry point for most library users, providing:
//   - Console: the mix state core plus an optional live engine link
//
// For lower-level control, see the internal mixer, gain, and client
// packages through the Console's Desk accessor.
//
// Example:
//
//	console, err := mixdesk.NewConsole(mixdesk.Config{
//	    EngineAddr:  "localhost:8930",
//	    ConsoleName: "FOH",
//	})
//	err = console.Connect()
//	ch := console.CreateChannel("Vocals", 0xFFCC4455)
//	console.SetVolume(ch.ID, 0.8)
package mixdesk
