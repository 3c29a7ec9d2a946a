// ABOUTME: Entry point for the Mixdesk console
// ABOUTME: Parses CLI flags, finds an engine, and starts the console TUI
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Mixdesk-Audio/mixdesk-go/internal/discovery"
	"github.com/Mixdesk-Audio/mixdesk-go/internal/ui"
	"github.com/Mixdesk-Audio/mixdesk-go/internal/version"
	"github.com/Mixdesk-Audio/mixdesk-go/pkg/mixdesk"
	tea "github.com/charmbracelet/bubbletea"
)

var (
	engineAddr    = flag.String("engine", "", "Manual engine address (skip mDNS)")
	name          = flag.String("name", "", "Console name (default: hostname-mixdesk)")
	offline       = flag.Bool("offline", false, "Run without an engine link")
	routeToMaster = flag.Bool("route-to-master", false, "Route new channels straight to master")
	logFile       = flag.String("log-file", "mixdesk-console.log", "Log file path")
	noTUI         = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
)

func main() {
	flag.Parse()

	useTUI := !*noTUI

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		// Streaming logs mode: log to both stdout and file
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	// Determine console name
	consoleName := *name
	if consoleName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		consoleName = fmt.Sprintf("%s-mixdesk", hostname)
	}

	if !useTUI {
		log.Printf("Starting %s %s: %s", version.Product, version.Version, consoleName)
	}

	// Find an engine unless one was given or we run offline
	engineAddress := *engineAddr
	if engineAddress == "" && !*offline {
		log.Printf("Starting engine discovery...")
		disc := discovery.NewManager(discovery.Config{ServiceName: consoleName})
		disc.Browse()

		select {
		case engine := <-disc.Engines():
			engineAddress = fmt.Sprintf("%s:%d", engine.Host, engine.Port)
			log.Printf("Discovered engine %s at %s", engine.Name, engineAddress)
		case <-time.After(10 * time.Second):
			log.Fatalf("No engine found after 10 seconds (use -engine or -offline)")
		}
		disc.Stop()
	}

	// TUI setup happens before Connect so transport callbacks have a
	// program to post to
	var tuiProg *tea.Program
	updateTUI := func(msg ui.StatusMsg) {
		if tuiProg != nil {
			tuiProg.Send(msg)
		}
	}

	console, err := mixdesk.NewConsole(mixdesk.Config{
		EngineAddr:               engineAddress,
		ConsoleName:              consoleName,
		Offline:                  *offline,
		RouteNewChannelsToMaster: *routeToMaster,
		OnTransport: func(playing bool) {
			updateTUI(ui.StatusMsg{Playing: &playing})
		},
		OnError: func(err error) {
			log.Printf("Console error: %v", err)
		},
	})
	if err != nil {
		log.Fatalf("Failed to create console: %v", err)
	}

	if !*offline {
		if err := console.Connect(); err != nil {
			log.Fatalf("Connection failed: %v", err)
		}
		log.Printf("Linked to engine: %s", engineAddress)
	}

	tuiDone := make(chan struct{})
	if useTUI {
		tuiProg, err = ui.Run(console.Desk())
		if err != nil {
			log.Fatalf("Failed to start TUI: %v", err)
		}
		go func() {
			if _, err := tuiProg.Run(); err != nil {
				log.Printf("TUI error: %v", err)
			}
			close(tuiDone)
		}()

		connected := console.IsConnected()
		updateTUI(ui.StatusMsg{Connected: &connected, EngineName: engineAddress})
	}

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if useTUI {
		select {
		case <-tuiDone:
			log.Printf("TUI quit")
		case <-sigChan:
			log.Printf("Shutdown signal received")
			tuiProg.Quit()
		}
	} else {
		<-sigChan
		log.Printf("Shutdown signal received")
	}

	if err := console.Close(); err != nil {
		log.Printf("Error closing console: %v", err)
	}

	log.Printf("Console stopped")
}
