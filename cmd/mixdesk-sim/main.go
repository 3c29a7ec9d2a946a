// ABOUTME: Entry point for the simulated mix engine
// ABOUTME: Parses CLI flags and serves the engine link for development
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Mixdesk-Audio/mixdesk-go/internal/sim"
)

var (
	port    = flag.Int("port", 8930, "Engine link port")
	name    = flag.String("name", "", "Engine friendly name (default: hostname-mixdesk-sim)")
	logFile = flag.String("log-file", "mixdesk-sim.log", "Log file path")
	noMDNS  = flag.Bool("no-mdns", false, "Disable mDNS advertisement")
	play    = flag.Bool("play", false, "Start with the transport playing")
)

func main() {
	flag.Parse()

	// Log to both file and stdout
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer f.Close()
	log.SetOutput(io.MultiWriter(os.Stdout, f))

	// Determine engine name
	engineName := *name
	if engineName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		engineName = fmt.Sprintf("%s-mixdesk-sim", hostname)
	}

	log.Printf("Starting simulated engine: %s on port %d", engineName, *port)
	log.Printf("Logging to: %s", *logFile)
	log.Printf("Press Ctrl-C to stop")

	engine := sim.New(sim.Config{
		Port:       *port,
		Name:       engineName,
		EnableMDNS: !*noMDNS,
	})

	if err := engine.Start(); err != nil {
		log.Fatalf("Engine error: %v", err)
	}
	if *play {
		engine.Play()
	}

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Printf("\nReceived %v signal, shutting down gracefully...", sig)
	engine.Stop()

	log.Printf("Engine stopped")
}
