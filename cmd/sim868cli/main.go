package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/amken3d/sim868"
)

var (
	device  = flag.String("device", "/dev/ttyS0", "Serial device path")
	baud    = flag.Int("baud", 115200, "Baud rate")
	verbose = flag.Bool("verbose", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	fmt.Println("sim868cli - SIM868 HAT interactive console")
	fmt.Println("===========================================")

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}

	fmt.Printf("Connecting to %s at %d baud...\n", *device, *baud)
	h, err := sim868.New(*device, *baud, level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer h.Close()

	fmt.Println("Connected. Type 'help' for available commands, 'quit' to exit.")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]

		switch cmd {
		case "quit", "exit", "q":
			fmt.Println("Goodbye!")
			return

		case "help", "?":
			printHelp()

		case "status":
			runStatus(h)

		case "signal":
			runSignal(h)

		case "on":
			runTurnOn(h)

		case "off":
			runTurnOff(h)

		case "gnss":
			runGNSS(h)

		case "call":
			if len(parts) < 2 {
				fmt.Println("usage: call <number>")
				continue
			}
			runCall(h, parts[1])

		case "hangup":
			runHangup(h)

		default:
			fmt.Printf("Unknown command: %s (type 'help' for available commands)\n", cmd)
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println("\nAvailable commands:")
	fmt.Println("  status         - Check whether the modem responds")
	fmt.Println("  signal         - Read network signal strength")
	fmt.Println("  on             - Power on the HAT")
	fmt.Println("  off            - Power off the HAT")
	fmt.Println("  gnss           - Read a GNSS fix")
	fmt.Println("  call <number>  - Place a voice call")
	fmt.Println("  hangup         - End the current call")
	fmt.Println("  quit/exit/q    - Exit the program")
	fmt.Println()
}

func withTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d)
}

func runStatus(h *sim868.Handle) {
	ctx, cancel := withTimeout(3 * time.Second)
	defer cancel()

	on, err := h.Hat.IsOn().Await(ctx)
	if err != nil {
		fmt.Printf("status: %v\n", err)
		return
	}
	fmt.Printf("modem responding: %v\n", on)
}

func runSignal(h *sim868.Handle) {
	ctx, cancel := withTimeout(3 * time.Second)
	defer cancel()

	csq, err := h.Hat.NetworkStrength().Await(ctx)
	if err != nil {
		fmt.Printf("signal: %v\n", err)
		return
	}
	fmt.Printf("signal strength: %d\n", csq)
}

func runTurnOn(h *sim868.Handle) {
	ctx, cancel := withTimeout(10 * time.Second)
	defer cancel()

	if err := h.Hat.TurnOn(ctx); err != nil {
		fmt.Printf("turn on: %v\n", err)
		return
	}
	fmt.Println("power-on pulse sent")
}

func runTurnOff(h *sim868.Handle) {
	ctx, cancel := withTimeout(3 * time.Second)
	defer cancel()

	if _, err := h.Hat.TurnOff().Await(ctx); err != nil {
		fmt.Printf("turn off: %v\n", err)
		return
	}
	fmt.Println("power-off requested")
}

func runGNSS(h *sim868.Handle) {
	ctx, cancel := withTimeout(3 * time.Second)
	defer cancel()

	fix, err := h.GNSS.GetData().Await(ctx)
	if err != nil {
		fmt.Printf("gnss: %v\n", err)
		return
	}
	fmt.Printf("fix: lat=%.4f lon=%.4f alt=%.1f sats=%d/%d at %s\n",
		fix.Lat, fix.Lon, fix.Alt, fix.SatsInUse, fix.SatsInView, fix.UTCDateTime)
}

func runCall(h *sim868.Handle, number string) {
	ctx, cancel := withTimeout(3 * time.Second)
	defer cancel()

	if _, err := h.Phone.Call(number).Await(ctx); err != nil {
		fmt.Printf("call: %v\n", err)
		return
	}
	fmt.Printf("calling %s\n", number)
}

func runHangup(h *sim868.Handle) {
	ctx, cancel := withTimeout(3 * time.Second)
	defer cancel()

	if _, err := h.Phone.EndCall().Await(ctx); err != nil {
		fmt.Printf("hangup: %v\n", err)
		return
	}
	fmt.Println("call ended")
}
