// Package config loads command-line flags and environment variables into
// a Config, grounded on the teacher's flag+env loading style
// (flag.Parse() layered over prefixed os.LookupEnv lookups with flags
// taking precedence).
package config

import (
	"flag"
	"os"
	"strconv"
	"strings"

	"github.com/lcalzada-xor/wmapattack/internal/core/domain"
)

// Config holds the runtime configuration for the attack engine and
// handshake assembler, per SPEC_FULL.md §3.3.
type Config struct {
	// Targets is the attack allow-list; empty means "attack every
	// observed AP" (runtime.Context.IsTargeted).
	Targets []domain.MacAddress

	// NoTx puts the runtime in dry-run mode: every short-circuit and log
	// line still evaluates, but no frame is transmitted and no state is
	// promoted (spec.md §5).
	NoTx bool

	// RogueClient is the source MAC the attack engine impersonates when
	// forging Authentication/AssociationRequest/ProbeRequest frames.
	RogueClient domain.MacAddress

	// Iface is the monitor-mode interface name, passed through to the
	// external capture/inject socket; this module never opens it itself.
	Iface string

	// Out is the path of the hashcat-22000 line sink (handshake.Sink).
	Out string
}

// Load parses command line flags and environment variables into a
// Config. Flags take precedence over environment variables.
func Load() *Config {
	cfg := &Config{}

	targetsStr := getEnv("WMAPATTACK_TARGETS", "")
	noTx := getEnvBool("WMAPATTACK_NOTX", false)
	rogueStr := getEnv("WMAPATTACK_ROGUE_CLIENT", "de:ad:be:ef:00:00")
	iface := getEnv("WMAPATTACK_INTERFACE", "wlan0")
	out := getEnv("WMAPATTACK_OUT", "handshakes.22000")

	flag.StringVar(&targetsStr, "targets", targetsStr, "Comma-separated MAC allow-list (empty attacks every observed AP)")
	flag.BoolVar(&noTx, "notx", noTx, "Dry-run: evaluate and log but never transmit or promote state")
	flag.StringVar(&rogueStr, "rogue-client", rogueStr, "Source MAC address used to impersonate a client")
	flag.StringVar(&iface, "i", iface, "Monitor-mode network interface")
	flag.StringVar(&out, "out", out, "Path of the hashcat 22000 export file")

	flag.Parse()

	cfg.Targets = parseMACList(targetsStr)
	cfg.NoTx = noTx
	cfg.RogueClient = domain.MustParseMAC(rogueStr)
	cfg.Iface = iface
	cfg.Out = out

	return cfg
}

func parseMACList(s string) []domain.MacAddress {
	var macs []domain.MacAddress
	if s == "" {
		return macs
	}
	for _, p := range strings.Split(s, ",") {
		trimmed := strings.TrimSpace(p)
		if trimmed == "" {
			continue
		}
		mac, err := domain.ParseMAC(trimmed)
		if err != nil {
			continue
		}
		macs = append(macs, mac)
	}
	return macs
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
