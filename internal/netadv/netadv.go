// Package netadv brings up the Wi-Fi access point operators connect to.
package netadv

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// Advertiser makes the device reachable on a fixed SSID.
type Advertiser interface {
	Advertise(ctx context.Context) error
}

// Hotspot starts a NetworkManager hotspot with a fixed SSID and passphrase.
type Hotspot struct {
	log      *slog.Logger
	iface    string
	ssid     string
	password string

	// run executes a command and returns its combined output.
	run func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewHotspot returns a Hotspot on iface.
func NewHotspot(log *slog.Logger, iface, ssid, password string) *Hotspot {
	return &Hotspot{
		log:      log.With(slog.String("component", "netadv")),
		iface:    iface,
		ssid:     ssid,
		password: password,
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).CombinedOutput()
		},
	}
}

func (h *Hotspot) args() []string {
	return []string{
		"device", "wifi", "hotspot",
		"ifname", h.iface,
		"con-name", "envmon-ap",
		"ssid", h.ssid,
		"password", h.password,
	}
}

// Advertise runs nmcli. WPA2 passphrases shorter than 8 characters are
// rejected by NetworkManager; that error is returned as-is.
func (h *Hotspot) Advertise(ctx context.Context) error {
	out, err := h.run(ctx, "nmcli", h.args()...)
	if err != nil {
		return fmt.Errorf("nmcli hotspot on %s: %w: %s", h.iface, err, strings.TrimSpace(string(out)))
	}
	h.log.Info("access point up", slog.String("ssid", h.ssid), slog.String("iface", h.iface))
	return nil
}

// Disabled only logs; used when the host manages its own networking.
type Disabled struct {
	Log *slog.Logger
}

func (d Disabled) Advertise(context.Context) error {
	d.Log.Info("access point advertisement disabled")
	return nil
}
