// Package satcfg binds the satellite's command-line flags and
// environment variables (spec.md §6). Unlike the teacher's
// internal/config there is no on-disk config file: spec.md §6 states
// the satellite keeps no persisted state, so viper here is used purely
// as an env-var reader alongside cobra's flag parsing.
package satcfg

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is everything spec.md §6 says the satellite reads at
// startup: the positional display spec, the repeatable --listenfd/
// --extension passthrough flags, the --notify toggle, and the handful
// of environment variables it consults. Xwayland-style "-listenfd"
// and "+extension" arguments are not accepted.
type Config struct {
	DisplaySpec string   // optional "[:N]" positional argument
	ListenFDs   []int    // repeated --listenfd <fd>
	Extensions  []string // repeated --extension <name>
	Notify      bool     // --notify: emit READY=1 once handshake succeeds

	RuntimeDir     string // XDG_RUNTIME_DIR
	WaylandDisplay string // WAYLAND_DISPLAY
	NotifySocket   string // NOTIFY_SOCKET
	DisplayEnv     string // DISPLAY, read only so it can be restored/compared
}

// BindFlags registers the flags cobra.Command needs for the surface
// SPEC_FULL.md §5 describes, and binds their defaults through viper
// the way the teacher's cmd/server.go binds ServerConfig fields.
func BindFlags(cmd *cobra.Command) {
	cmd.Flags().IntSlice("listenfd", nil, "pass a pre-opened listening socket fd to Xwayland (repeatable)")
	cmd.Flags().StringSlice("extension", nil, "enable an Xwayland extension by name (repeatable)")
	cmd.Flags().Bool("notify", false, "emit READY=1 on NOTIFY_SOCKET after the first successful Xwayland handshake")

	_ = viper.BindPFlag("listenfd", cmd.Flags().Lookup("listenfd"))
	_ = viper.BindPFlag("extension", cmd.Flags().Lookup("extension"))
	_ = viper.BindPFlag("notify", cmd.Flags().Lookup("notify"))

	_ = viper.BindEnv("runtime_dir", "XDG_RUNTIME_DIR")
	_ = viper.BindEnv("wayland_display", "WAYLAND_DISPLAY")
	_ = viper.BindEnv("notify_socket", "NOTIFY_SOCKET")
	_ = viper.BindEnv("display", "DISPLAY")
}

// Load resolves a Config from the parsed flags plus the environment.
// args is cobra's positional argument list; it holds at most one
// optional "[:N]" display spec per spec.md §6.
func Load(cmd *cobra.Command, args []string) (Config, error) {
	cfg := Config{
		RuntimeDir:     viper.GetString("runtime_dir"),
		WaylandDisplay: viper.GetString("wayland_display"),
		NotifySocket:   viper.GetString("notify_socket"),
		DisplayEnv:     viper.GetString("display"),
		Notify:         viper.GetBool("notify"),
		ListenFDs:      viper.GetIntSlice("listenfd"),
		Extensions:     viper.GetStringSlice("extension"),
	}

	if len(args) > 0 {
		spec := args[0]
		if !strings.HasPrefix(spec, ":") {
			return Config{}, fmt.Errorf("satcfg: display spec %q must start with ':'", spec)
		}
		if _, err := strconv.Atoi(spec[1:]); err != nil {
			return Config{}, fmt.Errorf("satcfg: display spec %q is not a number: %w", spec, err)
		}
		cfg.DisplaySpec = spec
	}

	return cfg, nil
}
