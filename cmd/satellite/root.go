// Package satellite is the satellite's cobra command tree. Unlike the
// teacher's client/server split this binary has exactly one mode, so
// there is a single root command rather than subcommands.
package satellite

import (
	"github.com/bnema/satellite/internal/satcfg"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "satellite [:N]",
	Short: "Rootless Xwayland satellite",
	Long: `satellite bridges a rootless Xwayland server to a Wayland
compositor: it is Xwayland's window manager over X11, the Wayland
server Xwayland renders through, and a Wayland client of the host
compositor, all in one process.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	satcfg.BindFlags(rootCmd)
}

// Execute runs the root command; version is stamped in from main.go's
// build-time constant.
func Execute(version string) error {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s\n" .Version}}`)
	return rootCmd.Execute()
}
