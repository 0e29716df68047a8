package main

import (
	"runtime/debug"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/strobe/cmd/leds"
	"github.com/gigurra/strobe/cmd/onsets"
	"github.com/gigurra/strobe/cmd/serve"
	"github.com/gigurra/strobe/cmd/songs"
	"github.com/spf13/cobra"
)

// Command group IDs
const (
	groupShow  = "show"
	groupTools = "tools"
)

// withGroup sets the GroupID on a command and returns it
func withGroup(cmd *cobra.Command, group string) *cobra.Command {
	cmd.GroupID = group
	return cmd
}

func main() {
	boa.CmdT[boa.NoParams]{
		Use:     "strobe",
		Short:   "Music with LED flashes on every beat",
		Version: appVersion(),
		Groups: []*cobra.Group{
			{ID: groupShow, Title: "Show:"},
			{ID: groupTools, Title: "Tools:"},
		},
		SubCmds: []*cobra.Command{
			withGroup(serve.Cmd(), groupShow),

			withGroup(songs.Cmd(), groupTools),
			withGroup(onsets.Cmd(), groupTools),
			withGroup(leds.Cmd(), groupTools),
		},
	}.Run()
}

func appVersion() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown-(no build info)"
	}

	versionString := bi.Main.Version
	if versionString == "" {
		versionString = "unknown-(no version)"
	}

	return versionString
}
