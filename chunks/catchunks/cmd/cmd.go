package cmd

import (
	"github.com/Tankmaster48/ndnd-catchunks/std/utils"
	"github.com/spf13/cobra"
)

// CmdNdndGet is the root command for the segmented-content fetch client.
// The root has no default action of its own; callers run
// `ndndget get NAME`.
var CmdNdndGet = &cobra.Command{
	Use:     "ndndget",
	Short:   "Fetch segmented content over NDN",
	Version: utils.NDNdVersion,
}

func init() {
	CmdNdndGet.AddCommand(CmdGet())
}
