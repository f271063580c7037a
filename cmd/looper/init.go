package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// init and init-piface are out of core scope; these stubs exist only so
// the documented subcommand surface matches `looper --help`.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold a new looper config (not implemented in this build)",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("init: not implemented in this build")
		return nil
	},
}

var initPifaceCmd = &cobra.Command{
	Use:   "init-piface",
	Short: "Scaffold a new pipeline interface (not implemented in this build)",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("init-piface: not implemented in this build")
		return nil
	},
}
