package main

import (
	"fmt"

	"github.com/pg-sharding/spqr-insel/pkg"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print the version of spqr-insel",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "spqr-insel %s\n", pkg.InselVersionRevision)
		return err
	},
}
