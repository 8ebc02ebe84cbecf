package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print corpus size, queue depths, and database size",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		rt, err := db.BeginRead()
		if err != nil {
			return err
		}
		defer rt.Close()

		size, err := db.Size()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "documents:       %d\n", rt.DocumentCount())
		fmt.Fprintf(out, "phase-one queue: %d\n", rt.PhaseOneSize())
		fmt.Fprintf(out, "failed:          %d\n", rt.FailedSize())
		fmt.Fprintf(out, "database size:   %d bytes\n", size)
		return nil
	},
}
