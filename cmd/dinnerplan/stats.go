package main

import (
	"github.com/ALT-F4-LLC/dinnerplan/internal/db"
	"github.com/ALT-F4-LLC/dinnerplan/internal/render"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show row counts for every collection",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)

		counts, err := db.CountAll(getDB(cmd))
		if err != nil {
			return storeErr(err, "counting rows")
		}

		var message string
		if !w.JSONMode {
			message = render.RenderCounts("Store", counts)
		}
		w.Success(counts, message)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
