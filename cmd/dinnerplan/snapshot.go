package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ALT-F4-LLC/dinnerplan/internal/output"
	"github.com/ALT-F4-LLC/dinnerplan/internal/render"
	"github.com/ALT-F4-LLC/dinnerplan/internal/snapshot"
	"github.com/charmbracelet/huh"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

type exportResult struct {
	File     string             `json:"file"`
	Bytes    int                `json:"bytes"`
	Manifest *snapshot.Manifest `json:"manifest"`
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a snapshot archive of the whole store",
	Long: `Write a zip archive holding every user, event, proposal, proposal date,
rating, vote and message. Without --file the archive is written to stdout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		file, _ := cmd.Flags().GetString("file")

		if (file == "" || file == "-") && w.JSONMode {
			return cmdErr(fmt.Errorf("--file is required with --json"), output.ErrValidation)
		}

		res, err := getEngine(cmd).Export(cmd.Context())
		if err != nil {
			return storeErr(err, "exporting snapshot")
		}

		if file == "" || file == "-" {
			if err := w.Data(res.Archive); err != nil {
				return cmdErr(fmt.Errorf("writing archive: %w", err), output.ErrGeneral)
			}
			return nil
		}

		if err := os.WriteFile(file, res.Archive, 0o600); err != nil {
			return cmdErr(fmt.Errorf("writing archive: %w", err), output.ErrGeneral)
		}

		w.Success(exportResult{File: file, Bytes: len(res.Archive), Manifest: res.Manifest},
			fmt.Sprintf("Exported %s records to %s (%s)",
				humanize.Comma(int64(totalRecords(res.Manifest.Counts))),
				file,
				humanize.Bytes(uint64(len(res.Archive))),
			))
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the whole store with a snapshot archive",
	Long: `Wipe every collection and restore the archive in one transaction.
Identifiers are reassigned; all references are rebuilt. Use "-" to read
the archive from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		yes, _ := cmd.Flags().GetBool("yes")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		data, err := readArchive(cmd, args[0])
		if err != nil {
			return cmdErr(fmt.Errorf("reading archive: %w", err), output.ErrGeneral)
		}

		engine := getEngine(cmd)

		if dryRun {
			res, err := engine.DryRun(cmd.Context(), data)
			if err != nil {
				return storeErr(err, "checking snapshot")
			}
			var message string
			if !w.JSONMode {
				message = formatImportHuman(res)
			}
			w.Success(res, message)
			return nil
		}

		if !yes && !w.JSONMode {
			var confirmed bool
			form := huh.NewForm(
				huh.NewGroup(
					huh.NewConfirm().
						Title("This will delete ALL existing data and replace it with the archive. Continue?").
						Affirmative("Yes, replace all data").
						Negative("Cancel").
						Value(&confirmed),
				),
			)

			if err := form.Run(); err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					w.Info("Cancelled.")
					return nil
				}
				return cmdErr(fmt.Errorf("interactive form failed: %w", err), output.ErrGeneral)
			}

			if !confirmed {
				w.Info("Cancelled.")
				return nil
			}
		}

		res, err := engine.Import(cmd.Context(), data)
		if err != nil {
			return storeErr(err, "importing snapshot")
		}

		var message string
		if !w.JSONMode {
			message = formatImportHuman(res)
		}
		w.Success(res, message)
		return nil
	},
}

func readArchive(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

func totalRecords(counts map[string]int) int {
	n := 0
	for _, c := range counts {
		n += c
	}
	return n
}

func formatImportHuman(res *snapshot.ImportResult) string {
	var b strings.Builder

	title := "Restored"
	if res.DryRun {
		title = "Dry run: would restore"
	}
	b.WriteString(render.RenderCounts(title, res.Restored))
	fmt.Fprintf(&b, "\nReplaced %s existing rows", humanize.Comma(int64(res.Wiped.Total())))
	if res.DroppedLinks > 0 {
		fmt.Fprintf(&b, "\nDropped %d links to records missing from the archive", res.DroppedLinks)
	}
	if res.SkippedDuplicates > 0 {
		fmt.Fprintf(&b, "\nSkipped %d duplicate votes or ratings", res.SkippedDuplicates)
	}
	if res.DryRun && res.Plan != nil {
		fmt.Fprintf(&b, "\nRestore order: %s", strings.Join(res.Plan.Restore, " → "))
		b.WriteString("\nNothing was changed.")
	}
	return b.String()
}

func init() {
	exportCmd.Flags().StringP("file", "f", "", "Write the archive to this path instead of stdout")

	importCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
	importCmd.Flags().Bool("dry-run", false, "Validate and rehearse the restore, then roll back")

	rootCmd.AddCommand(exportCmd, importCmd)
}
