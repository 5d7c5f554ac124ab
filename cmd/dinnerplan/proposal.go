package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/ALT-F4-LLC/dinnerplan/internal/db"
	"github.com/ALT-F4-LLC/dinnerplan/internal/model"
	"github.com/ALT-F4-LLC/dinnerplan/internal/output"
	"github.com/spf13/cobra"
)

var proposalCmd = &cobra.Command{
	Use:   "proposal",
	Short: "Propose places and dates for events",
}

type proposalAddResult struct {
	Proposal *model.Proposal `json:"proposal"`
	DateIDs  []int           `json:"date_ids"`
}

var proposalAddCmd = &cobra.Command{
	Use:   "add <event-id> <location>",
	Short: "Propose a place with candidate dates for an event",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		conn := getDB(cmd)

		eventID, err := parseIDArg(args[0], "event")
		if err != nil {
			return err
		}
		location := strings.TrimSpace(args[1])
		if location == "" {
			return cmdErr(fmt.Errorf("location must not be empty"), output.ErrValidation)
		}

		address, _ := cmd.Flags().GetString("address")
		description, _ := cmd.Flags().GetString("description")
		dateFlags, _ := cmd.Flags().GetStringArray("date")

		dates := make([]time.Time, 0, len(dateFlags))
		for _, s := range dateFlags {
			t, err := parseTime(s)
			if err != nil {
				return cmdErr(fmt.Errorf("--date: %w", err), output.ErrValidation)
			}
			dates = append(dates, t)
		}

		event, err := db.GetEvent(conn, eventID)
		if err != nil {
			return storeErr(err, fmt.Sprintf("event %s", model.FormatID(eventID)))
		}
		if event.Status != model.EventOpen {
			return cmdErr(fmt.Errorf("event %s is %s", model.FormatID(eventID), event.Status), output.ErrConflict)
		}

		p := &model.Proposal{Location: location, Address: address, Description: description}
		id, dateIDs, err := db.CreateProposal(conn, eventID, p, dates)
		if err != nil {
			return storeErr(err, "creating proposal")
		}

		created, err := db.GetProposal(conn, id)
		if err != nil {
			return storeErr(err, "reading proposal")
		}

		ids := make([]string, len(dateIDs))
		for i, d := range dateIDs {
			ids[i] = model.FormatID(d)
		}
		message := fmt.Sprintf("Proposed %s %q for event %s", model.FormatID(id), location, model.FormatID(eventID))
		if len(ids) > 0 {
			message += fmt.Sprintf(" with dates %s", strings.Join(ids, ", "))
		}

		w.Success(proposalAddResult{Proposal: created, DateIDs: dateIDs}, message)
		return nil
	},
}

var proposalLinkCmd = &cobra.Command{
	Use:   "link <proposal-id> <event-id>",
	Short: "Offer an existing proposal to another event",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		conn := getDB(cmd)

		proposalID, err := parseIDArg(args[0], "proposal")
		if err != nil {
			return err
		}
		eventID, err := parseIDArg(args[1], "event")
		if err != nil {
			return err
		}

		if _, err := db.GetProposal(conn, proposalID); err != nil {
			return storeErr(err, fmt.Sprintf("proposal %s", model.FormatID(proposalID)))
		}
		if _, err := db.GetEvent(conn, eventID); err != nil {
			return storeErr(err, fmt.Sprintf("event %s", model.FormatID(eventID)))
		}

		if err := db.LinkProposal(conn, eventID, proposalID); err != nil {
			return storeErr(err, "linking proposal")
		}

		p, err := db.GetProposal(conn, proposalID)
		if err != nil {
			return storeErr(err, "reading proposal")
		}
		w.Success(p, fmt.Sprintf("Linked proposal %s to event %s", model.FormatID(proposalID), model.FormatID(eventID)))
		return nil
	},
}

func init() {
	proposalAddCmd.Flags().String("address", "", "Street address")
	proposalAddCmd.Flags().StringP("description", "d", "", "Why this place")
	proposalAddCmd.Flags().StringArray("date", nil, "Candidate date (repeatable)")

	proposalCmd.AddCommand(proposalAddCmd, proposalLinkCmd)
	rootCmd.AddCommand(proposalCmd)
}
