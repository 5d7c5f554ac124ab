package main

import (
	"fmt"

	"github.com/ALT-F4-LLC/dinnerplan/internal/db"
	"github.com/ALT-F4-LLC/dinnerplan/internal/model"
	"github.com/ALT-F4-LLC/dinnerplan/internal/output"
	"github.com/spf13/cobra"
)

var voteCmd = &cobra.Command{
	Use:   "vote <date-id>",
	Short: "Vote for a proposal date",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		conn := getDB(cmd)

		dateID, err := parseIDArg(args[0], "proposal date")
		if err != nil {
			return err
		}
		u, err := actingUser(cmd)
		if err != nil {
			return err
		}

		vote := &model.Vote{UserID: u.ID, ProposalDateID: dateID}
		id, err := db.CastVote(conn, vote)
		if err != nil {
			return storeErr(err, "casting vote")
		}
		vote.ID = id

		w.Success(vote, fmt.Sprintf("%s voted for date %s", u.Username, model.FormatID(dateID)))
		return nil
	},
}

var rateCmd = &cobra.Command{
	Use:   "rate <proposal-id>",
	Short: "Like or dislike a proposal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		conn := getDB(cmd)

		proposalID, err := parseIDArg(args[0], "proposal")
		if err != nil {
			return err
		}

		like, _ := cmd.Flags().GetBool("like")
		dislike, _ := cmd.Flags().GetBool("dislike")
		if like == dislike {
			return cmdErr(fmt.Errorf("exactly one of --like or --dislike is required"), output.ErrValidation)
		}

		u, err := actingUser(cmd)
		if err != nil {
			return err
		}

		rating := &model.ProposalRating{UserID: u.ID, ProposalID: proposalID, Liked: like}
		if err := db.RateProposal(conn, rating); err != nil {
			return storeErr(err, "rating proposal")
		}

		verb := "likes"
		if !like {
			verb = "dislikes"
		}
		w.Success(rating, fmt.Sprintf("%s %s proposal %s", u.Username, verb, model.FormatID(proposalID)))
		return nil
	},
}

func init() {
	addUserFlag(voteCmd)

	rateCmd.Flags().Bool("like", false, "Like the proposal")
	rateCmd.Flags().Bool("dislike", false, "Dislike the proposal")
	addUserFlag(rateCmd)

	rootCmd.AddCommand(voteCmd, rateCmd)
}
