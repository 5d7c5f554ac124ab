package main

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/ALT-F4-LLC/dinnerplan/internal/db"
	"github.com/ALT-F4-LLC/dinnerplan/internal/filter"
	"github.com/ALT-F4-LLC/dinnerplan/internal/model"
	"github.com/ALT-F4-LLC/dinnerplan/internal/output"
	"github.com/ALT-F4-LLC/dinnerplan/internal/render"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Plan dinner events",
}

var eventCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a dinner event organized by the acting user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		conn := getDB(cmd)

		title := strings.TrimSpace(args[0])
		if title == "" {
			return cmdErr(fmt.Errorf("title must not be empty"), output.ErrValidation)
		}

		deadlineFlag, _ := cmd.Flags().GetString("deadline")
		deadline, err := parseTime(deadlineFlag)
		if err != nil {
			return cmdErr(fmt.Errorf("--deadline: %w", err), output.ErrValidation)
		}
		description, _ := cmd.Flags().GetString("description")

		organizer, err := actingUser(cmd)
		if err != nil {
			return err
		}

		event := &model.DinnerEvent{
			Title:       title,
			Description: description,
			OrganizerID: organizer.ID,
			Deadline:    deadline,
			Status:      model.EventOpen,
		}
		id, err := db.CreateEvent(conn, event)
		if err != nil {
			return storeErr(err, "creating event")
		}

		created, err := db.GetEvent(conn, id)
		if err != nil {
			return storeErr(err, "reading event")
		}

		w.Success(created, fmt.Sprintf("Created event %s %q organized by %s", model.FormatID(id), title, organizer.Username))
		return nil
	},
}

type eventListResult struct {
	Events []*model.DinnerEvent `json:"events"`
	Total  int                  `json:"total"`
}

var eventListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List dinner events",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		conn := getDB(cmd)

		statuses, _ := cmd.Flags().GetStringSlice("status")
		mine, _ := cmd.Flags().GetBool("mine")
		organized, _ := cmd.Flags().GetBool("organized")
		search, _ := cmd.Flags().GetString("search")
		board, _ := cmd.Flags().GetBool("board")

		for i, s := range statuses {
			statuses[i] = strings.ToUpper(s)
			if err := model.ValidateEventStatus(model.EventStatus(statuses[i])); err != nil {
				return cmdErr(err, output.ErrValidation)
			}
		}

		criteria := filter.EventCriteria{Search: search}
		if len(statuses) > 0 {
			criteria.Statuses = filter.ToStringSet(statuses)
		}
		if mine || organized {
			u, err := actingUser(cmd)
			if err != nil {
				return err
			}
			if mine {
				criteria.Participant = u.ID
			}
			if organized {
				criteria.Organizer = u.ID
			}
		}

		all, err := db.ListAllEvents(conn)
		if err != nil {
			return storeErr(err, "listing events")
		}
		events := filter.Events(all, criteria)

		if w.JSONMode {
			w.Success(eventListResult{Events: events, Total: len(events)}, "")
			return nil
		}
		if board {
			w.Success(nil, render.RenderBoard(events))
			return nil
		}

		usernames, err := usernameMap(conn)
		if err != nil {
			return err
		}
		w.Success(nil, render.RenderEventTable(events, usernames))
		return nil
	},
}

type eventShowResult struct {
	Event     *model.DinnerEvent          `json:"event"`
	Proposals []*model.Proposal           `json:"proposals"`
	Dates     []*model.ProposalDate       `json:"dates"`
	Votes     map[int]int                 `json:"votes_by_date"`
	Messages  []*model.DinnerEventMessage `json:"messages"`
}

var eventShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an event with its proposals, dates, votes and messages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		conn := getDB(cmd)

		id, err := parseIDArg(args[0], "event")
		if err != nil {
			return err
		}

		event, err := db.GetEvent(conn, id)
		if err != nil {
			return storeErr(err, fmt.Sprintf("event %s", model.FormatID(id)))
		}
		proposals, err := db.ListProposalsForEvent(conn, id)
		if err != nil {
			return storeErr(err, "listing proposals")
		}
		dates, err := db.ListProposalDatesForEvent(conn, id)
		if err != nil {
			return storeErr(err, "listing proposal dates")
		}
		votes, err := db.CountVotesByDate(conn, id)
		if err != nil {
			return storeErr(err, "counting votes")
		}
		messages, err := db.ListMessages(conn, id)
		if err != nil {
			return storeErr(err, "listing messages")
		}

		if w.JSONMode {
			w.Success(eventShowResult{
				Event:     event,
				Proposals: proposals,
				Dates:     dates,
				Votes:     votes,
				Messages:  messages,
			}, "")
			return nil
		}

		ratings, err := db.ListAllRatings(conn)
		if err != nil {
			return storeErr(err, "listing ratings")
		}
		usernames, err := usernameMap(conn)
		if err != nil {
			return err
		}

		w.Success(nil, render.RenderEventDetail(buildDetail(event, proposals, dates, votes, ratings, messages, usernames)))
		return nil
	},
}

// buildDetail groups an event's dates under their proposals and tallies votes
// and ratings for display.
func buildDetail(
	event *model.DinnerEvent,
	proposals []*model.Proposal,
	dates []*model.ProposalDate,
	votes map[int]int,
	ratings []*model.ProposalRating,
	messages []*model.DinnerEventMessage,
	usernames map[int]string,
) render.EventDetail {
	d := render.EventDetail{Event: event, Usernames: usernames, Messages: messages}

	for _, uid := range event.ParticipantIDs {
		d.Participants = append(d.Participants, usernames[uid])
	}

	index := make(map[int]int, len(proposals))
	for _, p := range proposals {
		index[p.ID] = len(d.Proposals)
		d.Proposals = append(d.Proposals, render.ProposalDetail{Proposal: p})
	}

	for _, date := range dates {
		i, ok := index[date.ProposalID]
		if !ok {
			continue
		}
		selected := event.SelectedProposalDateID != nil && *event.SelectedProposalDateID == date.ID
		d.Proposals[i].Dates = append(d.Proposals[i].Dates, render.DateDetail{
			Date:     date,
			Votes:    votes[date.ID],
			Selected: selected,
		})
	}

	for _, r := range ratings {
		i, ok := index[r.ProposalID]
		if !ok {
			continue
		}
		if r.Liked {
			d.Proposals[i].Likes++
		} else {
			d.Proposals[i].Dislikes++
		}
	}

	return d
}

var eventJoinCmd = &cobra.Command{
	Use:   "join <id>",
	Short: "Join an event as a participant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		conn := getDB(cmd)

		id, err := parseIDArg(args[0], "event")
		if err != nil {
			return err
		}
		u, err := actingUser(cmd)
		if err != nil {
			return err
		}

		event, err := db.GetEvent(conn, id)
		if err != nil {
			return storeErr(err, fmt.Sprintf("event %s", model.FormatID(id)))
		}
		if event.Status != model.EventOpen {
			return cmdErr(fmt.Errorf("event %s is %s", model.FormatID(id), event.Status), output.ErrConflict)
		}
		if event.HasParticipant(u.ID) {
			w.Warn("%s already takes part in event %s", u.Username, model.FormatID(id))
		} else if err := db.AddParticipant(conn, id, u.ID); err != nil {
			return storeErr(err, "joining event")
		}

		event, err = db.GetEvent(conn, id)
		if err != nil {
			return storeErr(err, "reading event")
		}
		w.Success(event, fmt.Sprintf("%s joined event %s", u.Username, model.FormatID(id)))
		return nil
	},
}

var eventDecideCmd = &cobra.Command{
	Use:   "decide <id>",
	Short: "Select the winning proposal date of an event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		conn := getDB(cmd)

		id, err := parseIDArg(args[0], "event")
		if err != nil {
			return err
		}
		dateFlag, _ := cmd.Flags().GetString("date")
		dateID, err := parseIDArg(dateFlag, "proposal date")
		if err != nil {
			return err
		}

		if err := db.DecideEvent(conn, id, dateID); err != nil {
			return storeErr(err, fmt.Sprintf("deciding event %s", model.FormatID(id)))
		}

		event, err := db.GetEvent(conn, id)
		if err != nil {
			return storeErr(err, "reading event")
		}
		w.Success(event, fmt.Sprintf("Event %s decided on date %s", model.FormatID(id), model.FormatID(dateID)))
		return nil
	},
}

var eventCloseCmd = &cobra.Command{
	Use:   "close <id>",
	Short: "Close an event without a decision",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		conn := getDB(cmd)

		id, err := parseIDArg(args[0], "event")
		if err != nil {
			return err
		}

		event, err := db.GetEvent(conn, id)
		if err != nil {
			return storeErr(err, fmt.Sprintf("event %s", model.FormatID(id)))
		}
		if event.Status == model.EventClosed {
			w.Warn("Event %s is already closed", model.FormatID(id))
		} else if err := db.SetEventStatus(conn, id, model.EventClosed); err != nil {
			return storeErr(err, "closing event")
		}

		event.Status = model.EventClosed
		w.Success(event, fmt.Sprintf("Closed event %s", model.FormatID(id)))
		return nil
	},
}

// usernameMap resolves user IDs to usernames for display.
func usernameMap(conn *sql.DB) (map[int]string, error) {
	users, err := db.ListAllUsers(conn)
	if err != nil {
		return nil, storeErr(err, "listing users")
	}
	names := make(map[int]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}
	return names, nil
}

func init() {
	eventCreateCmd.Flags().String("deadline", "", "Voting deadline (RFC 3339, YYYY-MM-DD HH:MM or YYYY-MM-DD)")
	eventCreateCmd.Flags().StringP("description", "d", "", "Event description (markdown)")
	_ = eventCreateCmd.MarkFlagRequired("deadline")
	addUserFlag(eventCreateCmd)

	eventListCmd.Flags().StringSliceP("status", "s", nil, "Filter by status (repeatable)")
	eventListCmd.Flags().Bool("mine", false, "Only events the acting user takes part in")
	eventListCmd.Flags().Bool("organized", false, "Only events the acting user organizes")
	eventListCmd.Flags().String("search", "", "Filter by title substring")
	eventListCmd.Flags().Bool("board", false, "Show a board grouped by status")
	addUserFlag(eventListCmd)

	addUserFlag(eventJoinCmd)

	eventDecideCmd.Flags().String("date", "", "Proposal date ID to select")
	_ = eventDecideCmd.MarkFlagRequired("date")

	eventCmd.AddCommand(eventCreateCmd, eventListCmd, eventShowCmd, eventJoinCmd, eventDecideCmd, eventCloseCmd)
	rootCmd.AddCommand(eventCmd)
}
