package main

import (
	"fmt"
	"strings"

	"github.com/ALT-F4-LLC/dinnerplan/internal/db"
	"github.com/ALT-F4-LLC/dinnerplan/internal/model"
	"github.com/ALT-F4-LLC/dinnerplan/internal/output"
	"github.com/ALT-F4-LLC/dinnerplan/internal/render"
	"github.com/spf13/cobra"
)

var messageCmd = &cobra.Command{
	Use:   "message <event-id> <content>",
	Short: "Post a message to an event",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		conn := getDB(cmd)

		eventID, err := parseIDArg(args[0], "event")
		if err != nil {
			return err
		}
		content := strings.TrimSpace(args[1])
		if content == "" {
			return cmdErr(fmt.Errorf("message must not be empty"), output.ErrValidation)
		}

		u, err := actingUser(cmd)
		if err != nil {
			return err
		}

		msg := &model.DinnerEventMessage{EventID: eventID, SenderID: u.ID, Content: content}
		id, err := db.PostMessage(conn, msg)
		if err != nil {
			return storeErr(err, "posting message")
		}
		msg.ID = id

		w.Success(msg, fmt.Sprintf("Posted message %s to event %s", model.FormatID(id), model.FormatID(eventID)))
		return nil
	},
}

type messagesResult struct {
	Messages []*model.DinnerEventMessage `json:"messages"`
	Total    int                         `json:"total"`
}

var messagesCmd = &cobra.Command{
	Use:   "messages <event-id>",
	Short: "Show the messages of an event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		conn := getDB(cmd)

		eventID, err := parseIDArg(args[0], "event")
		if err != nil {
			return err
		}
		if _, err := db.GetEvent(conn, eventID); err != nil {
			return storeErr(err, fmt.Sprintf("event %s", model.FormatID(eventID)))
		}

		msgs, err := db.ListMessages(conn, eventID)
		if err != nil {
			return storeErr(err, "listing messages")
		}

		if w.JSONMode {
			w.Success(messagesResult{Messages: msgs, Total: len(msgs)}, "")
			return nil
		}

		usernames, err := usernameMap(conn)
		if err != nil {
			return err
		}
		w.Success(nil, render.RenderMessages(msgs, usernames))
		return nil
	},
}

func init() {
	addUserFlag(messageCmd)
	rootCmd.AddCommand(messageCmd, messagesCmd)
}
