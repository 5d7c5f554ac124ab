package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ALT-F4-LLC/dinnerplan/internal/db"
	"github.com/ALT-F4-LLC/dinnerplan/internal/model"
	"github.com/ALT-F4-LLC/dinnerplan/internal/output"
	"github.com/ALT-F4-LLC/dinnerplan/internal/render"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Create a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		conn := getDB(cmd)

		username := strings.TrimSpace(args[0])
		if username == "" {
			return cmdErr(fmt.Errorf("username must not be empty"), output.ErrValidation)
		}

		roleFlag, _ := cmd.Flags().GetString("role")
		role := model.Role(strings.ToUpper(roleFlag))
		if err := model.ValidateRole(role); err != nil {
			return cmdErr(err, output.ErrValidation)
		}

		password, _ := cmd.Flags().GetString("password")
		if password == "" && !w.JSONMode {
			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().
						Title(fmt.Sprintf("Password for %s", username)).
						EchoMode(huh.EchoModePassword).
						Validate(func(s string) error {
							if s == "" {
								return fmt.Errorf("password must not be empty")
							}
							return nil
						}).
						Value(&password),
				),
			)
			if err := form.Run(); err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					w.Info("Cancelled.")
					return nil
				}
				return cmdErr(fmt.Errorf("interactive form failed: %w", err), output.ErrGeneral)
			}
		}
		if password == "" {
			return cmdErr(fmt.Errorf("--password is required"), output.ErrValidation)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return cmdErr(fmt.Errorf("hashing password: %w", err), output.ErrValidation)
		}

		user := &model.User{Username: username, PasswordHash: string(hash), Role: role}
		id, err := db.CreateUser(conn, user)
		if err != nil {
			return storeErr(err, "creating user")
		}
		user.ID = id

		w.Success(user, fmt.Sprintf("Created user %s %s (%s)", model.FormatID(id), username, role))
		return nil
	},
}

type userListResult struct {
	Users []*model.User `json:"users"`
	Total int           `json:"total"`
}

var userListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List users",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)

		users, err := db.ListAllUsers(getDB(cmd))
		if err != nil {
			return storeErr(err, "listing users")
		}

		if w.JSONMode {
			w.Success(userListResult{Users: users, Total: len(users)}, "")
			return nil
		}
		if len(users) == 0 {
			w.Success(nil, render.EmptyState("No users yet.", "Create one with: dinnerplan user add <username>", w.QuietMode))
			return nil
		}
		w.Success(nil, render.RenderUserTable(users))
		return nil
	},
}

func init() {
	userAddCmd.Flags().String("role", string(model.RoleParticipant), "Role: ADMIN, ORGANIZER or PARTICIPANT")
	userAddCmd.Flags().String("password", "", "Password (prompted when omitted)")

	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userListCmd)
	rootCmd.AddCommand(userCmd)
}
