package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/m3rciful/arrbot/bot/app"
	"github.com/m3rciful/arrbot/bot/auth"
)

func newUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Inspect and change user access",
	}
	cmd.AddCommand(newUsersListCmd())
	cmd.AddCommand(newUsersGrantCmd())
	return cmd
}

func newUsersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List authorized users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			store, err := app.OpenUsers(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			list, err := store.Users(cmd.Context(), auth.User)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tNAME\tLEVEL")
			for _, u := range list {
				_, _ = fmt.Fprintf(w, "%d\t%s\t%s\n", u.ID, u.Name, u.Level)
			}
			return w.Flush()
		},
	}
}

func newUsersGrantCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "grant <id> <level>",
		Short: "Set a user's level (none, user, mod, admin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid user id %q", args[0])
			}
			lvl, err := auth.ParseLevel(args[1])
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			store, err := app.OpenUsers(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if lvl == auth.None {
				err = store.Remove(cmd.Context(), id)
			} else {
				err = store.SetLevel(cmd.Context(), id, name, lvl)
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "user %d is now %s\n", id, lvl)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name stored with the user.")
	return cmd
}
