package command

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

// Admin holds the commands that need the admin cookie. Each one logs
// in first when a password is given.
type Admin struct {
	Remote *Remote
}

func (cmd Admin) Commands(ctx context.Context) []*cobra.Command {
	activate := &cobra.Command{
		Use:   "activate",
		Short: "start a new queue session, clearing the previous one",
		Args:  cobra.NoArgs,
	}
	businessName := activate.Flags().String("business", "", "business name shown to customers")
	operator := activate.Flags().String("operator", "", "name of the person running the queue")
	activate.RunE = func(_ *cobra.Command, _ []string) error {
		return cmd.post(ctx, "/admin/activate", map[string]string{
			"businessName": *businessName,
			"operator":     *operator,
		})
	}

	return []*cobra.Command{
		activate,
		cmd.simple(ctx, "deactivate", "stop accepting customers", "/admin/deactivate"),
		cmd.simple(ctx, "next", "complete the current ticket and call the next one", "/admin/next"),
		cmd.simple(ctx, "add", "add a walk-in ticket", "/admin/add"),
		cmd.withTicket(ctx, "remove", "drop a ticket from the line", "/admin/remove/%v"),
		cmd.withTicket(ctx, "missing", "set aside a ticket whose customer is absent", "/admin/missing/%v"),
		cmd.withTicket(ctx, "recall", "put a missing ticket back in line", "/admin/recall/%v"),
		{
			Use:   "overview",
			Short: "show status, missing tickets and stats",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				if err := cmd.loginIfNeeded(ctx); err != nil {
					return err
				}
				return cmd.Remote.call(ctx, http.MethodGet, "/admin/overview", nil, cmd.Remote.Out)
			},
		},
	}
}

func (cmd Admin) simple(ctx context.Context, use, short, path string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmd.post(ctx, path, nil)
		},
	}
}

func (cmd Admin) withTicket(ctx context.Context, use, short, pathFormat string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <number>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return cmd.post(ctx, fmt.Sprintf(pathFormat, args[0]), nil)
		},
	}
}

func (cmd Admin) post(ctx context.Context, path string, body any) error {
	if err := cmd.loginIfNeeded(ctx); err != nil {
		return err
	}
	return cmd.Remote.call(ctx, http.MethodPost, path, body, cmd.Remote.Out)
}

func (cmd Admin) loginIfNeeded(ctx context.Context) error {
	if cmd.Remote.Password == "" {
		return nil
	}
	if err := cmd.Remote.login(ctx); err != nil {
		return fmt.Errorf("admin login failed: %w", err)
	}
	return nil
}
