package command

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

// Customer holds the commands anybody can run.
type Customer struct {
	Remote *Remote
}

func (cmd Customer) Commands(ctx context.Context) []*cobra.Command {
	return []*cobra.Command{
		{
			Use:   "join",
			Short: "take a ticket",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				return cmd.Remote.call(ctx, http.MethodPost, "/join", nil, cmd.Remote.Out)
			},
		},
		{
			Use:   "status",
			Short: "show who is served and who is waiting",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				return cmd.Remote.call(ctx, http.MethodGet, "/status", nil, cmd.Remote.Out)
			},
		},
		{
			Use:   "ticket <number>",
			Short: "show the state of one ticket",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				return cmd.Remote.call(ctx, http.MethodGet, fmt.Sprintf("/status/%v", args[0]), nil, cmd.Remote.Out)
			},
		},
	}
}
