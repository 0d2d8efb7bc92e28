package main

import (
	"context"
	"fmt"
	"game-soul-technology/quickqueue/quickqueue-server/cmd/queuectl/command"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	const description = "QuickQueue command line client"
	root := &cobra.Command{Use: "queuectl", Short: description, SilenceUsage: true}

	remote := command.BindRemote(root)
	root.AddCommand(
		command.Customer{Remote: remote}.Commands(ctx)...,
	)
	root.AddCommand(
		command.Admin{Remote: remote}.Commands(ctx)...,
	)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
