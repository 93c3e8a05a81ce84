package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bassista/go_discover/internal/logger"
)

func newOpenCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "open <work-id>",
		Short: "Open one work in the browser and learn from it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid work id %q", args[0])
			}

			app, err := buildApp(c.cfg, newFeedClient(c.cfg))
			if err != nil {
				return err
			}
			defer app.Shutdown()

			opened, err := app.OpenWork(cmd.Context(), id)
			if err != nil {
				logger.WithComponent("main").Errorf("cannot open work %d: %v", id, err)
				return err
			}
			logger.WithComponent("main").Infof("recorded %v from %q", opened.Recorded, opened.Work.Title)
			return nil
		},
	}
}
