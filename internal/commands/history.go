package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"intervals/backend/internal/model"
)

func newHistoryCmd(opts *options) *cobra.Command {
	var limit int

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				userID, err := a.login(cmd.Context(), opts)
				if err != nil {
					return err
				}
				sessions, apiErr := a.history.List(cmd.Context(), userID, limit)
				if apiErr != nil {
					return apiErr
				}
				if len(sessions) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No sessions yet")
					return nil
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "STARTED\tPRESET\tSETS\tWORK\tREST\tSTATUS")
				for _, session := range sessions {
					fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
						session.StartedAt.Local().Format("2006-01-02 15:04"),
						presetLabel(session),
						session.SetsCompleted,
						formatSeconds(session.TotalWorkSeconds),
						formatSeconds(session.TotalRestSeconds),
						sessionStatus(session),
					)
				}
				return w.Flush()
			})
		},
	}

	historyCmd.Flags().IntVar(&limit, "limit", 20, "number of sessions to show")
	return historyCmd
}

func presetLabel(session model.Session) string {
	if session.PresetName == nil {
		return "(deleted)"
	}
	return *session.PresetName
}

func sessionStatus(session model.Session) string {
	if session.EndedAt == nil {
		return "unfinished"
	}
	return "saved"
}

func formatSeconds(seconds int) string {
	return (time.Duration(seconds) * time.Second).String()
}
