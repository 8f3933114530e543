package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brk3/habitbot/internal/apiclient"
	"github.com/brk3/habitbot/internal/stats"
)

var (
	reportChat   int64
	reportPeriod string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print a user's progress report",
	Long: `The "report" command fetches the today, week or month progress of the user
bound to a Telegram chat from a running habitbot server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return report(cmd)
	},
}

func report(cmd *cobra.Command) error {
	period, err := stats.ParsePeriod(reportPeriod)
	if err != nil {
		return err
	}

	resp, err := apiclient.New(cfg.APIBaseURL).Report(cmd.Context(), reportChat, string(period))
	if err != nil {
		return fmt.Errorf("error fetching report: %w", err)
	}

	cmd.Printf("Chat %d, %s: %s to %s\n", resp.ChatID, resp.Period, resp.Start, resp.End)
	if len(resp.Habits) == 0 {
		cmd.Println("No habits yet.")
		return nil
	}
	for i, p := range resp.Habits {
		cmd.Printf("%d. %s  %d/%d %s %s  streak %d, best %d\n",
			i+1, p.Habit.Name, p.Done, p.Expected, p.Percent, p.Bar, p.CurrentStreak, p.LongestStreak)
	}
	return nil
}

func init() {
	reportCmd.Flags().Int64Var(&reportChat, "chat", 0, "telegram chat id of the user")
	reportCmd.Flags().StringVar(&reportPeriod, "period", string(stats.Week), "today, week or month")
	reportCmd.MarkFlagRequired("chat")
	rootCmd.AddCommand(reportCmd)
}
