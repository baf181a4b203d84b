package notify

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/pcrdb/internal/config"
	"github.com/tphakala/pcrdb/internal/logger"
	"github.com/tphakala/pcrdb/internal/notification"
)

// Command returns a cobra command that reminds users about overdue samples
func Command(ctx *config.Context) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "overdue",
		Short: "Send overdue sample reminders",
		Long: `Send one reminder to every user holding samples longer than the configured
holding period. Meant to be run periodically, for example from cron.

Examples:
  # List who would be notified without sending anything
  pcrdb overdue --dry-run

  # Send the reminders through the configured notification URLs
  pcrdb overdue`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.Service(cmd.Context())
			if err != nil {
				return err
			}

			var sender notification.Sender
			if !dryRun {
				s, err := notification.NewShoutrrrSender(ctx.Settings.Notification.URLs, ctx.Settings.Notification.Timeout)
				if err != nil {
					return err
				}
				sender = s
			}

			notifier := notification.NewNotifier(svc, sender, ctx.Settings.Notification, ctx.Settings.Inventory.OverdueDays,
				notification.WithLogger(logger.Global().Module("notification")),
				notification.WithMetrics(ctx.Metrics.Notification))

			summary, err := notifier.Run(cmd.Context(), dryRun)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "users: %d, sent: %d, failed: %d, skipped: %d\n",
				summary.Users, summary.Sent, summary.Failed, summary.Skipped)
			if summary.Failed > 0 {
				return fmt.Errorf("%d notifications failed", summary.Failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log the reminders instead of sending them")

	return cmd
}
