package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/travel-backoffice/internal/core/events"
	"github.com/frahmantamala/travel-backoffice/internal/datastore"
	"github.com/frahmantamala/travel-backoffice/internal/notification"
	"github.com/frahmantamala/travel-backoffice/pkg/logger"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Publish status change events by hand, for replaying notifications that were lost.`,
}

var (
	eventFrom      string
	eventTo        string
	eventBookingID string
)

var publishEventCmd = &cobra.Command{
	Use:       "publish [booking|payment|transfer] [record-id]",
	Short:     "Publish a status change event",
	Long:      `Publish a status change through the event bus. The notification handlers turn it into a broadcast notification.`,
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"booking", "payment", "transfer"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		log := logger.LoggerWrapper()
		store := datastore.NewClient(datastore.Config{
			BaseURL:      cfg.Store.BaseURL,
			APIKey:       cfg.Store.APIKey,
			Timeout:      cfg.Store.RequestTimeout(),
			MaxRetries:   cfg.Store.MaxRetries,
			RetryBackoff: cfg.Store.RetryBackoff,
		}, log)

		return publishStatusEvent(context.Background(), notification.NewService(store, log), log, os.Stdout,
			args[0], args[1], eventBookingID, eventFrom, eventTo)
	},
}

var eventTypes = map[string]string{
	"booking":  events.EventTypeBookingStatusChanged,
	"payment":  events.EventTypePaymentStatusChanged,
	"transfer": events.EventTypeTransferStatusChanged,
}

// publishStatusEvent runs the event through a one-shot bus and dispatcher, and returns
// once the notification write has finished.
func publishStatusEvent(ctx context.Context, creator notification.Creator, log *slog.Logger, out io.Writer, entity, recordID, bookingID, from, to string) error {
	eventType, ok := eventTypes[entity]
	if !ok {
		return fmt.Errorf("unknown entity %q: want booking, payment or transfer", entity)
	}
	if to == "" {
		return fmt.Errorf("--to is required")
	}

	dispatcher := notification.NewDispatcher(creator, notification.DispatcherConfig{Workers: 1, QueueSize: 1}, log)
	bus := events.NewEventBus(log)
	notification.NewEventHandler(dispatcher, log).RegisterEventHandlers(bus)

	event := events.NewStatusChangedEvent(eventType, entity, recordID, bookingID, from, to, "cli")
	err := bus.PublishSync(ctx, event)
	dispatcher.Shutdown()
	if err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}

	fmt.Fprintf(out, "published %s %s (%s)\n", eventType, event.EventID(), recordID)
	return nil
}

func init() {
	publishEventCmd.Flags().StringVar(&eventFrom, "from", "", "previous status")
	publishEventCmd.Flags().StringVar(&eventTo, "to", "", "new status")
	publishEventCmd.Flags().StringVar(&eventBookingID, "booking", "", "booking the record belongs to")

	eventCmd.AddCommand(publishEventCmd)
}
