package transfer_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/travel-backoffice/internal/core/events"
	"github.com/frahmantamala/travel-backoffice/internal/datastore"
	"github.com/frahmantamala/travel-backoffice/internal/datastore/datastoretest"
	"github.com/frahmantamala/travel-backoffice/internal/transfer"
)

func TestTransfer(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Transfer Suite")
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*events.StatusChangedEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event.(*events.StatusChangedEvent))
	return nil
}

var _ = Describe("Service", func() {
	var (
		server    *datastoretest.Server
		publisher *recordingPublisher
		service   *transfer.Service
		ctx       context.Context
		now       = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	)

	at := func(offset time.Duration) string {
		return now.Add(offset).Format(time.RFC3339)
	}

	BeforeEach(func() {
		server = datastoretest.NewServer()
		publisher = &recordingPublisher{}
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		service = transfer.NewService(datastore.NewClient(server.Config(), logger), publisher, logger)
		service.SetClock(func() time.Time { return now })
		ctx = context.Background()
	})

	AfterEach(func() {
		server.Close()
	})

	It("orders by pickup time, earliest first", func() {
		server.Seed(transfer.Table,
			datastoretest.Row{"id": "late", "pickup_time": at(5 * time.Hour)},
			datastoretest.Row{"id": "early", "pickup_time": at(time.Hour)},
		)

		res := service.FetchAll(ctx)

		Expect(res.OK()).To(BeTrue())
		Expect(res.Value[0].ID).To(Equal("early"))
		Expect(res.Value[0].PickupTime).To(BeTemporally("==", now.Add(time.Hour)))
	})

	It("lists upcoming transfers inside the window, skipping cancelled ones", func() {
		server.Seed(transfer.Table,
			datastoretest.Row{"id": "past", "pickup_time": at(-time.Hour), "status": "scheduled"},
			datastoretest.Row{"id": "soon", "pickup_time": at(2 * time.Hour), "status": "scheduled"},
			datastoretest.Row{"id": "dropped", "pickup_time": at(3 * time.Hour), "status": "cancelled"},
			datastoretest.Row{"id": "later", "pickup_time": at(72 * time.Hour), "status": "scheduled"},
		)

		res := service.FetchUpcoming(ctx, 24*time.Hour)

		Expect(res.OK()).To(BeTrue())
		Expect(res.Value).To(HaveLen(1))
		Expect(res.Value[0].ID).To(Equal("soon"))
	})

	It("assigns a driver and announces the transition", func() {
		server.Seed(transfer.Table, datastoretest.Row{"id": "t-1", "booking_id": "b-1", "pickup_time": at(time.Hour), "status": "scheduled"})

		res := service.AssignDriver(ctx, "t-1", transfer.AssignDriverRequest{DriverName: "Ravi", DriverPhone: "+91 98"})

		Expect(res.OK()).To(BeTrue())
		Expect(res.Value.Status).To(Equal(transfer.StatusAssigned))
		Expect(*res.Value.DriverName).To(Equal("Ravi"))
		Expect(publisher.events).To(HaveLen(1))
		Expect(publisher.events[0].BookingID).To(Equal("b-1"))
		Expect(publisher.events[0].FromStatus).To(Equal("scheduled"))
	})

	It("stays quiet when the status does not change", func() {
		server.Seed(transfer.Table, datastoretest.Row{"id": "t-1", "pickup_time": at(time.Hour), "status": "completed"})

		Expect(service.UpdateStatus(ctx, "t-1", "completed").OK()).To(BeTrue())
		Expect(publisher.events).To(BeEmpty())
	})

	It("rejects unknown statuses", func() {
		Expect(service.UpdateStatus(ctx, "t-1", "flying").Status).To(Equal(datastore.StatusClientError))
		Expect(server.Requests()).To(BeEmpty())
	})

	It("creates scheduled transfers", func() {
		res := service.Create(ctx, transfer.CreateTransferRequest{
			BookingID:      "b-1",
			Kind:           transfer.KindAirportPickup,
			PickupLocation: "GOI",
			DropLocation:   "Hotel",
			PickupTime:     now.Add(time.Hour),
			Passengers:     2,
		})

		Expect(res.OK()).To(BeTrue())
		Expect(res.Value.Status).To(Equal(transfer.StatusScheduled))
	})
})
