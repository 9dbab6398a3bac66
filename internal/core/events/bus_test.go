package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestEvents(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Events Suite")
}

var _ = Describe("EventBus", func() {
	var bus *EventBus

	BeforeEach(func() {
		bus = NewEventBus(slog.New(slog.NewTextHandler(io.Discard, nil)))
	})

	event := func() *StatusChangedEvent {
		return NewStatusChangedEvent(EventTypeBookingStatusChanged, "booking", "b-1", "b-1", "pending", "confirmed", "u-1")
	}

	It("delivers async events to every subscriber", func() {
		var calls atomic.Int32
		for i := 0; i < 2; i++ {
			bus.Subscribe(EventTypeBookingStatusChanged, func(ctx context.Context, e Event) error {
				calls.Add(1)
				return nil
			})
		}

		Expect(bus.Publish(context.Background(), event())).To(Succeed())

		Eventually(calls.Load).Should(Equal(int32(2)))
	})

	It("keeps async handlers running after the publisher's context ends", func() {
		ctx, cancel := context.WithCancel(context.Background())
		seen := make(chan error, 1)
		bus.Subscribe(EventTypeBookingStatusChanged, func(ctx context.Context, e Event) error {
			seen <- ctx.Err()
			return nil
		})

		Expect(bus.Publish(ctx, event())).To(Succeed())
		cancel()

		Eventually(seen).Should(Receive(BeNil()))
	})

	It("ignores events nobody listens to", func() {
		Expect(bus.Publish(context.Background(), event())).To(Succeed())
		Expect(bus.PublishSync(context.Background(), event())).To(Succeed())
		Expect(bus.HandlerCount(EventTypePaymentStatusChanged)).To(BeZero())
	})

	It("stops at the first failing handler in sync mode", func() {
		var second bool
		bus.Subscribe(EventTypeBookingStatusChanged, func(ctx context.Context, e Event) error {
			return errors.New("store down")
		})
		bus.Subscribe(EventTypeBookingStatusChanged, func(ctx context.Context, e Event) error {
			second = true
			return nil
		})

		err := bus.PublishSync(context.Background(), event())

		Expect(err).To(MatchError(ContainSubstring("store down")))
		Expect(second).To(BeFalse())
	})

	It("lets a handler subscribe while an event is being delivered", func() {
		done := make(chan struct{})
		bus.Subscribe(EventTypeBookingStatusChanged, func(ctx context.Context, e Event) error {
			bus.Subscribe(EventTypePaymentStatusChanged, func(context.Context, Event) error { return nil })
			close(done)
			return nil
		})

		Expect(bus.PublishSync(context.Background(), event())).To(Succeed())
		Eventually(done).Should(BeClosed())
		Expect(bus.HandlerCount(EventTypePaymentStatusChanged)).To(Equal(1))
	})

	It("falls back to the default logger", func() {
		Expect(NewEventBus(nil).Publish(context.Background(), event())).To(Succeed())
	})

	It("carries the status change in the payload", func() {
		e := event()

		Expect(e.EventID()).NotTo(BeEmpty())
		Expect(e.Payload()).To(HaveKeyWithValue("to_status", "confirmed"))
		Expect(e.Payload()).To(HaveKeyWithValue("record_id", "b-1"))
	})
})
