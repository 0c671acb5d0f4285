package events

import (
	"context"
	"errors"
	"testing"
)

func TestDispatcherDeliversToAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()

	var calls []string
	d.Subscribe(EventUserRegistered, func(_ context.Context, e Event) error {
		calls = append(calls, "first:"+e.UserID)
		return errors.New("handler failure should not stop delivery")
	})
	d.Subscribe(EventUserRegistered, func(_ context.Context, e Event) error {
		calls = append(calls, "second:"+e.UserID)
		return nil
	})
	d.Subscribe(EventUserRemoved, func(_ context.Context, _ Event) error {
		calls = append(calls, "unrelated")
		return nil
	})

	if err := d.Publish(context.Background(), Event{Type: EventUserRegistered, UserID: "u-1"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if len(calls) != 2 || calls[0] != "first:u-1" || calls[1] != "second:u-1" {
		t.Fatalf("unexpected handler calls: %v", calls)
	}
}
