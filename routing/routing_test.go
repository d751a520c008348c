package routing_test

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/voltlane/voltlane"
	"github.com/voltlane/voltlane/routing"
)

func tracks() []voltlane.Track {
	return []voltlane.Track{
		voltlane.NewTrack("Lead", "#22c7b8", voltlane.MidiTrack),
		voltlane.NewTrack("Bus A", "#ffaa66", voltlane.BusTrack),
		voltlane.NewTrack("Bus B", "#f08a89", voltlane.BusTrack),
	}
}

func route(t *voltlane.Track, bus uuid.UUID) {
	t.OutputBus = &bus
}

func TestValidateAcceptsChain(t *testing.T) {
	ts := tracks()
	route(&ts[0], ts[1].ID)
	route(&ts[1], ts[2].ID)
	ts[0].Sends = []voltlane.Send{{ID: uuid.New(), TargetBus: ts[2].ID, Enabled: true}}
	if err := routing.Validate(ts); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestValidateRejectsInvalidTargets(t *testing.T) {
	ts := tracks()
	route(&ts[0], uuid.New())
	if err := routing.Validate(ts); !errors.Is(err, routing.ErrInvalidBusTarget) {
		t.Fatalf("unknown bus: got %v, expected %v", err, routing.ErrInvalidBusTarget)
	}
	ts = tracks()
	route(&ts[1], ts[1].ID)
	if err := routing.Validate(ts); !errors.Is(err, routing.ErrInvalidBusTarget) {
		t.Fatalf("self route: got %v, expected %v", err, routing.ErrInvalidBusTarget)
	}
	ts = tracks()
	ts[1].Sends = []voltlane.Send{{ID: uuid.New(), TargetBus: ts[0].ID, Enabled: true}}
	if err := routing.Validate(ts); !errors.Is(err, routing.ErrInvalidSendTarget) {
		t.Fatalf("send to non-bus: got %v, expected %v", err, routing.ErrInvalidSendTarget)
	}
	ts[1].Sends[0].Enabled = false
	if err := routing.Validate(ts); err != nil {
		t.Fatalf("disabled sends should not be validated, got %v", err)
	}
}

func TestValidateRejectsCycles(t *testing.T) {
	ts := tracks()
	route(&ts[1], ts[2].ID)
	route(&ts[2], ts[1].ID)
	if err := routing.Validate(ts); !errors.Is(err, routing.ErrRoutingCycle) {
		t.Fatalf("two bus cycle: got %v, expected %v", err, routing.ErrRoutingCycle)
	}
	ts = tracks()
	route(&ts[1], ts[2].ID)
	ts[2].Sends = []voltlane.Send{{ID: uuid.New(), TargetBus: ts[1].ID, Enabled: true}}
	if err := routing.Validate(ts); !errors.Is(err, routing.ErrRoutingCycle) {
		t.Fatalf("cycle through a send: got %v, expected %v", err, routing.ErrRoutingCycle)
	}
}

func TestOrderPutsSourcesBeforeBuses(t *testing.T) {
	ts := tracks()
	// Bus B first in project order, fed by Bus A which is fed by Lead.
	ts[0], ts[2] = ts[2], ts[0]
	route(&ts[2], ts[1].ID)
	route(&ts[1], ts[0].ID)
	order := routing.Order(ts, nil)
	position := map[int]int{}
	for p, i := range order {
		position[i] = p
	}
	if len(order) != 3 || !(position[2] < position[1] && position[1] < position[0]) {
		t.Fatalf("got order %v, expected [2 1 0]", order)
	}
}

func TestOrderFallsBackOnCycles(t *testing.T) {
	ts := tracks()
	route(&ts[1], ts[2].ID)
	route(&ts[2], ts[1].ID)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	order := routing.Order(ts, logger)
	expected := []int{0, 1, 2}
	if len(order) != len(expected) {
		t.Fatalf("got order %v, expected %v", order, expected)
	}
	for i := range expected {
		if order[i] != expected[i] {
			t.Fatalf("got order %v, expected %v", order, expected)
		}
	}
}
