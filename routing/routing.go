// Package routing validates and orders the graph formed by track output
// buses and sends.
package routing

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/voltlane/voltlane"
)

var (
	ErrInvalidBusTarget  = errors.New("invalid output bus target")
	ErrInvalidSendTarget = errors.New("invalid send target")
	ErrRoutingCycle      = errors.New("routing cycle detected")
)

// Edge is a signal connection from a track to a bus.
type Edge struct {
	From, To uuid.UUID
	Send     bool
}

// Edges lists the output bus link and the enabled sends of every track, in
// project order.
func Edges(tracks []voltlane.Track) []Edge {
	var ret []Edge
	for _, t := range tracks {
		if t.OutputBus != nil {
			ret = append(ret, Edge{From: t.ID, To: *t.OutputBus})
		}
		for _, s := range t.Sends {
			if s.Enabled {
				ret = append(ret, Edge{From: t.ID, To: s.TargetBus, Send: true})
			}
		}
	}
	return ret
}

// Validate checks that every edge targets an existing bus other than its
// source, and that the graph has no cycles.
func Validate(tracks []voltlane.Track) error {
	kinds := make(map[uuid.UUID]voltlane.TrackKind, len(tracks))
	for _, t := range tracks {
		kinds[t.ID] = t.Kind
	}
	adjacency := make(map[uuid.UUID][]uuid.UUID, len(tracks))
	for _, e := range Edges(tracks) {
		if kind, ok := kinds[e.To]; !ok || kind != voltlane.BusTrack || e.To == e.From {
			if e.Send {
				return fmt.Errorf("%w: track %v -> %v", ErrInvalidSendTarget, e.From, e.To)
			}
			return fmt.Errorf("%w: track %v -> %v", ErrInvalidBusTarget, e.From, e.To)
		}
		adjacency[e.From] = append(adjacency[e.From], e.To)
	}
	visiting := map[uuid.UUID]bool{}
	visited := map[uuid.UUID]bool{}
	var visit func(id uuid.UUID) bool
	visit = func(id uuid.UUID) bool {
		if visiting[id] {
			return false
		}
		if visited[id] {
			return true
		}
		visiting[id] = true
		for _, next := range adjacency[id] {
			if !visit(next) {
				return false
			}
		}
		delete(visiting, id)
		visited[id] = true
		return true
	}
	for _, t := range tracks {
		if !visit(t.ID) {
			return fmt.Errorf("%w at track %v", ErrRoutingCycle, t.ID)
		}
	}
	return nil
}

// Order returns track indices so that every track comes before the buses it
// feeds. Edges to tracks outside the project are ignored. Tracks that cannot
// be ordered, which only happens if the graph was not validated, are
// appended in project order.
func Order(tracks []voltlane.Track, logger *slog.Logger) []int {
	index := make(map[uuid.UUID]int, len(tracks))
	for i, t := range tracks {
		index[t.ID] = i
	}
	indegree := make([]int, len(tracks))
	adjacency := make([][]int, len(tracks))
	for _, e := range Edges(tracks) {
		to, ok := index[e.To]
		if !ok {
			continue
		}
		from := index[e.From]
		adjacency[from] = append(adjacency[from], to)
		indegree[to]++
	}
	queue := make([]int, 0, len(tracks))
	for i, d := range indegree {
		if d == 0 {
			queue = append(queue, i)
		}
	}
	order := make([]int, 0, len(tracks))
	placed := make([]bool, len(tracks))
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		order = append(order, i)
		placed[i] = true
		for _, next := range adjacency[i] {
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}
	if len(order) < len(tracks) {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("routing order did not resolve, appending remaining tracks in project order",
			"resolved", len(order), "tracks", len(tracks))
		for i, ok := range placed {
			if !ok {
				order = append(order, i)
			}
		}
	}
	return order
}
