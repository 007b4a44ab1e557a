// Package topk detects clients that take an outsized share of the traffic
// while the server is under heavy load.
package topk

import (
	"sync"
	"time"

	"github.com/keilerkonzept/topk/sliding"
)

// SketchParams sizes the sketch and sets when it reports offenders.
//
// The window spans WindowSize ticks of TickSize requests each. Once the
// request rate measured over the last tick reaches ActivationRPS, every
// client holding more than MaxSharePercent of the window is reported.
type SketchParams struct {
	K               int
	WindowSize      int
	Width           int
	Depth           int
	TickSize        uint64
	MaxSharePercent int
	ActivationRPS   int
}

// Levels are presets trading memory for accuracy.
//   - "low":    a few KB, sites below ~50 rps.
//   - "medium": ~120 KB, most deployments.
//   - "high":   ~640 KB, busy sites.
var Levels = map[string]SketchParams{
	"low": {
		K: 2, WindowSize: 5, Width: 256, Depth: 2, TickSize: 100, MaxSharePercent: 50,
	},
	"medium": {
		K: 3, WindowSize: 10, Width: 1024, Depth: 3, TickSize: 100, MaxSharePercent: 30,
	},
	"high": {
		K: 5, WindowSize: 10, Width: 4096, Depth: 4, TickSize: 200, MaxSharePercent: 20,
	},
}

type TopKSketch struct {
	mu       sync.Mutex
	sketch   *sliding.Sketch
	tickSize uint64
	tickReq  uint64

	activationRPS int
	threshold     uint32

	lastTick time.Time
	now      func() time.Time
}

func New(params SketchParams) *TopKSketch {
	if params.TickSize == 0 {
		params.TickSize = 100
	}
	if params.WindowSize < 1 {
		params.WindowSize = 1
	}

	windowCapacity := uint64(params.WindowSize) * params.TickSize
	cs := &TopKSketch{
		sketch: sliding.New(params.K, params.WindowSize,
			sliding.WithWidth(params.Width),
			sliding.WithDepth(params.Depth),
		),
		tickSize:      params.TickSize,
		activationRPS: params.ActivationRPS,
		threshold:     uint32(windowCapacity * uint64(params.MaxSharePercent) / 100),
		now:           time.Now,
	}
	cs.lastTick = cs.now()
	return cs
}

// ProcessTick counts one request from client. At the end of each tick it
// returns the clients above the share threshold, nil otherwise.
func (cs *TopKSketch) ProcessTick(client string) []string {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.sketch.Incr(client)
	cs.tickReq++
	if cs.tickReq < cs.tickSize {
		return nil
	}

	now := cs.now()
	elapsed := now.Sub(cs.lastTick)
	cs.lastTick = now
	cs.tickReq = 0
	cs.sketch.Tick()

	// a tick completing within the clock resolution counts as a burst
	if elapsed > 0 {
		rps := float64(cs.tickSize) / elapsed.Seconds()
		if rps < float64(cs.activationRPS) {
			return nil
		}
	}

	var offenders []string
	for _, item := range cs.sketch.SortedSlice() {
		if item.Count <= cs.threshold {
			break
		}
		offenders = append(offenders, item.Item)
	}
	return offenders
}
