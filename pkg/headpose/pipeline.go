package headpose

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/attentive-robotics/go-headpose/internal/log"
	"github.com/attentive-robotics/go-headpose/pkg/headpose/landmark"
)

// Frame is one camera frame handed to the pipeline. Close releases its
// resources and is safe to call more than once.
type Frame struct {
	ID   uuid.UUID
	JPEG []byte

	release func()
	closed  bool
}

// NewFrame wraps encoded frame bytes. The optional release hook runs
// when the frame is dropped or finished (return the buffer to a pool,
// unmap shared memory, and so on).
func NewFrame(jpeg []byte, release func()) *Frame {
	return &Frame{
		ID:      uuid.New(),
		JPEG:    jpeg,
		release: release,
	}
}

// Close releases the frame's resources.
func (f *Frame) Close() {
	if f.closed {
		return
	}
	f.closed = true
	f.JPEG = nil
	if f.release != nil {
		f.release()
	}
}

// Listener receives the terminal outcome of each admitted frame. It is
// invoked from the pipeline worker goroutine and must not assume any
// particular calling thread; redispatching to a UI context is the
// consumer's business.
type Listener func(Result)

// Pipeline is the frame dispatch gate plus the single solve worker.
//
// The gate is a two-state machine (idle/processing). A frame arriving
// while one is in flight is dropped and its resources released
// immediately; there is no queue, so pipeline latency is bounded by
// the landmark source's own latency. All completion paths, including
// panics, return the gate to idle so one fault can never stall the
// pipeline. The estimator state is therefore only ever touched from
// the worker goroutine.
type Pipeline struct {
	source    landmark.Source
	estimator *Estimator
	listener  Listener

	mu         sync.Mutex
	processing bool
	closed     bool
	dropped    uint64

	frames chan *Frame
	done   chan struct{}
}

// NewPipeline wires a landmark source and an estimator to a listener.
func NewPipeline(cfg Config, model *ReferenceModel, source landmark.Source, listener Listener) *Pipeline {
	return &Pipeline{
		source:    source,
		estimator: NewEstimator(cfg, model),
		listener:  listener,
		frames:    make(chan *Frame, 1),
		done:      make(chan struct{}),
	}
}

// Start launches the worker goroutine. The pipeline stops accepting
// frames when ctx is cancelled; an in-flight frame finishes first.
func (p *Pipeline) Start(ctx context.Context) {
	go p.run(ctx)
}

// Done is closed once the worker has exited after cancellation.
func (p *Pipeline) Done() <-chan struct{} {
	return p.done
}

// Submit offers a frame to the gate. When a frame is already in flight
// or the pipeline is shut down, the frame is released and Submit
// returns false. Dropped frames produce no listener notification. Safe
// to call from any goroutine.
func (p *Pipeline) Submit(f *Frame) bool {
	p.mu.Lock()
	if p.closed || p.processing {
		p.dropped++
		p.mu.Unlock()
		f.Close()
		return false
	}
	p.processing = true
	// The channel has capacity 1 and at most one frame is in flight,
	// so this send cannot block while holding the lock. Sending under
	// the lock orders it against the worker's shutdown drain.
	p.frames <- f
	p.mu.Unlock()
	return true
}

// Dropped returns how many frames the gate has discarded.
func (p *Pipeline) Dropped() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}

// Last returns a read-only snapshot of the last accepted pose. Safe to
// call from any goroutine once the pipeline is stopped; while running
// it is best-effort.
func (p *Pipeline) Last() (HeadPose, bool) {
	return p.estimator.Last()
}

func (p *Pipeline) run(ctx context.Context) {
	defer close(p.done)
	for {
		select {
		case <-ctx.Done():
			p.mu.Lock()
			p.closed = true
			p.mu.Unlock()
			// A frame admitted in the race against cancellation is
			// released, not processed.
			select {
			case f := <-p.frames:
				f.Close()
			default:
			}
			return

		case f := <-p.frames:
			res := p.process(ctx, f)
			if p.listener != nil {
				p.listener(res)
			}
			p.mu.Lock()
			p.processing = false
			p.mu.Unlock()
		}
	}
}

// process runs one admitted frame to its terminal outcome. The frame
// is always released and a panic anywhere below becomes an error
// result; the caller resets the gate afterwards in every case.
func (p *Pipeline) process(ctx context.Context, f *Frame) (res Result) {
	defer f.Close()
	defer func() {
		if r := recover(); r != nil {
			log.Error("panic processing frame", "frame", f.ID, "panic", r)
			res = ErrorResult(fmt.Sprintf("internal fault: %v", r))
			res.FrameID = f.ID
		}
	}()

	obs, err := p.source.Detect(ctx, f.JPEG)
	if err != nil {
		log.Warn("landmark detection failed", "frame", f.ID, "error", err)
		res = ErrorResult(err.Error())
		res.FrameID = f.ID
		return res
	}

	res = p.estimator.Update(obs, time.Now())
	res.FrameID = f.ID
	return res
}
