package headpose

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attentive-robotics/go-headpose/pkg/headpose/landmark"
)

// resultCollector is a thread-safe listener for tests.
type resultCollector struct {
	mu      sync.Mutex
	results []Result
}

func (c *resultCollector) listen(res Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, res)
}

func (c *resultCollector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.results)
}

func (c *resultCollector) last() Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.results[len(c.results)-1]
}

func TestPipeline_SingleFlightDropsOverflow(t *testing.T) {
	release := make(chan struct{})
	source := &landmark.Mock{
		DetectFunc: func(ctx context.Context, jpeg []byte) (*landmark.Observation, error) {
			<-release // hold the gate in processing
			return nil, nil
		},
	}

	collector := &resultCollector{}
	pipe := NewPipeline(DefaultConfig(), DefaultModel(), source, collector.listen)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pipe.Start(ctx)

	require.True(t, pipe.Submit(NewFrame([]byte("frame-1"), nil)))

	// Wait until the worker actually holds the frame.
	require.Eventually(t, func() bool {
		return source.CallCount("Detect") == 1
	}, time.Second, time.Millisecond)

	// Second frame arrives while processing: dropped, resources
	// released, no listener notification.
	released := false
	dropped := NewFrame([]byte("frame-2"), func() { released = true })
	assert.False(t, pipe.Submit(dropped))
	assert.True(t, released, "dropped frame must be released immediately")
	assert.Equal(t, uint64(1), pipe.Dropped())
	assert.Equal(t, 0, collector.count())

	// Completing the in-flight frame reopens the gate.
	close(release)
	require.Eventually(t, func() bool {
		return collector.count() == 1
	}, time.Second, time.Millisecond)
	assert.Equal(t, KindNoFace, collector.last().Kind)

	require.Eventually(t, func() bool {
		return pipe.Submit(NewFrame([]byte("frame-3"), nil))
	}, time.Second, time.Millisecond, "gate should accept frames again after completion")
}

func TestPipeline_SourceErrorSurfacesAndResetsGate(t *testing.T) {
	source := &landmark.Mock{
		DetectFunc: func(ctx context.Context, jpeg []byte) (*landmark.Observation, error) {
			return nil, errors.New("camera unplugged")
		},
	}

	collector := &resultCollector{}
	pipe := NewPipeline(DefaultConfig(), DefaultModel(), source, collector.listen)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pipe.Start(ctx)

	frame := NewFrame([]byte("frame"), nil)
	require.True(t, pipe.Submit(frame))

	require.Eventually(t, func() bool {
		return collector.count() == 1
	}, time.Second, time.Millisecond)

	res := collector.last()
	assert.Equal(t, KindError, res.Kind)
	assert.Contains(t, res.Err, "camera unplugged")
	assert.Equal(t, frame.ID, res.FrameID)

	// An error outcome must not leave the gate stuck in processing.
	require.Eventually(t, func() bool {
		return pipe.Submit(NewFrame([]byte("next"), nil))
	}, time.Second, time.Millisecond)
}

func TestPipeline_PanicBecomesErrorAndResetsGate(t *testing.T) {
	source := &landmark.Mock{
		DetectFunc: func(ctx context.Context, jpeg []byte) (*landmark.Observation, error) {
			panic("detector blew up")
		},
	}

	collector := &resultCollector{}
	pipe := NewPipeline(DefaultConfig(), DefaultModel(), source, collector.listen)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pipe.Start(ctx)

	require.True(t, pipe.Submit(NewFrame([]byte("frame"), nil)))

	require.Eventually(t, func() bool {
		return collector.count() == 1
	}, time.Second, time.Millisecond)
	assert.Equal(t, KindError, collector.last().Kind)
	assert.Contains(t, collector.last().Err, "internal fault")

	require.Eventually(t, func() bool {
		return pipe.Submit(NewFrame([]byte("next"), nil))
	}, time.Second, time.Millisecond)
}

func TestPipeline_DeliversPose(t *testing.T) {
	angles := EulerAngles{Pitch: 8, Yaw: -12, Roll: 5}
	obs := projectObservation(t, DefaultModel(), RotationFromEuler(angles), [3]float64{0, 0, 900}, DefaultIntrinsics())

	source := &landmark.Mock{
		DetectFunc: func(ctx context.Context, jpeg []byte) (*landmark.Observation, error) {
			return obs, nil
		},
	}

	collector := &resultCollector{}
	pipe := NewPipeline(DefaultConfig(), DefaultModel(), source, collector.listen)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pipe.Start(ctx)

	require.True(t, pipe.Submit(NewFrame([]byte("frame"), nil)))
	require.Eventually(t, func() bool {
		return collector.count() == 1
	}, time.Second, time.Millisecond)

	res := collector.last()
	require.Equal(t, KindPose, res.Kind)
	assert.InDelta(t, angles.Yaw, res.Pose.Yaw, 0.5)
	assert.InDelta(t, angles.Pitch, res.Pose.Pitch, 0.5)
	assert.False(t, res.Pose.InPosition)

	snap, ok := pipe.Last()
	require.True(t, ok)
	assert.Equal(t, res.Pose, snap)
}

func TestPipeline_ShutdownStopsAcceptingFrames(t *testing.T) {
	source := &landmark.Mock{}
	pipe := NewPipeline(DefaultConfig(), DefaultModel(), source, nil)

	ctx, cancel := context.WithCancel(context.Background())
	pipe.Start(ctx)

	cancel()
	<-pipe.Done()

	released := false
	assert.False(t, pipe.Submit(NewFrame([]byte("late"), func() { released = true })))
	assert.True(t, released, "frames rejected at shutdown must still be released")
}

func TestFrame_CloseIsIdempotent(t *testing.T) {
	calls := 0
	f := NewFrame([]byte("x"), func() { calls++ })
	f.Close()
	f.Close()
	assert.Equal(t, 1, calls)
	assert.Nil(t, f.JPEG)
}
