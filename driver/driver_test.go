package driver

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TFMV/growthgraph/models"
	"github.com/TFMV/growthgraph/physics"
)

// fakeSim records the order of calls made by the driver.
type fakeSim struct {
	calls []string
	ticks int
	nodes int
}

func (s *fakeSim) Frame() {
	s.ticks++
	s.calls = append(s.calls, "frame")
}

func (s *fakeSim) InsertLoop(count int, _, _, _ float64) {
	s.nodes += count
	s.calls = append(s.calls, "loop")
}

func (s *fakeSim) Capture(runID string) *models.Frame {
	f := models.NewFrame(runID, s.ticks, 100, 100)
	for i := 0; i < s.nodes; i++ {
		f.Nodes = append(f.Nodes, models.NodeState{ID: i})
	}
	return f
}

func TestNewPublishesInitialFrame(t *testing.T) {
	d := New(&fakeSim{}, DefaultConfig())
	f := d.Latest()
	require.NotNil(t, f)
	assert.Zero(t, f.Tick)
	assert.Equal(t, d.RunID(), f.RunID)
}

func TestEnqueuedLoopsApplyAtTickBoundary(t *testing.T) {
	sim := &fakeSim{}
	d := New(sim, DefaultConfig())

	require.NoError(t, d.Enqueue(models.LoopEvent{Count: 10, Radius: 40, X: 1, Y: 1}))
	require.NoError(t, d.Enqueue(models.LoopEvent{Count: 5, Radius: 40, X: 2, Y: 2}))
	assert.Empty(t, sim.calls, "enqueue must not touch the simulation")

	f := d.Step()
	assert.Equal(t, []string{"loop", "loop", "frame"}, sim.calls)
	assert.Equal(t, 1, f.Tick)
	assert.Len(t, f.Nodes, 15)

	d.Step()
	assert.Equal(t, []string{"loop", "loop", "frame", "frame"}, sim.calls)
}

func TestEnqueueRejectsInvalidAndFullQueue(t *testing.T) {
	cfg := DefaultConfig()
	cfg.QueueSize = 1
	d := New(&fakeSim{}, cfg)

	assert.ErrorIs(t, d.Enqueue(models.LoopEvent{Count: 0}), models.ErrInvalidLoop)
	require.NoError(t, d.Enqueue(models.LoopEvent{Count: 3, Radius: 1}))
	assert.ErrorIs(t, d.Enqueue(models.LoopEvent{Count: 3, Radius: 1}), ErrQueueFull)
}

func TestEnqueueBatchIsAllOrNothing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.QueueSize = 4
	sim := &fakeSim{}
	d := New(sim, cfg)

	loop := models.LoopEvent{Count: 2, Radius: 1}
	require.NoError(t, d.EnqueueBatch(loop, loop))

	dropped := testutil.ToFloat64(GrowthLoopsTotal.WithLabelValues("dropped"))
	assert.ErrorIs(t, d.EnqueueBatch(loop, loop, loop), ErrQueueFull)
	assert.Equal(t, 3.0, testutil.ToFloat64(GrowthLoopsTotal.WithLabelValues("dropped"))-dropped)

	err := d.EnqueueBatch(loop, models.LoopEvent{Count: models.MaxLoopPoints + 1})
	assert.ErrorIs(t, err, models.ErrInvalidLoop)
	assert.ErrorContains(t, err, "loop 1")

	d.Step()
	assert.Equal(t, 4, sim.nodes, "only the first batch is inserted")

	require.NoError(t, d.EnqueueBatch(loop, loop, loop, loop), "the drained queue has room again")
	require.NoError(t, d.EnqueueBatch())
}

func TestSeedInsertsImmediately(t *testing.T) {
	sim := &fakeSim{}
	d := New(sim, DefaultConfig())

	require.NoError(t, d.Seed(models.LoopEvent{Count: 49, Radius: 100, X: 400, Y: 300}))
	assert.Equal(t, []string{"loop"}, sim.calls)
	assert.Len(t, d.Latest().Nodes, 49)

	err := d.Seed(models.LoopEvent{Count: 4, Radius: 1}, models.LoopEvent{Count: -1})
	assert.ErrorIs(t, err, models.ErrInvalidLoop)
	assert.Len(t, sim.calls, 1, "a rejected batch inserts nothing")
}

func TestLatestIsACopy(t *testing.T) {
	d := New(&fakeSim{nodes: 2}, DefaultConfig())
	f := d.Latest()
	f.Nodes[0].X = 42
	assert.Zero(t, d.Latest().Nodes[0].X)
}

func TestRunStopsAtMaxTicks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FPS = 1000
	cfg.MaxTicks = 5
	sim := &fakeSim{}
	d := New(sim, cfg)

	before := testutil.ToFloat64(GrowthTicksTotal)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, d.Run(ctx))
	assert.Equal(t, 5, sim.ticks)
	assert.Equal(t, 5.0, testutil.ToFloat64(GrowthTicksTotal)-before)
}

func TestRunHonorsCancellation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FPS = 1000
	d := New(&fakeSim{}, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, d.Run(ctx), context.Canceled)
}

func TestRunRejectsBadConfig(t *testing.T) {
	for _, fps := range []int{0, -1, MaxFPS + 1, 2_000_000_000} {
		cfg := DefaultConfig()
		cfg.FPS = fps
		err := New(&fakeSim{}, cfg).Run(context.Background())
		require.Error(t, err, fps)
		assert.Contains(t, err.Error(), "fps")
	}

	cfg := DefaultConfig()
	cfg.FPS = MaxFPS
	assert.NoError(t, cfg.Validate())
}

func TestRunTicksWithPointCloud(t *testing.T) {
	pcfg := physics.DefaultConfig()
	pcfg.Seed = 3
	pc := physics.NewPointCloud(pcfg)
	d := New(pc, DefaultConfig())
	require.NoError(t, d.Seed(models.LoopEvent{Count: 49, Radius: 100, X: 400, Y: 300}))

	f, err := d.RunTicks(context.Background(), 20)
	require.NoError(t, err)
	assert.Equal(t, 20, f.Tick)
	assert.NotEmpty(t, f.Segments)
	assert.Len(t, f.Segments, 2*len(f.Edges))
	require.NoError(t, pc.Graph().Validate())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = d.RunTicks(ctx, 5)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 20, pc.Tick())
}
