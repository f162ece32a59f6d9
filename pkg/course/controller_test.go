package course

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/coursepilot/pkg/config"
	"github.com/entrhq/coursepilot/pkg/types"
)

func TestDiscoverFindsAPI(t *testing.T) {
	p := newCoursePage(t, header{resume: true}, lessonMenu("l", "incomplete"))
	c, clock, relay := newTestController(p, testConfig())

	gen, ok := c.session.begin()
	require.True(t, ok)
	assert.Equal(t, types.PhaseDiscovering, c.Snapshot().Phase)

	require.True(t, c.discover(context.Background(), gen))

	assert.Equal(t, []string{"SCORM API found!", "Target: 93%", "Clicking Resume button"}, relay.logs())
	assert.Equal(t, types.PhaseRunning, c.Snapshot().Phase)
	assert.True(t, c.Snapshot().Running)
	assert.True(t, c.Snapshot().HasStarted)
	assert.Equal(t, []time.Duration{DefaultConfiguration().APIPollInterval, DiscoverySettleDelay}, clock.recorded())

	statuses := relay.statuses()
	require.NotEmpty(t, statuses)
	assert.True(t, statuses[len(statuses)-1].Running)
}

func TestDiscoverWithoutAPI(t *testing.T) {
	p := newCoursePage(t, header{}, lessonMenu("l", "incomplete"))
	p.page.Main().SetAPI(false, nil)

	cfg := testConfig()
	cfg.MaxAPIAttempts = 5
	cfg.APIPollInterval = 7 * time.Millisecond
	c, clock, relay := newTestController(p, cfg)

	gen, _ := c.session.begin()
	require.True(t, c.discover(context.Background(), gen))

	assert.Equal(t, []string{"Starting without API"}, relay.logs())
	assert.Equal(t, []string{"Starting without API"}, relay.logsOf(types.LogError))
	assert.True(t, c.Snapshot().Running)
	assert.False(t, c.Snapshot().HasStarted)

	polls := 0
	for _, d := range clock.recorded() {
		if d == cfg.APIPollInterval {
			polls++
		}
	}
	assert.Equal(t, 5, polls)
}

func TestDiscoverChecksAPIAtLeastOnce(t *testing.T) {
	for _, attempts := range []int{0, -1, 1} {
		p := newCoursePage(t, header{resume: true}, lessonMenu("l", "incomplete"))
		cfg := testConfig()
		cfg.MaxAPIAttempts = attempts
		c, clock, relay := newTestController(p, cfg)

		gen, _ := c.session.begin()
		require.True(t, c.discover(context.Background(), gen))

		assert.Equal(t, []string{"SCORM API found!", "Target: 93%", "Clicking Resume button"}, relay.logs(), "attempts=%d", attempts)
		assert.Equal(t, []time.Duration{cfg.APIPollInterval, DiscoverySettleDelay}, clock.recorded(), "attempts=%d", attempts)
	}

	p := newCoursePage(t, header{}, lessonMenu("l", "incomplete"))
	p.page.Main().SetAPI(false, nil)
	cfg := testConfig()
	cfg.MaxAPIAttempts = 0
	c, clock, relay := newTestController(p, cfg)

	gen, _ := c.session.begin()
	require.True(t, c.discover(context.Background(), gen))
	assert.Equal(t, []string{"Starting without API"}, relay.logs())
	assert.Equal(t, []time.Duration{cfg.APIPollInterval, DiscoverySettleDelay}, clock.recorded())
}

func TestDiscoverAbortedByStop(t *testing.T) {
	p := newCoursePage(t, header{resume: true}, lessonMenu("l", "incomplete"))
	p.page.Main().SetAPI(false, nil)
	c, clock, _ := newTestController(p, testConfig())
	clock.onSleep = func(time.Duration) { c.Stop() }

	gen, _ := c.session.begin()
	assert.False(t, c.discover(context.Background(), gen))

	assert.Equal(t, types.PhaseStopped, c.Snapshot().Phase)
	assert.False(t, c.Snapshot().Running)
	assert.Empty(t, p.page.Clicks())
}

func TestScenarioRetriesThenAdvanceThenExit(t *testing.T) {
	p := newCoursePage(t, header{next: true, exit: true}, lessonMenu("lesson-1", "incomplete"))
	cfg := testConfig()
	cfg.MaxRetries = 3
	c, _, relay := newTestController(p, cfg)
	c.session.markStarted()
	gen := running(t, c)
	ctx := context.Background()

	steps := []struct {
		progress string
		lessons  string
	}{
		{"10", lessonMenu("lesson-1", "incomplete")},
		{"10", lessonMenu("lesson-1", "incomplete")},
		{"50", lessonMenu("lesson-1", "complete")},
		{"93", lessonMenu("lesson-2", "incomplete")},
	}

	for i, step := range steps {
		p.setHeader(header{progress: step.progress, next: true, exit: true})
		p.setLessons(step.lessons)

		more, err := c.tick(ctx, gen)
		require.NoError(t, err)
		assert.Equal(t, i < len(steps)-1, more, "step %d", i)
	}

	assert.Equal(t, 2, p.clicks("retry"))
	assert.Equal(t, 1, p.clicks(IDNext))
	assert.Equal(t, 1, p.clicks("exit"))

	status := c.Snapshot()
	assert.False(t, status.Running)
	assert.Equal(t, types.PhaseStopped, status.Phase)
	assert.Equal(t, 93, status.Progress)
	assert.Equal(t, 0, status.Retries)

	logs := relay.logs()
	assert.Contains(t, logs, "Retry 1/3")
	assert.Contains(t, logs, "Retry 2/3")
	assert.Contains(t, logs, "Lesson complete - next")
	assert.Contains(t, logs, "Target reached: 93%")
	assert.Equal(t, []string{"Progress: 10%", "Progress: 50%", "Progress: 93%"}, filterPrefix(logs, "Progress:"))

	select {
	case <-c.Finished():
	default:
		t.Fatal("Finished not closed after exit")
	}

	more, err := c.tick(ctx, gen)
	require.NoError(t, err)
	assert.False(t, more)
	assert.Equal(t, 1, p.clicks("exit"), "exit attempted exactly once")
}

func TestScenarioForcedAdvance(t *testing.T) {
	p := newCoursePage(t, header{progress: "20", next: true}, lessonMenu("lesson-1", "incomplete"))
	cfg := testConfig()
	cfg.MaxRetries = 3
	c, _, relay := newTestController(p, cfg)
	c.session.markStarted()
	gen := running(t, c)

	var retries []int
	for i := 0; i < 3; i++ {
		more, err := c.tick(context.Background(), gen)
		require.NoError(t, err)
		require.True(t, more)
		retries = append(retries, c.Snapshot().Retries)
	}

	assert.Equal(t, []int{1, 2, 0}, retries)
	assert.Equal(t, 2, p.clicks("retry"), "no fourth retry")
	assert.Equal(t, 1, p.clicks(IDNext))
	assert.Equal(t, []string{"Max retries - forcing next"}, relay.logsOf(types.LogError))
}

func TestRetriesResetOnLessonChange(t *testing.T) {
	p := newCoursePage(t, header{progress: "20", next: true}, lessonMenu("lesson-1", "incomplete"))
	c, _, _ := newTestController(p, testConfig())
	c.session.markStarted()
	gen := running(t, c)
	ctx := context.Background()

	_, err := c.tick(ctx, gen)
	require.NoError(t, err)
	_, err = c.tick(ctx, gen)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Snapshot().Retries)

	p.setLessons(lessonMenu("lesson-2", "incomplete"))
	_, err = c.tick(ctx, gen)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Snapshot().Retries, "reset by the new lesson, then counted once")
}

func TestUnknownCompletionAdvances(t *testing.T) {
	p := newCoursePage(t, header{progress: "20", next: true}, lessonMenu("lesson-1", ""))
	c, clock, _ := newTestController(p, testConfig())
	c.session.markStarted()
	gen := running(t, c)

	more, err := c.tick(context.Background(), gen)
	require.NoError(t, err)
	assert.True(t, more)
	assert.Equal(t, 1, p.clicks(IDNext))
	assert.Equal(t, 0, c.Snapshot().Retries)
	assert.Equal(t, []time.Duration{InspectDelay, AdvanceDelay, config.DefaultCheckInterval}, clock.recorded())
}

func TestTickClicksStartWhenNotStarted(t *testing.T) {
	p := newCoursePage(t, header{progress: "99", start: true, exit: true}, lessonMenu("l", "incomplete"))
	c, clock, _ := newTestController(p, testConfig())
	gen := running(t, c)

	more, err := c.tick(context.Background(), gen)
	require.NoError(t, err)
	assert.True(t, more)
	assert.Equal(t, 1, p.clicks(IDStart))
	assert.Equal(t, 0, p.clicks("exit"), "rest of the cycle skipped")
	assert.Equal(t, []time.Duration{StartSettleDelay}, clock.recorded())
	assert.True(t, c.Snapshot().HasStarted)

	more, err = c.tick(context.Background(), gen)
	require.NoError(t, err)
	assert.False(t, more)
	assert.Equal(t, 1, p.clicks(IDStart))
	assert.Equal(t, 1, p.clicks("exit"))
}

func TestAbsentReadingKeepsProgress(t *testing.T) {
	p := newCoursePage(t, header{progress: "40"}, lessonMenu("l", "incomplete"))
	c, _, relay := newTestController(p, testConfig())
	c.session.markStarted()
	gen := running(t, c)
	ctx := context.Background()

	_, err := c.tick(ctx, gen)
	require.NoError(t, err)
	assert.Equal(t, 40, c.Snapshot().Progress)

	p.setHeader(header{progress: "loading"})
	_, err = c.tick(ctx, gen)
	require.NoError(t, err)
	assert.Equal(t, 40, c.Snapshot().Progress)

	p.setHeader(header{})
	_, err = c.tick(ctx, gen)
	require.NoError(t, err)
	assert.Equal(t, 40, c.Snapshot().Progress)

	assert.Equal(t, []string{"Progress: 40%"}, filterPrefix(relay.logs(), "Progress:"))
}

func TestZeroProgressIsNotReported(t *testing.T) {
	p := newCoursePage(t, header{progress: "0%"}, lessonMenu("l", "incomplete"))
	c, _, relay := newTestController(p, testConfig())
	c.session.markStarted()
	gen := running(t, c)

	_, err := c.tick(context.Background(), gen)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Snapshot().Progress)
	assert.Empty(t, filterPrefix(relay.logs(), "Progress:"))
}

func TestLowerThresholdStopsWithoutNewReading(t *testing.T) {
	p := newCoursePage(t, header{progress: "60", exit: true}, lessonMenu("l", "incomplete"))
	c, _, relay := newTestController(p, testConfig())
	c.session.markStarted()
	gen := running(t, c)
	ctx := context.Background()

	more, err := c.tick(ctx, gen)
	require.NoError(t, err)
	require.True(t, more)

	c.SetThreshold(50)
	p.setHeader(header{exit: true})

	more, err = c.tick(ctx, gen)
	require.NoError(t, err)
	assert.False(t, more)
	assert.Equal(t, 1, p.clicks("exit"))
	assert.Contains(t, relay.logs(), "Threshold set to 50%")
	assert.Contains(t, relay.logs(), "Target reached: 60%")
	assert.Equal(t, 50, c.Snapshot().Threshold)
}

func TestStartAndRunToCompletion(t *testing.T) {
	p := newCoursePage(t, header{progress: "95", resume: true, exit: true}, lessonMenu("l", "complete"))
	c, _, relay := newTestController(p, testConfig())

	c.Start(context.Background())

	select {
	case <-c.Finished():
	case <-time.After(5 * time.Second):
		t.Fatal("automation did not finish")
	}
	c.Wait()

	assert.Equal(t, "Starting automation", relay.logs()[0])
	assert.Equal(t, 1, p.clicks("exit"))
	assert.Equal(t, types.PhaseStopped, c.Snapshot().Phase)
}

func TestStartIsNoOpWhileActive(t *testing.T) {
	p := newCoursePage(t, header{}, lessonMenu("l", "incomplete"))
	c, _, relay := newTestController(p, testConfig())

	_, ok := c.session.begin()
	require.True(t, ok)
	c.Start(context.Background())
	c.Wait()
	assert.Empty(t, relay.logs())
	assert.Equal(t, types.PhaseDiscovering, c.Snapshot().Phase)
}

func TestStopTakesEffectAtNextGuard(t *testing.T) {
	p := newCoursePage(t, header{progress: "20", next: true}, lessonMenu("l", "incomplete"))
	c, clock, relay := newTestController(p, testConfig())
	c.session.markStarted()

	// Stop lands while the cycle waits to inspect the lesson.
	clock.onSleep = func(d time.Duration) {
		if d == InspectDelay {
			c.Stop()
		}
	}

	c.Start(context.Background())
	c.Wait()

	assert.Len(t, p.page.APICalls(), 1, "one cycle ran")
	assert.Equal(t, 1, p.clicks("retry"), "the scheduled retry still happened")
	assert.Contains(t, relay.logs(), "Stopping automation")
	assert.Equal(t, types.PhaseStopped, c.Snapshot().Phase)
	assert.True(t, c.Snapshot().HasStarted)
}

func TestRestartAfterStopDropsOldLoop(t *testing.T) {
	p := newCoursePage(t, header{progress: "20"}, lessonMenu("lesson-1", "incomplete"))
	c, _, _ := newTestController(p, testConfig())
	c.session.markStarted()
	ctx := context.Background()

	oldGen := running(t, c)
	_, err := c.tick(ctx, oldGen)
	require.NoError(t, err)

	c.Stop()
	newGen := running(t, c)

	more, err := c.tick(ctx, oldGen)
	require.NoError(t, err)
	assert.False(t, more, "old generation stops at the guard")

	more, err = c.tick(ctx, newGen)
	require.NoError(t, err)
	assert.True(t, more)

	state := c.session.State()
	assert.True(t, state.HasStarted)
	assert.Equal(t, "lesson-1", state.LastLessonID)
	assert.Equal(t, 2, state.CurrentLessonRetries, "run state survives stop and start")
}

func TestContextCancelEndsRun(t *testing.T) {
	p := newCoursePage(t, header{progress: "20"}, lessonMenu("l", "incomplete"))
	c, clock, _ := newTestController(p, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	clock.onSleep = func(d time.Duration) {
		if d == DiscoverySettleDelay {
			cancel()
		}
	}

	c.Start(ctx)
	c.Wait()

	assert.Empty(t, p.page.APICalls(), "no cycle ran")
	assert.True(t, c.Snapshot().Running, "cancellation is not a stop")
}

func TestStopWhileIdle(t *testing.T) {
	p := newCoursePage(t, header{}, lessonMenu("l", "incomplete"))
	c, _, relay := newTestController(p, testConfig())

	c.Stop()
	assert.Equal(t, types.PhaseIdle, c.Snapshot().Phase)
	assert.Equal(t, []string{"Stopping automation"}, relay.logs())
	assert.Len(t, relay.statuses(), 1)
}

func TestSetters(t *testing.T) {
	p := newCoursePage(t, header{}, lessonMenu("l", "incomplete"))
	c, _, relay := newTestController(p, testConfig())

	c.SetThreshold(250)
	c.SetMaxRetries(0)

	cfg := c.session.Config()
	assert.Equal(t, 250, cfg.ProgressThreshold, "values are not validated")
	assert.Equal(t, 0, cfg.MaxRetries)
	assert.Equal(t, []string{"Threshold set to 250%", "Max retries set to 0"}, relay.logs())
	assert.Equal(t, 250, c.Snapshot().Threshold)
}

func TestReload(t *testing.T) {
	p := newCoursePage(t, header{}, lessonMenu("l", "incomplete"))
	c, _, relay := newTestController(p, testConfig())

	next := testConfig()
	next.MaxRetries = 4
	next.CheckInterval = time.Second
	c.Reload(next)

	assert.Equal(t, []string{"Max retries set to 4"}, relay.logs())
	assert.Equal(t, time.Second, c.session.Config().CheckInterval)
}

func TestAttach(t *testing.T) {
	t.Run("without auto start", func(t *testing.T) {
		p := newCoursePage(t, header{}, lessonMenu("l", "incomplete"))
		c, clock, relay := newTestController(p, testConfig())

		c.Attach(context.Background())
		c.Wait()

		assert.Equal(t, []string{"Course automation loaded"}, relay.logs())
		assert.Empty(t, clock.recorded())
		assert.Equal(t, types.PhaseIdle, c.Snapshot().Phase)
	})

	t.Run("auto start", func(t *testing.T) {
		p := newCoursePage(t, header{progress: "100", exit: true}, lessonMenu("l", "incomplete"))
		cfg := testConfig()
		cfg.AutoStart = true
		c, clock, relay := newTestController(p, cfg)

		c.Attach(context.Background())
		<-c.Finished()
		c.Wait()

		logs := relay.logs()
		require.GreaterOrEqual(t, len(logs), 3)
		assert.Equal(t, []string{
			"Course automation loaded",
			"Auto-start enabled - starting automation",
			"Starting automation",
		}, logs[:3])
		assert.Equal(t, AutoStartDelay, clock.recorded()[0])
		assert.Equal(t, 1, p.clicks("exit"))
	})
}

func TestControllerMirrorsLogsWithoutRelay(t *testing.T) {
	p := newCoursePage(t, header{}, lessonMenu("l", "incomplete"))
	c := NewController(NewSession(p.page.Main(), testConfig()), nil, WithClock(&fakeClock{}))

	c.SetThreshold(10)
	c.Stop()
	assert.Equal(t, 10, c.Snapshot().Threshold)
}

func filterPrefix(lines []string, prefix string) []string {
	var out []string
	for _, line := range lines {
		if len(line) >= len(prefix) && line[:len(prefix)] == prefix {
			out = append(out, line)
		}
	}
	return out
}
