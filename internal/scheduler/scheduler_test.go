package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetpulse/internal/log"
)

type fakeJobs struct {
	analysisRuns int
	weeklyRuns   int
	err          error
}

func (f *fakeJobs) RunAnalysis(context.Context) error {
	f.analysisRuns++
	return f.err
}

func (f *fakeJobs) RunWeeklySummary(context.Context) error {
	f.weeklyRuns++
	return f.err
}

func TestNewRejectsBadSpec(t *testing.T) {
	_, err := New(&fakeJobs{}, "not a cron spec", "0 9 * * 0", log.Discard())
	assert.ErrorContains(t, err, "register analysis job")

	_, err = New(&fakeJobs{}, "0 8 * * *", "often", log.Discard())
	assert.ErrorContains(t, err, "register weekly summary job")
}

func TestRunNowTriggersAnalysis(t *testing.T) {
	jobs := &fakeJobs{}
	s, err := New(jobs, "0 8 * * *", "0 9 * * 0", log.Discard())
	require.NoError(t, err)

	s.RunNow()
	s.RunNow()

	assert.Equal(t, 2, jobs.analysisRuns)
	assert.Zero(t, jobs.weeklyRuns)
}

func TestRunNowSurvivesJobError(t *testing.T) {
	jobs := &fakeJobs{err: errors.New("snapshot unavailable")}
	s, err := New(jobs, "0 8 * * *", "0 9 * * 0", log.Discard())
	require.NoError(t, err)

	s.RunNow()

	assert.Equal(t, 1, jobs.analysisRuns)
}

func TestStartStop(t *testing.T) {
	s, err := New(&fakeJobs{}, "0 8 * * *", "0 9 * * 0", log.Discard())
	require.NoError(t, err)

	s.Start()
	s.Stop()
}
