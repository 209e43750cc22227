package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndListRuns(t *testing.T) {
	s := newTestStore(t)

	first := &Run{
		ID:            "run-1",
		Task:          "write a python script",
		FinalFilename: "script.py",
		FinalText:     "print('hello')\n",
		CreatedAt:     time.Now().Add(-time.Minute),
		Steps: []StepRecord{
			{Capability: "python", Instruction: "write it", Reason: "code", Filename: "script.py", Output: "print('hello')\n"},
			{Capability: "verifier", Instruction: "check it", Reason: "code compliance check", Output: `{"ok": true}`},
		},
	}
	second := &Run{
		ID:        "run-2",
		Task:      "containerize the app",
		FinalText: "FROM alpine:3.20\n",
	}

	require.NoError(t, s.RecordRun(first))
	require.NoError(t, s.RecordRun(second))

	runs, err := s.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].ID)
	assert.Equal(t, "run-1", runs[1].ID)
	assert.Equal(t, "script.py", runs[1].FinalFilename)
	assert.Equal(t, "write a python script", runs[1].Task)
	assert.Equal(t, 2, runs[1].StepCount)
	assert.Zero(t, runs[0].StepCount)
}

func TestRecentRunsHonorsLimit(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.RecordRun(&Run{
			ID:        string(rune('a' + i)),
			Task:      "task",
			FinalText: "result",
			CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
		}))
	}

	runs, err := s.RecentRuns(3)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
	assert.Equal(t, "e", runs[0].ID)
}

func TestRunSteps(t *testing.T) {
	s := newTestStore(t)

	run := &Run{
		ID:        "run-steps",
		Task:      "demo",
		FinalText: "done",
		Steps: []StepRecord{
			{Capability: "python", Instruction: "first", Output: "a"},
			{Capability: "verifier", Instruction: "second", Output: "b"},
			{Capability: "python", Instruction: "third", Output: "c"},
		},
	}
	require.NoError(t, s.RecordRun(run))

	steps, err := s.RunSteps("run-steps")
	require.NoError(t, err)
	require.Len(t, steps, 3)
	assert.Equal(t, "first", steps[0].Instruction)
	assert.Equal(t, "second", steps[1].Instruction)
	assert.Equal(t, "third", steps[2].Instruction)

	empty, err := s.RunSteps("missing")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDuplicateRunIDRejected(t *testing.T) {
	s := newTestStore(t)

	run := &Run{ID: "dup", Task: "t", FinalText: "x"}
	require.NoError(t, s.RecordRun(run))
	assert.Error(t, s.RecordRun(&Run{ID: "dup", Task: "t", FinalText: "y"}))
}
