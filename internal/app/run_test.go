package app

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/chatsubs/internal/config"
	"github.com/nfrund/chatsubs/internal/domain"
	"github.com/nfrund/chatsubs/internal/pubsub"
	"github.com/nfrund/chatsubs/internal/script"
	"github.com/nfrund/chatsubs/internal/storage"
)

const chatLog = `{"offset": 1, "author": "alice", "body": "hello"}
{"offset": 2, "author": "bob", "body": "world"}
{"offset": 3, "author": "carol", "body": "Kappa", "fragments": [{"text": "Kappa", "emoticon": true}]}
`

type fixture struct {
	fs   afero.Fs
	deps Dependencies
	out  *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "in/chat.jsonl", []byte(chatLog), 0o644))
	require.NoError(t, afero.WriteFile(fs, "in/emotes.txt", []byte("Kappa\n"), 0o644))
	out := &bytes.Buffer{}
	return &fixture{
		fs:  fs,
		out: out,
		deps: Dependencies{
			Config: config.FromEnv(func(string) string { return "" }),
			Store:  storage.NewAferoStore(fs),
			Stdout: out,
		},
	}
}

func instantSettings() config.Settings {
	s := config.DefaultSettings()
	s.Strategy = string(domain.StrategyInstant)
	return s
}

func TestRun_WritesOutput(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := pubsub.NewWatermillBridge(nil)
	defer bus.Close()
	f.deps.Publisher = bus

	completed := make(chan pubsub.ProgressEvent, 1)
	require.NoError(t, pubsub.Subscribe(ctx, bus, pubsub.ProgressCompleted, func(_ context.Context, runID string, p pubsub.ProgressEvent) error {
		assert.Equal(t, "run-1", runID)
		completed <- p
		return nil
	}))

	report, err := Run(ctx, f.deps, Job{
		Input:         "in/chat.jsonl",
		Output:        "out/chat.srt",
		RunID:         "run-1",
		EmoticonsPath: "in/emotes.txt",
		Settings:      instantSettings(),
	})
	require.NoError(t, err)
	assert.Equal(t, "run-1", report.RunID)
	assert.False(t, report.Canceled)
	assert.Equal(t, 3, report.Processed)
	assert.Equal(t, 1, report.Discarded, "an emoticon-only message has nothing left to show")
	assert.Equal(t, 2, report.Written)

	data, err := afero.ReadFile(f.fs, "out/chat.srt")
	require.NoError(t, err)
	srt := string(data)
	assert.Contains(t, srt, "00:00:01,000 --> 00:00:02,000")
	assert.Contains(t, srt, "00:00:02,000 --> 00:00:07,000")
	assert.Contains(t, srt, "alice</font>: hello")
	assert.Contains(t, srt, "bob</font>: world")
	assert.NotContains(t, srt, "Kappa")

	select {
	case p := <-completed:
		assert.True(t, p.Final)
		assert.Equal(t, 3, p.Processed)
	case <-time.After(time.Second):
		t.Fatal("completion event was not published")
	}
}

func TestRun_Stdout(t *testing.T) {
	f := newFixture(t)
	s := config.DefaultSettings()
	s.Strategy = string(domain.StrategyTranscript)
	s.Format = string(domain.FormatTranscript)

	report, err := Run(context.Background(), f.deps, Job{Input: "in/chat.jsonl", Output: StdoutPath, Settings: s})
	require.NoError(t, err)
	assert.NotEmpty(t, report.RunID, "a run id is generated")
	assert.Contains(t, f.out.String(), "alice: hello")
	assert.Contains(t, f.out.String(), "bob: world")
}

func TestRun_FailureKeepsPreviousOutput(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, afero.WriteFile(f.fs, "out/chat.srt", []byte("previous"), 0o644))
	require.NoError(t, afero.WriteFile(f.fs, "in/filter.tengo", []byte(`keep = 1`), 0o644))

	_, err := Run(context.Background(), f.deps, Job{
		Input:      "in/chat.jsonl",
		Output:     "out/chat.srt",
		FilterPath: "in/filter.tengo",
		Settings:   instantSettings(),
	})
	require.Error(t, err)
	var scriptErr *script.ScriptError
	assert.ErrorAs(t, err, &scriptErr)

	data, err := afero.ReadFile(f.fs, "out/chat.srt")
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))

	entries, err := afero.ReadDir(f.fs, "out")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "the temporary file is removed")
}

func TestRun_Filter(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, afero.WriteFile(f.fs, "in/filter.tengo", []byte(`keep = author != "bob"`), 0o644))

	report, err := Run(context.Background(), f.deps, Job{
		Input:      "in/chat.jsonl",
		Output:     StdoutPath,
		FilterPath: "in/filter.tengo",
		Settings:   instantSettings(),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Discarded)
	assert.NotContains(t, f.out.String(), "bob")
}

func TestRun_Canceled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := Run(ctx, f.deps, Job{Input: "in/chat.jsonl", Output: "out/chat.srt", Settings: instantSettings()})
	require.NoError(t, err)
	assert.True(t, report.Canceled)

	exists, err := afero.Exists(f.fs, "out/chat.srt")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRun_InvalidJobs(t *testing.T) {
	f := newFixture(t)

	mismatch := config.DefaultSettings()
	mismatch.Format = string(domain.FormatTranscript)
	_, err := Run(context.Background(), f.deps, Job{Input: "in/chat.jsonl", Output: StdoutPath, Settings: mismatch})
	assert.ErrorIs(t, err, domain.ErrFormatMismatch)

	_, err = Run(context.Background(), f.deps, Job{Input: "in/missing.jsonl", Output: StdoutPath, Settings: instantSettings()})
	assert.Error(t, err)

	_, err = Run(context.Background(), f.deps, Job{
		Input: "in/chat.jsonl", Output: StdoutPath, EmoticonsPath: "in/none.txt", Settings: instantSettings(),
	})
	assert.Error(t, err)
}
