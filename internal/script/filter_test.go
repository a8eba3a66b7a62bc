package script

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/chatsubs/internal/domain"
)

func compile(t *testing.T, src string) *Filter {
	t.Helper()
	f, err := Compile("test.tengo", []byte(src), DefaultSecurityLimits, nil)
	require.NoError(t, err)
	return f
}

func TestFilter_Keep(t *testing.T) {
	f := compile(t, `keep = !moderator && author != "bot" && offset >= 10.0`)

	tests := []struct {
		name string
		ev   domain.ChatEvent
		want bool
	}{
		{"kept", domain.ChatEvent{Author: "alice", Offset: 12 * time.Second}, true},
		{"moderator", domain.ChatEvent{Author: "mod", Moderator: true, Offset: 12 * time.Second}, false},
		{"bot", domain.ChatEvent{Author: "bot", Offset: 12 * time.Second}, false},
		{"too early", domain.ChatEvent{Author: "alice", Offset: 9 * time.Second}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keep, err := f.Keep(tt.ev)
			require.NoError(t, err)
			assert.Equal(t, tt.want, keep)
		})
	}
}

func TestFilter_KeepDefaultsToTrueOnEveryRun(t *testing.T) {
	f := compile(t, `if body == "drop" { keep = false }`)

	keep, err := f.Keep(domain.ChatEvent{Body: "drop"})
	require.NoError(t, err)
	assert.False(t, keep)

	keep, err = f.Keep(domain.ChatEvent{Body: "stay"})
	require.NoError(t, err)
	assert.True(t, keep, "keep is reset before each event")
}

func TestFilter_Imports(t *testing.T) {
	f := compile(t, `
text := import("text")
keep = !text.contains(text.to_lower(body), "spoiler")
`)
	keep, err := f.Keep(domain.ChatEvent{Body: "Big SPOILER ahead"})
	require.NoError(t, err)
	assert.False(t, keep)

	_, err = Compile("os.tengo", []byte(`os := import("os")`), DefaultSecurityLimits, nil)
	require.Error(t, err, "modules outside the allow list cannot be imported")
}

func TestFilter_Errors(t *testing.T) {
	t.Run("syntax", func(t *testing.T) {
		_, err := Compile("bad.tengo", []byte(`keep = (`), DefaultSecurityLimits, nil)
		var scriptErr *ScriptError
		require.True(t, errors.As(err, &scriptErr))
		assert.Equal(t, ErrorTypeCompilation, scriptErr.Type)
		assert.Equal(t, "bad.tengo", scriptErr.Script)
	})

	t.Run("keep not a bool", func(t *testing.T) {
		f := compile(t, `keep = "yes"`)
		_, err := f.Keep(domain.ChatEvent{})
		var scriptErr *ScriptError
		require.True(t, errors.As(err, &scriptErr))
		assert.Equal(t, ErrorTypeInvalidKeep, scriptErr.Type)
	})

	t.Run("runtime", func(t *testing.T) {
		f := compile(t, `x := 1 / (len(body) - len(body)); keep = x > 0`)
		_, err := f.Keep(domain.ChatEvent{Body: "a"})
		var scriptErr *ScriptError
		require.True(t, errors.As(err, &scriptErr))
		assert.Equal(t, ErrorTypeExecution, scriptErr.Type)
	})

	t.Run("timeout", func(t *testing.T) {
		limits := DefaultSecurityLimits
		limits.MaxExecutionTime = 20 * time.Millisecond
		f, err := Compile("loop.tengo", []byte(`for { }`), limits, nil)
		require.NoError(t, err)

		_, err = f.Keep(domain.ChatEvent{})
		var scriptErr *ScriptError
		require.True(t, errors.As(err, &scriptErr))
		assert.Equal(t, ErrorTypeTimeout, scriptErr.Type)
	})
}

func TestFilter_ConcurrentUse(t *testing.T) {
	f := compile(t, `keep = len(body) % 2 == 0`)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body := "ab"
			if i%2 == 1 {
				body = "abc"
			}
			for j := 0; j < 50; j++ {
				keep, err := f.Keep(domain.ChatEvent{Body: body})
				assert.NoError(t, err)
				assert.Equal(t, i%2 == 0, keep)
			}
		}(i)
	}
	wg.Wait()
}
