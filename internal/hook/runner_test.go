package hook

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunnerValidatesCommands(t *testing.T) {
	_, err := NewRunner(map[string]string{
		EventTaskCreated: "echo ok",
	}, time.Second)
	require.NoError(t, err)

	_, err = NewRunner(map[string]string{
		EventTaskCreated: "if then fi (",
	}, time.Second)
	assert.Error(t, err)
}

func TestNewRunnerIgnoresEmptyCommands(t *testing.T) {
	r, err := NewRunner(map[string]string{
		EventTaskCreated:   "   ",
		EventTaskCancelled: "",
	}, time.Second)
	require.NoError(t, err)
	assert.Empty(t, r.commands)
}

func TestNewRunnerMinifiesCommands(t *testing.T) {
	r, err := NewRunner(map[string]string{
		EventTaskCreated: "echo   one  &&\n  echo two",
	}, time.Second)
	require.NoError(t, err)
	assert.NotContains(t, r.commands[EventTaskCreated], "\n")
}

func TestFireRunsCommandWithVars(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "fired")

	r, err := NewRunner(map[string]string{
		EventTaskCreated: `printf '%s' "$TURNKEY_TASK_ID" > "$TURNKEY_MARKER"`,
	}, 5*time.Second)
	require.NoError(t, err)

	r.Fire(context.Background(), EventTaskCreated, map[string]string{
		"task_id": "T1",
		"marker":  marker,
	})

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(marker)
		return err == nil && strings.TrimSpace(string(data)) == "T1"
	}, 5*time.Second, 20*time.Millisecond)
}

func TestFireUnknownEventIsNoop(t *testing.T) {
	r, err := NewRunner(map[string]string{}, time.Second)
	require.NoError(t, err)
	r.Fire(context.Background(), EventTaskCancelled, nil)

	// A nil runner is also safe.
	var nilRunner *Runner
	nilRunner.Fire(context.Background(), EventTaskCreated, nil)
}
