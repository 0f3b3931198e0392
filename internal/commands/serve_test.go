package commands_test

import (
	"bytes"
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasksync/internal/backend/httpapi"
	"tasksync/internal/commands"
	"tasksync/internal/exitcode"
)

func TestServeCommand_ServesUntilCancelled(t *testing.T) {
	cfg := testConfig(t, false)
	cmd := &commands.ServeCmd{}
	parseFlags(t, cmd, "--addr", "127.0.0.1:0", "--db", filepath.Join(t.TempDir(), "serve.db"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	urls := make(chan string, 1)
	cmd.SetReady(func(url string) { urls <- url })

	var outBuf, errBuf bytes.Buffer
	done := make(chan int, 1)
	go func() { done <- cmd.Run(ctx, cfg, nil, nil, &outBuf, &errBuf) }()

	var url string
	select {
	case url = <-urls:
	case code := <-done:
		t.Fatalf("serve exited early with %d: %s", code, errBuf.String())
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not start")
	}

	resp, err := http.Get(url + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// The one-shot commands work against it over HTTP.
	gw, err := httpapi.New(url)
	require.NoError(t, err)
	_, _, code := runCommand(t, &commands.AddCmd{}, gw, []string{"served"}, true)
	require.Equal(t, exitcode.Success, code)
	stdout, _, code := runCommand(t, &commands.ListCmd{}, gw, nil, false)
	require.Equal(t, exitcode.Success, code)
	assert.Equal(t, "   1  [ ] served\n", stdout)

	cancel()
	select {
	case code := <-done:
		assert.Equal(t, exitcode.Success, code)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not stop")
	}
	assert.Contains(t, outBuf.String(), "listening on "+url)
}

func TestServeCommand_RejectsArgs(t *testing.T) {
	_, stderr, code := runCommand(t, &commands.ServeCmd{}, nil, []string{"extra"}, false)

	assert.Equal(t, exitcode.UserError, code)
	assert.Equal(t, "error: unexpected argument: extra\n", stderr)
}
