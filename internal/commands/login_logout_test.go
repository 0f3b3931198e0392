package commands_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasksync/internal/commands"
	"tasksync/internal/exitcode"
)

const testOAuthClient = `{"installed":{"client_id":"test","client_secret":"test","redirect_uris":["http://localhost"]}}`

func TestLoginCommand_NoOAuthClient(t *testing.T) {
	cfg := testConfig(t, false)
	var outBuf, errBuf bytes.Buffer

	code := (&commands.LoginCmd{}).Run(context.Background(), cfg, nil, nil, &outBuf, &errBuf)

	assert.Equal(t, exitcode.AuthError, code)
	assert.Empty(t, outBuf.String())
	assert.Contains(t, errBuf.String(), "oauth_client.json not found in "+cfg.Dir)
	assert.Contains(t, errBuf.String(), cfg.OAuthClientPath())
}

// A token without a refresh token is not reused; login starts the browser
// flow, which the cancelled context aborts.
func TestLoginCommand_NoRefreshToken(t *testing.T) {
	cfg := testConfig(t, false)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Dir, "oauth_client.json"), []byte(testOAuthClient), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Dir, "token.json"),
		[]byte(`{"access_token":"test","token_type":"Bearer","expiry":"2020-01-01T00:00:00Z"}`), 0600))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var outBuf, errBuf bytes.Buffer
	code := (&commands.LoginCmd{}).Run(ctx, cfg, nil, nil, &outBuf, &errBuf)

	assert.Equal(t, exitcode.AuthError, code)
	assert.NotEqual(t, "already logged in\n", outBuf.String())
	assert.FileExists(t, cfg.TokenPath())
}

func TestLoginCommand_CorruptToken(t *testing.T) {
	cfg := testConfig(t, false)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Dir, "oauth_client.json"), []byte(testOAuthClient), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Dir, "token.json"), []byte(`not json`), 0600))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var outBuf, errBuf bytes.Buffer
	code := (&commands.LoginCmd{}).Run(ctx, cfg, nil, nil, &outBuf, &errBuf)

	assert.Equal(t, exitcode.AuthError, code)
	assert.Empty(t, outBuf.String())
}

func TestLogoutCommand_OnlyRemovesToken(t *testing.T) {
	cfg := testConfig(t, false)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Dir, "oauth_client.json"), []byte(testOAuthClient), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Dir, "token.json"), []byte(`{}`), 0600))

	var outBuf, errBuf bytes.Buffer
	code := (&commands.LogoutCmd{}).Run(context.Background(), cfg, nil, nil, &outBuf, &errBuf)

	assert.Equal(t, exitcode.Success, code)
	assert.Equal(t, "ok\n", outBuf.String())
	assert.Empty(t, errBuf.String())
	assert.NoFileExists(t, cfg.TokenPath())
	assert.FileExists(t, cfg.OAuthClientPath())
}

func TestLogoutCommand_NotLoggedIn(t *testing.T) {
	for _, quiet := range []bool{false, true} {
		cfg := testConfig(t, quiet)
		var outBuf, errBuf bytes.Buffer

		code := (&commands.LogoutCmd{}).Run(context.Background(), cfg, nil, nil, &outBuf, &errBuf)

		assert.Equal(t, exitcode.Success, code)
		assert.Empty(t, errBuf.String())
		if quiet {
			assert.Empty(t, outBuf.String())
		} else {
			assert.Equal(t, "not logged in\n", outBuf.String())
		}
	}
}
