package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

const fixturesYAML = `
users:
  - username: alice
    password: s3cret
  - username: bob
    password_hash: "blake2b$00$00"
posts:
  - author: bob
    recipient: alice
    content: first post
  - author: carol
    recipient: alice
    content: a much longer second post that will not fit in a preview
`

// testEnv writes a config pointing at a fresh SQLite file plus a fixtures file.
func testEnv(t *testing.T) (configPath, fixturesPath string) {
	t.Helper()
	dir := t.TempDir()

	configPath = filepath.Join(dir, "dataport.yaml")
	cfg := fmt.Sprintf(`
backend: relational
sql:
  driver: sqlite
  dsn: %s
hasher:
  algorithm: bcrypt
  cost: 4
feed:
  preview_width: 20
`, filepath.Join(dir, "cli.db"))
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0o600))

	fixturesPath = filepath.Join(dir, "fixtures.yaml")
	require.NoError(t, os.WriteFile(fixturesPath, []byte(fixturesYAML), 0o600))
	return configPath, fixturesPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	app.ExitErrHandler = func(*cli.Context, error) {}
	err := app.Run(append([]string{"dataport", "--log-level", "error"}, args...))
	return out.String(), err
}

func TestCLI_SeedLoginFeed(t *testing.T) {
	configPath, fixturesPath := testEnv(t)

	out, err := run(t, "--config", configPath, "seed", "--fixtures", fixturesPath)
	require.NoError(t, err)
	assert.Equal(t, "seeded 2 users and 2 posts\n", out)

	out, err = run(t, "--config", configPath, "login", "--user", "alice", "--password", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "ok\n", out)

	out, err = run(t, "--config", configPath, "login", "--user", "alice", "--password", "nope")
	require.Error(t, err)
	assert.Equal(t, "denied\n", out)
	var exit cli.ExitCoder
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, 1, exit.ExitCode())

	out, err = run(t, "--config", configPath, "feed", "--user", "alice")
	require.NoError(t, err)
	assert.Equal(t, "bob: first post\ncarol: a much longer secon…\n", out)

	out, err = run(t, "--config", configPath, "feed", "--user", "alice", "--full")
	require.NoError(t, err)
	assert.Contains(t, out, "carol: a much longer second post that will not fit in a preview\n")

	out, err = run(t, "--config", configPath, "feed", "--user", "nobody")
	require.NoError(t, err)
	assert.Equal(t, "(no posts)\n", out)
}

func TestCLI_SeedInBatches(t *testing.T) {
	configPath, fixturesPath := testEnv(t)

	out, err := run(t, "--config", configPath, "seed", "--fixtures", fixturesPath, "--batch-size", "1")
	require.NoError(t, err)
	assert.Equal(t, "seeded 2 users and 2 posts\n", out)

	out, err = run(t, "--config", configPath, "feed", "--user", "alice", "--full")
	require.NoError(t, err)
	assert.Equal(t, "bob: first post\ncarol: a much longer second post that will not fit in a preview\n", out)

	_, err = run(t, "--config", configPath, "seed", "--fixtures", fixturesPath, "--batch-size", "0")
	assert.Error(t, err)
}

func TestCLI_MalformedStoredHashIsAnError(t *testing.T) {
	configPath, fixturesPath := testEnv(t)
	_, err := run(t, "--config", configPath, "seed", "--fixtures", fixturesPath)
	require.NoError(t, err)

	// bob's fixture carries a blake2b hash but the config selects bcrypt.
	_, err = run(t, "--config", configPath, "login", "--user", "bob", "--password", "x")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "authentication failed")
}

func TestCLI_RequiredFlags(t *testing.T) {
	_, err := run(t, "login", "--user", "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password")

	_, err = run(t, "seed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fixtures")
}

func TestCLI_InvalidLogLevel(t *testing.T) {
	app := newApp()
	app.Writer = &bytes.Buffer{}
	app.ErrWriter = &bytes.Buffer{}
	err := app.Run([]string{"dataport", "--log-level", "verbose", "feed", "--user", "a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestLoadFixtures(t *testing.T) {
	_, fixturesPath := testEnv(t)
	fx, err := loadFixtures(fixturesPath)
	require.NoError(t, err)
	require.Len(t, fx.Users, 2)
	assert.Equal(t, "alice", fx.Users[0].Username)
	assert.Equal(t, "blake2b$00$00", fx.Users[1].PasswordHash)
	require.Len(t, fx.Posts, 2)
	assert.Equal(t, "alice", fx.Posts[1].Recipient)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("users:\n  - name: x\n"), 0o600))
	_, err = loadFixtures(bad)
	assert.Error(t, err, "unknown keys are rejected")

	_, err = loadFixtures(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
