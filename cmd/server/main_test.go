package main

import (
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/internal/config"
)

func TestDirExists(t *testing.T) {
	dir := t.TempDir()
	assert.True(t, dirExists(dir))

	file := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	assert.False(t, dirExists(file))
	assert.False(t, dirExists(filepath.Join(dir, "missing")))
}

func TestResolveWebDir(t *testing.T) {
	tmp := t.TempDir()
	distDir := filepath.Join(tmp, "web", "dist")
	require.NoError(t, os.MkdirAll(distDir, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(tmp, "static"), 0o755))

	assert.Equal(t, distDir, resolveWebDir(distDir))
	assert.Equal(t, "", resolveWebDir(filepath.Join(tmp, "missing")))

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmp))
	defer func() {
		_ = os.Chdir(cwd)
	}()

	assert.Equal(t, "web/dist", resolveWebDir(""))
}

func TestWatchParentExits(t *testing.T) {
	origGetppid := getppid
	origSleep := sleep
	origExit := exit
	defer func() {
		getppid = origGetppid
		sleep = origSleep
		exit = origExit
	}()

	getppid = func() int { return 1 }
	sleep = func(time.Duration) {}

	done := make(chan struct{})
	exit = func(code int) {
		close(done)
		runtime.Goexit()
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	go watchParent(logger)

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatalf("watchParent did not exit")
	}
}

func TestRunLifecycle(t *testing.T) {
	tmp := t.TempDir()
	defer config.SetRuntimeDataDir("")
	t.Setenv("FOLIO_LOG_LEVEL", "error")

	stop := make(chan os.Signal, 1)
	done := make(chan error, 1)
	go func() {
		done <- run([]string{"--data-dir", tmp, "--port", "0", "--host", "127.0.0.1"}, stop)
	}()

	time.Sleep(150 * time.Millisecond)
	stop <- syscall.SIGTERM

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatalf("run did not exit")
	}
	assert.FileExists(t, filepath.Join(tmp, "folio.db"))
	assert.DirExists(t, filepath.Join(tmp, "logs"))
}

func TestRunReportsListenError(t *testing.T) {
	defer config.SetRuntimeDataDir("")
	t.Setenv("FOLIO_LOG_LEVEL", "error")

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	port := strconv.Itoa(ln.Addr().(*net.TCPAddr).Port)

	err = run([]string{"--data-dir", t.TempDir(), "--port", port, "--host", "127.0.0.1"}, make(chan os.Signal))
	assert.ErrorContains(t, err, "listen")
}

func TestRunRejectsBadInput(t *testing.T) {
	defer config.SetRuntimeDataDir("")

	badConfig := filepath.Join(t.TempDir(), "folio.toml")
	require.NoError(t, os.WriteFile(badConfig, []byte("[storage]\ndriver = \"postgres\"\n"), 0o644))

	tests := map[string][]string{
		"unknown flag":         {"--nope"},
		"postgres without dsn": {"--config", badConfig, "--data-dir", t.TempDir()},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			err := run(args, make(chan os.Signal))
			assert.Error(t, err)
		})
	}
}
