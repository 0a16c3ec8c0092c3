package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"

	"github.com/loykin/vrchime"
	"github.com/loykin/vrchime/internal/discovery"
	"github.com/loykin/vrchime/internal/history"
	"github.com/loykin/vrchime/internal/launcher"
	"github.com/loykin/vrchime/internal/process"
)

type recordingSpawner struct {
	calls [][]string
	fail  bool
}

func (r *recordingSpawner) Spawn(path string, args []string) (int, error) {
	if r.fail {
		return 0, errors.New("spawn refused")
	}
	r.calls = append(r.calls, append([]string{path}, args...))
	return 500 + len(r.calls), nil
}

// testEnv isolates settings and the persisted config under a temp dir.
func testEnv(t *testing.T) (dir string) {
	t.Helper()
	dir = t.TempDir()
	t.Setenv("VRCHIME_STORE_PATH", filepath.Join(dir, "VRChime", "config.yaml"))
	t.Setenv("VRCHIME_LOG_LEVEL", "error")
	return dir
}

func run(t *testing.T, sp process.Spawner, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root, c := newRoot(&out)
	c.appOpts = []vrchime.Option{vrchime.WithDiscoverer(discovery.None{})}
	if sp != nil {
		c.appOpts = append(c.appOpts, vrchime.WithSpawner(sp))
	}
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func fakeExe(t *testing.T, dir string) string {
	t.Helper()
	p := filepath.Join(dir, "VRChat.exe")
	if err := os.WriteFile(p, []byte("stub"), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestConfigDefaultIsEmpty(t *testing.T) {
	testEnv(t)
	out, err := run(t, nil, "config")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if strings.TrimSpace(out) != `game_path: ""` {
		t.Fatalf("unexpected config output %q", out)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, nil, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if strings.TrimSpace(out) != vrchime.Version() {
		t.Fatalf("version output %q", out)
	}
}

func TestLaunchPersistsAndReusesPath(t *testing.T) {
	dir := testEnv(t)
	exe := fakeExe(t, dir)
	sp := &recordingSpawner{}

	out, err := run(t, sp, "launch", "--game-path", exe, "--file", "/w.vrcw", "--count", "2")
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	if strings.TrimSpace(out) != "Successfully launched 2 VRChat instance(s)!" {
		t.Fatalf("output %q", out)
	}
	if len(sp.calls) != 2 || sp.calls[0][0] != exe {
		t.Fatalf("spawns: %v", sp.calls)
	}

	out, err = run(t, nil, "config")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if !strings.Contains(out, "VRChat.exe") {
		t.Fatalf("persisted path not reported: %q", out)
	}

	// --game-path omitted: the persisted path is used
	sp2 := &recordingSpawner{}
	if _, err := run(t, sp2, "launch", "--file", "/w.vrcw"); err != nil {
		t.Fatalf("launch with resolved path: %v", err)
	}
	if len(sp2.calls) != 1 || sp2.calls[0][0] != exe {
		t.Fatalf("expected resolved path, got %v", sp2.calls)
	}
}

func TestLaunchErrors(t *testing.T) {
	dir := testEnv(t)

	_, err := run(t, &recordingSpawner{}, "launch", "--file", "/w.vrcw")
	if err == nil || err.Error() != "Error: Game path or file path is empty." {
		t.Fatalf("expected invalid input, got %v", err)
	}

	missing := filepath.Join(dir, "nope", "VRChat.exe")
	_, err = run(t, &recordingSpawner{}, "launch", "--game-path", missing, "--file", "/w.vrcw")
	var pe *launcher.PathNotFoundError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PathNotFoundError, got %v", err)
	}

	exe := fakeExe(t, dir)
	_, err = run(t, &recordingSpawner{fail: true}, "launch", "--game-path", exe, "--file", "/w.vrcw", "--count", "3")
	if err == nil || err.Error() != "Error: Failed to launch VRChat instance 1" {
		t.Fatalf("expected launch failure, got %v", err)
	}

	_, err = run(t, &recordingSpawner{}, "launch", "--game-path", exe, "--file", "/w.vrcw", "--arg-mode", "shell")
	if err == nil {
		t.Fatal("expected error for unknown arg mode")
	}
}

func TestLaunchExactArgMode(t *testing.T) {
	dir := testEnv(t)
	exe := fakeExe(t, dir)
	sp := &recordingSpawner{}
	if _, err := run(t, sp, "launch", "--game-path", exe, "--file", "/My Worlds/w.vrcw", "--arg-mode", "exact"); err != nil {
		t.Fatalf("launch: %v", err)
	}
	if len(sp.calls[0]) != 2 {
		t.Fatalf("exact mode should pass one argument: %v", sp.calls[0])
	}

	for _, flag := range []string{"EXACT", " Exact "} {
		sp := &recordingSpawner{}
		if _, err := run(t, sp, "launch", "--game-path", exe, "--file", "/My Worlds/w.vrcw", "--arg-mode", flag); err != nil {
			t.Fatalf("launch with %q: %v", flag, err)
		}
		want := []string{exe, "--url=create?hidden=true&name=BuildAndRun&url=file:////My Worlds/w.vrcw"}
		if diff := cmp.Diff(want, sp.calls[0]); diff != "" {
			t.Fatalf("arg mode %q (-want +got):\n%s", flag, diff)
		}
	}
}

func TestHistoryCommand(t *testing.T) {
	dir := testEnv(t)
	t.Setenv("VRCHIME_HISTORY_ENABLED", "true")
	t.Setenv("VRCHIME_HISTORY_DSN", "sqlite://"+filepath.Join(dir, "history.db"))
	exe := fakeExe(t, dir)
	if _, err := run(t, &recordingSpawner{}, "launch", "--game-path", exe, "--file", "/w.vrcw", "--count", "2"); err != nil {
		t.Fatalf("launch: %v", err)
	}

	out, err := run(t, nil, "history", "--limit", "10")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var evs []history.Event
	if err := json.Unmarshal([]byte(out), &evs); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(evs) != 3 || evs[0].Type != history.EventLaunchSucceeded {
		t.Fatalf("unexpected events: %+v", evs)
	}
}

func TestHistoryDisabled(t *testing.T) {
	testEnv(t)
	if _, err := run(t, nil, "history"); err == nil {
		t.Fatal("expected error when history is disabled")
	}
}

func TestRemoteCommands(t *testing.T) {
	dir := testEnv(t)
	gin.SetMode(gin.TestMode)
	sp := &recordingSpawner{}
	app := vrchime.New(
		vrchime.WithStorePath(filepath.Join(dir, "server", "config.yaml")),
		vrchime.WithDiscoverer(discovery.None{}),
		vrchime.WithSpawner(sp),
	)
	exe := fakeExe(t, dir)
	if err := app.Persist(exe); err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(app.Router("/api").Handler())
	defer ts.Close()
	api := "--api-url=" + ts.URL + "/api"

	out, err := run(t, nil, "config", api)
	if err != nil || !strings.Contains(out, "VRChat.exe") {
		t.Fatalf("remote config: %q %v", out, err)
	}
	out, err = run(t, nil, "launch", api, "--file", "/w.vrcw", "--count", "2")
	if err != nil {
		t.Fatalf("remote launch: %v", err)
	}
	if strings.TrimSpace(out) != "Successfully launched 2 VRChat instance(s)!" || len(sp.calls) != 2 {
		t.Fatalf("remote launch output %q, spawns %d", out, len(sp.calls))
	}
	if _, err := run(t, nil, "history", api); err == nil {
		t.Fatal("expected 501 from server without a readable history")
	}
	out, err = run(t, nil, "version", api)
	if err != nil || strings.TrimSpace(out) == "" {
		t.Fatalf("remote version: %q %v", out, err)
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	testEnv(t)
	var out bytes.Buffer
	root := buildRoot(&out)
	root.SetArgs([]string{"serve", "--listen", "127.0.0.1:0"})
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	if err := root.ExecuteContext(ctx); err != nil {
		t.Fatalf("serve: %v", err)
	}
}

func TestBadSettingsFile(t *testing.T) {
	testEnv(t)
	_, err := run(t, nil, "config", "--config", filepath.Join(t.TempDir(), "missing.toml"))
	if err == nil || !strings.Contains(err.Error(), "error loading settings") {
		t.Fatalf("expected settings error, got %v", err)
	}
}
