package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/clickhouse"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/loykin/vrchime/internal/history"
)

// setupClickHouseContainer starts a ClickHouse container for testing
func setupClickHouseContainer(ctx context.Context, t *testing.T) string {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctr, err := clickhouse.Run(ctx,
		"clickhouse/clickhouse-server:24.3.2.23",
		clickhouse.WithUsername("default"),
		clickhouse.WithPassword(""),
		clickhouse.WithDatabase("default"),
		testcontainers.WithWaitStrategy(
			wait.ForHTTP("/ping").
				WithPort("8123/tcp").
				WithStartupTimeout(30*time.Second)),
	)
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("Failed to start ClickHouse container: %v", err)
	}

	host, err := ctr.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := ctr.MappedPort(ctx, "9000")
	if err != nil {
		t.Fatalf("Failed to get mapped port: %v", err)
	}
	return host + ":" + port.Port()
}

func TestClickHouseSink_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx := context.Background()
	addr := setupClickHouseContainer(ctx, t)

	sink, err := New(addr, "launch_history")
	if err != nil {
		t.Fatalf("Failed to create sink: %v", err)
	}
	defer func() { _ = sink.Close() }()

	now := time.Now().UTC()
	events := []history.Event{
		{LaunchID: "l-1", Type: history.EventInstanceSpawned, OccurredAt: now, InstallPath: "/g/VRChat.exe", PayloadFile: "/w.vrcw", Instance: 1, PID: 100, Requested: 2},
		{LaunchID: "l-1", Type: history.EventLaunchFailed, OccurredAt: now.Add(time.Millisecond), InstallPath: "/g/VRChat.exe", PayloadFile: "/w.vrcw", Instance: 2, Requested: 2, Launched: 1, Error: "spawn failed"},
	}
	for _, e := range events {
		if err := sink.Send(ctx, e); err != nil {
			t.Fatalf("Failed to send event: %v", err)
		}
	}

	got, err := sink.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(got))
	}
	if got[0].Type != history.EventLaunchFailed || got[0].Launched != 1 || got[0].Error != "spawn failed" {
		t.Fatalf("unexpected newest event: %+v", got[0])
	}
	if got[1].PID != 100 || got[1].Instance != 1 {
		t.Fatalf("unexpected oldest event: %+v", got[1])
	}
}

func TestClickHouseSink_InvalidTable(t *testing.T) {
	if _, err := New("127.0.0.1:1", "bad;table"); err == nil {
		t.Fatal("expected error for invalid table name")
	}
}

func TestClickHouseSink_ConnectionError(t *testing.T) {
	if _, err := New("127.0.0.1:1", "t"); err == nil {
		t.Error("Expected error with invalid connection, got nil")
	}
}
