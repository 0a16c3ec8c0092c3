package clickhouse

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/loykin/vrchime/internal/history"
)

// DefaultTable is used when the DSN does not name a table.
const DefaultTable = "launch_history"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Sink sends events to ClickHouse using the official ClickHouse Go client.
type Sink struct {
	conn  driver.Conn
	table string
}

// Options configure the connection; zero values use the server defaults.
type Options struct {
	Database string
	Username string
	Password string
}

func New(addr, table string, opts ...Options) (*Sink, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid ClickHouse table name %q", table)
	}
	o := Options{Database: "default", Username: "default"}
	if len(opts) > 0 {
		if opts[0].Database != "" {
			o.Database = opts[0].Database
		}
		if opts[0].Username != "" {
			o.Username = opts[0].Username
		}
		o.Password = opts[0].Password
	}
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: o.Database,
			Username: o.Username,
			Password: o.Password,
		},
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	s := &Sink{conn: conn, table: table}
	if err := s.ensureSchema(context.Background()); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *Sink) ensureSchema(ctx context.Context) error {
	return s.conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS `+s.table+` (
			launch_id String,
			event String,
			occurred_at DateTime64(6),
			game_path String,
			payload_file String,
			instance Int64,
			pid Int64,
			requested Int64,
			launched Int64,
			error String
		) ENGINE = MergeTree()
		ORDER BY (occurred_at, launch_id)
	`)
}

func (s *Sink) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func (s *Sink) Send(ctx context.Context, e history.Event) error {
	query := `INSERT INTO ` + s.table + ` (launch_id, event, occurred_at, game_path, payload_file, instance, pid, requested, launched, error) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	err := s.conn.Exec(ctx, query,
		e.LaunchID,
		string(e.Type),
		e.OccurredAt.UTC(),
		e.InstallPath,
		e.PayloadFile,
		int64(e.Instance),
		int64(e.PID),
		int64(e.Requested),
		int64(e.Launched),
		e.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event into ClickHouse: %w", err)
	}
	return nil
}

type row struct {
	LaunchID    string    `ch:"launch_id"`
	Event       string    `ch:"event"`
	OccurredAt  time.Time `ch:"occurred_at"`
	GamePath    string    `ch:"game_path"`
	PayloadFile string    `ch:"payload_file"`
	Instance    int64     `ch:"instance"`
	PID         int64     `ch:"pid"`
	Requested   int64     `ch:"requested"`
	Launched    int64     `ch:"launched"`
	Error       string    `ch:"error"`
}

// Recent returns up to limit events, newest first.
func (s *Sink) Recent(ctx context.Context, limit int) ([]history.Event, error) {
	if limit <= 0 {
		limit = history.DefaultLimit
	}
	var rows []row
	q := `SELECT launch_id, event, occurred_at, game_path, payload_file, instance, pid, requested, launched, error
		FROM ` + s.table + ` ORDER BY occurred_at DESC LIMIT ?`
	if err := s.conn.Select(ctx, &rows, q, limit); err != nil {
		return nil, err
	}
	out := make([]history.Event, 0, len(rows))
	for _, r := range rows {
		out = append(out, history.Event{
			LaunchID:    r.LaunchID,
			Type:        history.EventType(r.Event),
			OccurredAt:  r.OccurredAt,
			InstallPath: r.GamePath,
			PayloadFile: r.PayloadFile,
			Instance:    int(r.Instance),
			PID:         int(r.PID),
			Requested:   int(r.Requested),
			Launched:    int(r.Launched),
			Error:       r.Error,
		})
	}
	return out, nil
}
