package test

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"safehunt/test/actors"
	"safehunt/test/chaos"
	"safehunt/test/infra"
	"safehunt/test/oracles"
)

var (
	flDuration    = flag.Duration("duration", 90*time.Second, "how long to run stress")
	flConcurrency = flag.Int("concurrency", 8, "number of concurrent actors")
	flSeed        = flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flDSN         = flag.String("dsn", "", "existing Postgres DSN to reuse (avoids Docker)")
)

func seedRNG(seed int64) { rand.Seed(seed) }

func TestZoneConcurrency(t *testing.T) {
	flag.Parse()
	seed := *flSeed
	seedRNG(seed)

	var (
		pgC        *infra.PGContainer
		dsn        string
		err        error
		usedShared bool
	)
	ctx, cancel := context.WithTimeout(context.Background(), *flDuration+60*time.Second)
	defer cancel()

	switch {
	case *flDSN != "":
		dsn = *flDSN
		usedShared = true
		pgC = &infra.PGContainer{}
	case os.Getenv("SAFEHUNT_STRESS_PG_DSN") != "":
		dsn = os.Getenv("SAFEHUNT_STRESS_PG_DSN")
		usedShared = true
		pgC = &infra.PGContainer{}
	default:
		if dockerAvailable(ctx) {
			pgC, dsn, err = infra.StartPostgres16(ctx, "")
			if err != nil {
				t.Fatalf("start postgres: %v", err)
			}
		} else {
			dsn, err = infra.InitLocalDatabase(ctx)
			if err != nil {
				t.Fatalf("init local database: %v", err)
			}
			pgC = &infra.PGContainer{}
		}
	}
	defer pgC.Terminate(context.Background())

	// migrations
	pool, teardown, err := infra.ApplyMigrations(ctx, dsn, usedShared)
	if err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	defer pool.Close()
	defer func() {
		if err := teardown(context.Background()); err != nil {
			t.Logf("teardown warning: %v", err)
		}
	}()

	// seed minimal data
	seedData := mustSeed(t, ctx, pool)

	// run actors
	g, ctx2 := errgroup.WithContext(ctx)
	stop := make(chan struct{})

	// publishers and editors battling over the same hunter's zones
	for i := 0; i < *flConcurrency; i++ {
		g.Go(func() error { return actors.Publisher(ctx2, pool, seedData.hunterID, stop) })
		g.Go(func() error { return actors.Editor(ctx2, pool, seedData.hunterID, stop) })
	}

	// slow delete churn on the same rows
	g.Go(func() error { return actors.Remover(ctx2, pool, seedData.hunterID, stop) })
	// admin toggling another hunter's certification
	g.Go(func() error { return actors.Certifier(ctx2, pool, seedData.adminID, seedData.pendingID, stop) })
	// map read load
	g.Go(func() error { return actors.FeedReader(ctx2, pool, stop) })
	// chaos: kill random backend
	go chaos.TerminateRandomBackend(ctx2, pool, "", stop)

	// schedule oracle checks until duration reached
	deadline := time.Now().Add(*flDuration)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	var failed bool
loop:
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			name, row, err := oracles.Run(ctx2, pool)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					break loop
				}
				t.Fatalf("oracle error: %v", err)
			}
			if name != "" {
				failed = true
				dumpRecent(t, ctx2, pool)
				t.Fatalf("Oracle %s failed. First row: %s (seed=%d)", name, row, seed)
			}
		}
	}

	close(stop)
	if err := g.Wait(); err != nil && !failed {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("actors errored: %v", err)
		}
	}
}

func dockerAvailable(ctx context.Context) bool {
	if _, err := exec.LookPath("docker"); err != nil {
		return false
	}
	c := exec.CommandContext(ctx, "docker", "info")
	c.Stdout = io.Discard
	c.Stderr = io.Discard
	return c.Run() == nil
}

type seedIDs struct {
	adminID   string
	hunterID  string
	pendingID string
}

func mustSeed(t *testing.T, ctx context.Context, pool *pgxpool.Pool) seedIDs {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("motdepasse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("seed hash: %v", err)
	}

	var s seedIDs
	insert := `INSERT INTO users (email, display_name, password_hash, role, certified, certified_at)
	           VALUES ($1, $2, $3, $4, $5, CASE WHEN $5 THEN now() END) RETURNING id`

	if err := pool.QueryRow(ctx, insert, fmt.Sprintf("admin%d@example.fr", rand.Int63()), "Stress Admin", string(hash), "admin", false).Scan(&s.adminID); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	if err := pool.QueryRow(ctx, insert, fmt.Sprintf("chasseur%d@example.fr", rand.Int63()), "Stress Chasseur", string(hash), "chasseur", true).Scan(&s.hunterID); err != nil {
		t.Fatalf("seed hunter: %v", err)
	}
	if err := pool.QueryRow(ctx, insert, fmt.Sprintf("attente%d@example.fr", rand.Int63()), "Stress Attente", string(hash), "chasseur", false).Scan(&s.pendingID); err != nil {
		t.Fatalf("seed pending hunter: %v", err)
	}

	// a few zones so editors and removers have something to contend on
	for i := 0; i < 5; i++ {
		start := time.Now().Add(time.Duration(1+i) * time.Hour)
		if _, err := pool.Exec(ctx, `
			INSERT INTO zones (type, start_at, end_at, geometry, created_by)
			VALUES ('battue', $1, $2, '{"type":"circle","lat":45.18,"lng":5.72,"radius":500}'::jsonb, $3)`,
			start, start.Add(2*time.Hour), s.hunterID); err != nil {
			t.Fatalf("seed zone: %v", err)
		}
	}
	return s
}

func dumpRecent(t *testing.T, ctx context.Context, pool *pgxpool.Pool) {
	t.Helper()
	type dump struct {
		name string
		sql  string
	}
	dumps := []dump{
		{"zones", `SELECT id, type, start_at, end_at, created_by, updated_at FROM zones ORDER BY updated_at DESC LIMIT 50`},
		{"users", `SELECT id, role, certified, certified_at, revoked_at FROM users ORDER BY updated_at DESC LIMIT 50`},
		{"audit_events", `SELECT id, subject_id, type, actor_id, created_at FROM audit_events ORDER BY id DESC LIMIT 50`},
	}
	for _, d := range dumps {
		rows, err := pool.Query(ctx, d.sql)
		if err != nil {
			t.Logf("dump %s error: %v", d.name, err)
			continue
		}
		cols := rows.FieldDescriptions()
		t.Logf("-- %s --", d.name)
		for rows.Next() {
			vals, _ := rows.Values()
			// compact print
			buf := make([]any, 0, len(vals))
			for i := range vals {
				buf = append(buf, fmt.Sprintf("%s=%v", string(cols[i].Name), vals[i]))
			}
			t.Logf("%s", buf)
		}
		rows.Close()
	}
}
