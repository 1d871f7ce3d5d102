package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/victorivanov/chatsync/internal/gateway"
	"github.com/victorivanov/chatsync/internal/models"
	"github.com/victorivanov/chatsync/internal/presence"
	redisclient "github.com/victorivanov/chatsync/internal/redis"
	"github.com/victorivanov/chatsync/internal/snowflake"
)

// Set via -ldflags at build time.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "migrate":
		if hasFlag("--help", os.Args[2:]) {
			fmt.Println("Usage: chatsync-cli migrate")
			fmt.Println()
			fmt.Println("Run database migrations from the migrations/ directory.")
			fmt.Println()
			fmt.Println("Environment:")
			fmt.Println("  DATABASE_URL  PostgreSQL connection string (required)")
			return
		}
		os.Exit(runMigrate())
	case "seed":
		if hasFlag("--help", os.Args[2:]) {
			fmt.Println("Usage: chatsync-cli seed")
			fmt.Println()
			fmt.Println("Seed the database with demo data: users, channels, memberships, and messages.")
			fmt.Println()
			fmt.Println("Environment:")
			fmt.Println("  DATABASE_URL  PostgreSQL connection string (required)")
			return
		}
		os.Exit(runSeed())
	case "status":
		if hasFlag("--help", os.Args[2:]) || len(os.Args) < 3 {
			fmt.Println("Usage: chatsync-cli status <user-id> [description] [emoji]")
			fmt.Println()
			fmt.Println("Publish a user-status patch. With only a user id, clears the status.")
			fmt.Println()
			fmt.Println("Environment:")
			fmt.Println("  REDIS_URL  Redis connection string (default: redis://localhost:6379)")
			return
		}
		os.Exit(runStatus(os.Args[2:]))
	case "watch":
		if hasFlag("--help", os.Args[2:]) {
			fmt.Println("Usage: chatsync-cli watch")
			fmt.Println()
			fmt.Println("Connect to the gateway and print membership-count and user-status")
			fmt.Println("events as they arrive. Ctrl-C to stop.")
			fmt.Println()
			fmt.Println("Environment:")
			fmt.Println("  SERVER_URL  Server base URL (default: http://localhost:8080)")
			return
		}
		os.Exit(runWatch())
	case "health":
		if hasFlag("--help", os.Args[2:]) {
			fmt.Println("Usage: chatsync-cli health")
			fmt.Println()
			fmt.Println("Check if the chatsync server is running.")
			fmt.Println()
			fmt.Println("Environment:")
			fmt.Println("  SERVER_URL  Server base URL (default: http://localhost:8080)")
			return
		}
		os.Exit(runHealth())
	case "version":
		fmt.Printf("chatsync-cli %s\n", version)
	case "--help", "-h", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: chatsync-cli <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  migrate  Run database migrations")
	fmt.Println("  seed     Seed demo data (users, channels, memberships, messages)")
	fmt.Println("  status   Publish a user-status patch")
	fmt.Println("  watch    Stream gateway events to the terminal")
	fmt.Println("  health   Check if the server is running")
	fmt.Println("  version  Print version info")
	fmt.Println()
	fmt.Println("Run 'chatsync-cli <command> --help' for details on a command.")
}

func hasFlag(flag string, args []string) bool {
	for _, a := range args {
		if a == flag {
			return true
		}
	}
	return false
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		fmt.Fprintf(os.Stderr, "error: %s environment variable is required\n", key)
		os.Exit(1)
	}
	return v
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// --- migrate ---

func runMigrate() int {
	dbURL := requireEnv("DATABASE_URL")

	fmt.Println("connecting to database...")
	m, err := migrate.New("file://migrations", dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: migration init failed: %v\n", err)
		return 1
	}
	defer m.Close()

	fmt.Println("running migrations...")
	upErr := m.Up()
	if upErr != nil && upErr != migrate.ErrNoChange {
		fmt.Fprintf(os.Stderr, "error: migration failed: %v\n", upErr)
		return 1
	}

	v, dirty, _ := m.Version()
	fmt.Println(migrateSummary(upErr, v, dirty))
	return 0
}

// migrateSummary reports what an Up pass did. migrate.ErrNoChange is the
// no-op signal, not a failure.
func migrateSummary(upErr error, v uint, dirty bool) string {
	if upErr == migrate.ErrNoChange {
		return fmt.Sprintf("no new migrations (current version: %d)", v)
	}
	return fmt.Sprintf("migrations applied (version: %d, dirty: %v)", v, dirty)
}

// --- seed ---

func runSeed() int {
	dbURL := requireEnv("DATABASE_URL")
	ctx := context.Background()

	fmt.Println("connecting to database...")
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: database connection failed: %v\n", err)
		return 1
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: database ping failed: %v\n", err)
		return 1
	}

	sf, err := snowflake.NewGenerator(0, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: snowflake init failed: %v\n", err)
		return 1
	}

	aliceID := sf.Generate()
	bobID := sf.Generate()
	carolID := sf.Generate()
	generalChanID := sf.Generate()
	randomChanID := sf.Generate()
	msg1ID := sf.Generate()
	msg2ID := sf.Generate()
	msg3ID := sf.Generate()

	now := time.Now()

	tx, err := pool.Begin(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: starting transaction: %v\n", err)
		return 1
	}
	defer tx.Rollback(ctx)

	// Users. Carol is staged and must never count toward user_count.
	fmt.Println("creating users...")
	_, err = tx.Exec(ctx,
		`INSERT INTO users (id, username, active, staged, created_at) VALUES ($1,$2,true,false,$3), ($4,$5,true,false,$6), ($7,$8,true,true,$9)
		 ON CONFLICT (id) DO NOTHING`,
		aliceID, "alice", now,
		bobID, "bob", now,
		carolID, "carol", now,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: creating users: %v\n", err)
		return 1
	}

	// Channels. The stored counters start at zero so the first
	// consistency pass has visible work to do.
	fmt.Println("creating channels...")
	_, err = tx.Exec(ctx,
		`INSERT INTO channels (id, name, slug, status, created_at) VALUES ($1,$2,$3,$4,$5), ($6,$7,$8,$9,$10)
		 ON CONFLICT (id) DO NOTHING`,
		generalChanID, "general", "general", int16(models.ChannelStatusOpen), now,
		randomChanID, "random", nil, int16(models.ChannelStatusOpen), now,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: creating channels: %v\n", err)
		return 1
	}

	// Memberships.
	fmt.Println("creating memberships...")
	_, err = tx.Exec(ctx,
		`INSERT INTO channel_memberships (user_id, channel_id, following, created_at)
		 VALUES ($1,$2,true,$3), ($4,$5,true,$6), ($7,$8,true,$9), ($10,$11,false,$12)
		 ON CONFLICT (user_id, channel_id) DO NOTHING`,
		aliceID, generalChanID, now,
		bobID, generalChanID, now,
		carolID, generalChanID, now,
		bobID, randomChanID, now,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: creating memberships: %v\n", err)
		return 1
	}

	// Messages.
	fmt.Println("creating messages...")
	_, err = tx.Exec(ctx,
		`INSERT INTO messages (id, channel_id, user_id, content, created_at) VALUES ($1,$2,$3,$4,$5), ($6,$7,$8,$9,$10), ($11,$12,$13,$14,$15)
		 ON CONFLICT (id) DO NOTHING`,
		msg1ID, generalChanID, aliceID, "Welcome to chatsync!", now,
		msg2ID, generalChanID, bobID, "Hey Alice, glad to be here!", now,
		msg3ID, randomChanID, bobID, "This is the random channel.", now,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: creating messages: %v\n", err)
		return 1
	}

	if err := tx.Commit(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: committing transaction: %v\n", err)
		return 1
	}

	fmt.Println()
	fmt.Println("seed complete:")
	fmt.Printf("  users:    alice, bob, carol (staged)\n")
	fmt.Printf("  channels: #general (3 followers, 2 eligible), #random (0 followers)\n")
	fmt.Printf("  messages: 3 messages across both channels\n")
	fmt.Println()
	fmt.Println("run POST /api/v1/consistency (or wait a tick) to populate the counters")
	return 0
}

// --- status ---

func runStatus(args []string) int {
	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: user id must be a number: %v\n", err)
		return 1
	}

	rdb, err := redisclient.NewClient(envOr("REDIS_URL", "redis://localhost:6379"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: redis: %v\n", err)
		return 1
	}
	defer rdb.Close()

	patch := map[string]json.RawMessage{
		strconv.FormatInt(userID, 10): json.RawMessage("null"),
	}
	if len(args) > 1 {
		status := models.UserStatus{Description: args[1]}
		if len(args) > 2 {
			status.Emoji = args[2]
		}
		body, err := json.Marshal(status)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: encoding status: %v\n", err)
			return 1
		}
		patch[strconv.FormatInt(userID, 10)] = body
	}

	if err := rdb.PublishUserStatus(context.Background(), patch); err != nil {
		fmt.Fprintf(os.Stderr, "error: publishing status: %v\n", err)
		return 1
	}
	if len(args) > 1 {
		fmt.Printf("status set for user %d\n", userID)
	} else {
		fmt.Printf("status cleared for user %d\n", userID)
	}
	return 0
}

// --- watch ---

func runWatch() int {
	serverURL := envOr("SERVER_URL", "http://localhost:8080")
	u, err := url.Parse(serverURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: bad SERVER_URL: %v\n", err)
		return 1
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/gateway"

	fmt.Printf("connecting to %s ...\n", u.String())
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: dialing gateway: %v\n", err)
		return 1
	}
	defer conn.Close()
	fmt.Println("connected; streaming events (Ctrl-C to stop)")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	tracker := presence.NewTracker()
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return 0
			}
			fmt.Fprintf(os.Stderr, "error: gateway read: %v\n", err)
			return 1
		}

		var frame gateway.Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			fmt.Fprintf(os.Stderr, "skipping malformed frame: %v\n", err)
			continue
		}

		switch frame.Event {
		case gateway.EventChannelMetadata:
			var meta redisclient.MembershipCountPayload
			if err := json.Unmarshal(frame.Data, &meta); err != nil {
				fmt.Fprintf(os.Stderr, "skipping malformed metadata: %v\n", err)
				continue
			}
			fmt.Printf("channel %d now has %d members\n", meta.ChannelID, meta.MembershipsCount)
		case gateway.EventUserStatus:
			if err := tracker.ApplyJSON(frame.Data); err != nil {
				fmt.Fprintf(os.Stderr, "skipping malformed status patch: %v\n", err)
				continue
			}
			printStatusPatch(tracker, frame.Data)
		default:
			fmt.Printf("unknown event %q\n", frame.Event)
		}
	}
}

func printStatusPatch(tracker *presence.Tracker, data json.RawMessage) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return
	}
	for k := range keys {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			continue
		}
		if status, ok := tracker.Status(id); ok {
			fmt.Printf("user %d status: %s %s\n", id, status.Emoji, status.Description)
		} else {
			fmt.Printf("user %d status cleared\n", id)
		}
	}
}

// --- health ---

func runHealth() int {
	serverURL := envOr("SERVER_URL", "http://localhost:8080")
	healthURL := serverURL + "/health"

	fmt.Printf("checking %s ...\n", healthURL)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(healthURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("status: %d\n", resp.StatusCode)
	if len(body) > 0 {
		fmt.Printf("body:   %s\n", string(body))
	}

	if resp.StatusCode == http.StatusOK {
		fmt.Println("server is healthy")
		return 0
	}
	fmt.Fprintln(os.Stderr, "server returned non-200 status")
	return 1
}
