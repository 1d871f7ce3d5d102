package database

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/victorivanov/chatsync/internal/models"
)

// testPool returns a pgxpool.Pool connected to the test database.
// It skips the test if DATABASE_URL is not set.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connecting to test database: %v", err)
	}
	t.Cleanup(func() { pool.Close() })
	return pool
}

// testIDCounter provides unique IDs across all tests in the package.
// Starts well above zero to avoid conflicts with any existing data.
var testIDCounter int64 = 500000

func nextID() int64 {
	return atomic.AddInt64(&testIDCounter, 1)
}

func createTestChannel(t *testing.T, repo ChannelRepository) *models.Channel {
	t.Helper()
	ctx := context.Background()
	ch := &models.Channel{
		ID:                       nextID(),
		Name:                     fmt.Sprintf("channel-%d", testIDCounter),
		Status:                   models.ChannelStatusOpen,
		AllowChannelWideMentions: true,
	}
	if err := repo.Create(ctx, ch); err != nil {
		t.Fatalf("creating test channel: %v", err)
	}
	t.Cleanup(func() { cleanupChannel(t, ch.ID) })
	return ch
}

func createTestUser(t *testing.T, repo UserRepository) *models.User {
	t.Helper()
	ctx := context.Background()
	user := &models.User{
		ID:       nextID(),
		Username: fmt.Sprintf("user-%d", testIDCounter),
		Active:   true,
	}
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("creating test user: %v", err)
	}
	t.Cleanup(func() { cleanupUser(t, user.ID) })
	return user
}

func createTestMessage(t *testing.T, repo MessageRepository, channelID, userID int64) *models.Message {
	t.Helper()
	ctx := context.Background()
	msg := &models.Message{
		ID:        nextID(),
		ChannelID: channelID,
		UserID:    userID,
		Content:   "hello",
	}
	if err := repo.Create(ctx, msg); err != nil {
		t.Fatalf("creating test message: %v", err)
	}
	return msg
}

func follow(t *testing.T, repo MembershipRepository, userID, channelID int64, following bool) {
	t.Helper()
	m := &models.Membership{UserID: userID, ChannelID: channelID, Following: following}
	if err := repo.Upsert(context.Background(), m); err != nil {
		t.Fatalf("upserting membership: %v", err)
	}
}

// Hard deletes for test cleanup; production code only ever soft-deletes.

var cleanupPool *pgxpool.Pool

func sharedCleanupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if cleanupPool == nil {
		pool, err := pgxpool.New(context.Background(), os.Getenv("DATABASE_URL"))
		if err != nil {
			t.Fatalf("connecting cleanup pool: %v", err)
		}
		cleanupPool = pool
	}
	return cleanupPool
}

func cleanupChannel(t *testing.T, id int64) {
	pool := sharedCleanupPool(t)
	ctx := context.Background()
	_, _ = pool.Exec(ctx, `DELETE FROM channel_memberships WHERE channel_id = $1`, id)
	_, _ = pool.Exec(ctx, `DELETE FROM messages WHERE channel_id = $1`, id)
	_, _ = pool.Exec(ctx, `DELETE FROM channels WHERE id = $1`, id)
}

func cleanupUser(t *testing.T, id int64) {
	pool := sharedCleanupPool(t)
	ctx := context.Background()
	_, _ = pool.Exec(ctx, `DELETE FROM channel_memberships WHERE user_id = $1`, id)
	_, _ = pool.Exec(ctx, `DELETE FROM messages WHERE user_id = $1`, id)
	_, _ = pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
}
