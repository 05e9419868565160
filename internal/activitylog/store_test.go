package activitylog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestStore(t *testing.T, opts ...Option) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := New(dir, discardLogger(), opts...)
	require.NoError(t, err)
	return store, dir
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func recordID(id int64) *int64 { return &id }

func TestAppendAndQueryRoundtrip(t *testing.T) {
	day := time.Date(2025, 3, 28, 14, 30, 0, 0, time.UTC)
	store, dir := newTestStore(t, WithClock(fixedClock(day)))

	ok := store.Append(Entry{
		User:     "admin@example.com",
		IP:       "10.0.0.5",
		Action:   "status_change",
		RecordID: recordID(42),
		Details:  "paperwork_created -> started",
	})
	require.True(t, ok)

	// One standalone JSON object per line in the day-partitioned file.
	raw, err := os.ReadFile(filepath.Join(dir, "activity_2025-03-28.log"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(raw), "\n"))
	assert.Contains(t, string(raw), `"timestamp":"2025-03-28 14:30:00"`)
	assert.Contains(t, string(raw), `"record_id":42`)

	got := store.Query(Filter{})
	require.Len(t, got, 1)
	assert.Equal(t, "admin@example.com", got[0].User)
	assert.Equal(t, "status_change", got[0].Action)
	assert.Equal(t, int64(42), *got[0].RecordID)
}

func TestQueryNewestFirstWithPagination(t *testing.T) {
	store, _ := newTestStore(t, WithClock(fixedClock(time.Date(2025, 3, 28, 9, 0, 0, 0, time.UTC))))

	for i := 1; i <= 5; i++ {
		require.True(t, store.Append(Entry{
			User:    "staff@example.com",
			Action:  "create",
			Details: fmt.Sprintf("entry %d", i),
		}))
	}

	// limit=2 offset=1 over 5 entries returns the 2nd and 3rd newest.
	got := store.Query(Filter{Limit: 2, Offset: 1})
	require.Len(t, got, 2)
	assert.Equal(t, "entry 4", got[0].Details)
	assert.Equal(t, "entry 3", got[1].Details)
}

func TestQueryFilters(t *testing.T) {
	store, _ := newTestStore(t)

	require.True(t, store.Append(Entry{User: "alice", Action: "create", RecordID: recordID(1)}))
	require.True(t, store.Append(Entry{User: "bob", Action: "status_change", RecordID: recordID(1)}))
	require.True(t, store.Append(Entry{User: "alice", Action: "status_change", RecordID: recordID(2)}))

	assert.Len(t, store.Query(Filter{User: "alice"}), 2)
	assert.Len(t, store.Query(Filter{Action: "status_change"}), 2)
	assert.Len(t, store.Query(Filter{User: "alice", Action: "status_change"}), 1)
	assert.Len(t, store.Query(Filter{RecordID: recordID(1)}), 2)
	assert.Empty(t, store.Query(Filter{User: "carol"}))

	assert.Equal(t, 2, store.Count(Filter{User: "alice"}))
	assert.Equal(t, 3, store.Count(Filter{}))
}

func TestQueryMissingDayIsEmpty(t *testing.T) {
	store, _ := newTestStore(t)
	assert.Empty(t, store.Query(Filter{Day: "2020-01-01"}))
	assert.Zero(t, store.Count(Filter{Day: "2020-01-01"}))
}

func TestQuerySkipsMalformedLines(t *testing.T) {
	day := time.Date(2025, 3, 28, 9, 0, 0, 0, time.UTC)
	store, dir := newTestStore(t, WithClock(fixedClock(day)))

	require.True(t, store.Append(Entry{User: "alice", Action: "create"}))

	path := filepath.Join(dir, "activity_2025-03-28.log")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("not json at all\n{\"truncated\":\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.True(t, store.Append(Entry{User: "bob", Action: "create"}))

	got := store.Query(Filter{})
	require.Len(t, got, 2)
	assert.Equal(t, "bob", got[0].User)
	assert.Equal(t, "alice", got[1].User)
}

func TestRotationAtThreshold(t *testing.T) {
	day := time.Date(2025, 3, 28, 16, 45, 12, 0, time.UTC)
	// Filler lines are 167 bytes each; five fit under the threshold, so the
	// sixth append is the first to see the file at/over it and must rotate.
	store, dir := newTestStore(t, WithClock(fixedClock(day)), WithMaxSize(700))

	for i := 0; i < 5; i++ {
		require.True(t, store.Append(Entry{User: "alice", Action: "create", Details: strings.Repeat("x", 60)}))
	}
	require.True(t, store.Append(Entry{User: "alice", Action: "create", Details: "fresh"}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var backups, live []string
	for _, de := range entries {
		if strings.HasSuffix(de.Name(), ".bak") {
			backups = append(backups, de.Name())
		} else {
			live = append(live, de.Name())
		}
	}
	require.Len(t, backups, 1, "exactly one rotated backup")
	assert.Equal(t, "activity_2025-03-28.log.2025-03-28_16-45-12.bak", backups[0])
	require.Len(t, live, 1)

	// The fresh file holds only the newest entry.
	got := store.Query(Filter{})
	require.Len(t, got, 1)
	assert.Equal(t, "fresh", got[0].Details)
}

func TestListDaysDescending(t *testing.T) {
	dir := t.TempDir()
	clock := time.Date(2025, 3, 26, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		day := clock.AddDate(0, 0, i)
		store, err := New(dir, discardLogger(), WithClock(fixedClock(day)))
		require.NoError(t, err)
		require.True(t, store.Append(Entry{User: "alice", Action: "create"}))
	}
	// Rotated backups must not count as days.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "activity_2025-03-20.log.2025-03-20_10-00-00.bak"), []byte("{}\n"), 0o644))

	store, err := New(dir, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-03-28", "2025-03-27", "2025-03-26"}, store.ListDays())
}

func TestDistinctActorsAndActions(t *testing.T) {
	dir := t.TempDir()
	dayOne, err := New(dir, discardLogger(), WithClock(fixedClock(time.Date(2025, 3, 27, 9, 0, 0, 0, time.UTC))))
	require.NoError(t, err)
	require.True(t, dayOne.Append(Entry{User: "bob", Action: "delete"}))
	require.True(t, dayOne.Append(Entry{User: "alice", Action: "create"}))

	dayTwo, err := New(dir, discardLogger(), WithClock(fixedClock(time.Date(2025, 3, 28, 9, 0, 0, 0, time.UTC))))
	require.NoError(t, err)
	require.True(t, dayTwo.Append(Entry{User: "alice", Action: "status_change"}))

	assert.Equal(t, []string{"alice", "bob"}, dayTwo.DistinctActors())
	assert.Equal(t, []string{"create", "delete", "status_change"}, dayTwo.DistinctActions())
}

func TestClearSingleDay(t *testing.T) {
	store, dir := newTestStore(t, WithClock(fixedClock(time.Date(2025, 3, 28, 9, 0, 0, 0, time.UTC))))
	require.True(t, store.Append(Entry{User: "alice", Action: "create"}))

	assert.True(t, store.Clear("2025-03-28"))
	_, err := os.Stat(filepath.Join(dir, "activity_2025-03-28.log"))
	assert.True(t, os.IsNotExist(err))

	// Clearing an absent day is not a failure.
	assert.True(t, store.Clear("2020-01-01"))
}

func TestClearAllLeavesBackups(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 2; i++ {
		day := time.Date(2025, 3, 27+i, 9, 0, 0, 0, time.UTC)
		store, err := New(dir, discardLogger(), WithClock(fixedClock(day)))
		require.NoError(t, err)
		require.True(t, store.Append(Entry{User: "alice", Action: "create"}))
	}
	backup := filepath.Join(dir, "activity_2025-03-20.log.2025-03-20_10-00-00.bak")
	require.NoError(t, os.WriteFile(backup, []byte("{}\n"), 0o644))

	store, err := New(dir, discardLogger())
	require.NoError(t, err)
	assert.True(t, store.Clear("all"))
	assert.Empty(t, store.ListDays())

	_, err = os.Stat(backup)
	assert.NoError(t, err, "rotated backups are never deleted automatically")
}

func TestAppendConcurrentLinesStayWhole(t *testing.T) {
	store, _ := newTestStore(t)

	done := make(chan struct{})
	for g := 0; g < 8; g++ {
		go func(g int) {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 25; i++ {
				store.Append(Entry{User: fmt.Sprintf("user-%d", g), Action: "create", Details: strings.Repeat("d", 50)})
			}
		}(g)
	}
	for g := 0; g < 8; g++ {
		<-done
	}

	// Every line must parse: no interleaved partial writes.
	assert.Equal(t, 200, store.Count(Filter{}))
}
