// Package activitylog implements the flat, append-only user action log:
// one JSONL file per calendar day with size-based rotation. It is the
// human-auditable half of the audit trail; the structured half lives in
// the status_history table.
//
// Writes are best-effort by contract: Append and Clear report failure as a
// boolean and never return an error, because callers treat the flat log as
// a lower tier than their primary write.
package activitylog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	// TimestampLayout is the wire format for entry timestamps.
	TimestampLayout = "2006-01-02 15:04:05"

	dayLayout    = "2006-01-02"
	backupLayout = "2006-01-02_15-04-05"

	filePrefix = "activity_"
	fileSuffix = ".log"
)

var dayFilePattern = regexp.MustCompile(`^activity_(\d{4}-\d{2}-\d{2})\.log$`)

// Entry is one logged user action. Entries are immutable once written;
// ordering is append order within a day's file.
type Entry struct {
	Timestamp string `json:"timestamp"`
	User      string `json:"user"`
	IP        string `json:"ip"`
	Action    string `json:"action"`
	RecordID  *int64 `json:"record_id"`
	Details   string `json:"details"`
}

// Filter narrows Query and Count results. Zero-value fields match
// everything; Day defaults to today.
type Filter struct {
	Day      string
	User     string
	Action   string
	RecordID *int64
	Limit    int
	Offset   int
}

// Store writes and reads the per-day activity files.
type Store struct {
	mu      sync.Mutex
	dir     string
	maxSize int64
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithMaxSize overrides the rotation threshold in bytes.
func WithMaxSize(n int64) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxSize = n
		}
	}
}

// New constructs a Store rooted at dir, creating it if needed.
func New(dir string, logger *slog.Logger, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create activity log dir: %w", err)
	}
	s := &Store{
		dir:     dir,
		maxSize: 5 * 1024 * 1024,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Append serializes the entry as one JSON line and appends it to today's
// file, rotating first if the file is at or over the size threshold.
// Returns false on any I/O failure; it never propagates an error because
// the flat log is a best-effort tier.
func (s *Store) Append(e Entry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e.Timestamp == "" {
		e.Timestamp = now.Format(TimestampLayout)
	}

	line, err := json.Marshal(e)
	if err != nil {
		s.logger.Warn("activity log marshal failed", "error", err, "action", e.Action)
		return false
	}

	path := s.dayPath(now.Format(dayLayout))
	if err := s.rotateIfNeeded(path, now); err != nil {
		s.logger.Warn("activity log rotation failed", "error", err, "file", path)
		return false
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		s.logger.Warn("activity log open failed", "error", err, "file", path)
		return false
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		s.logger.Warn("activity log write failed", "error", err, "file", path)
		return false
	}
	return true
}

// rotateIfNeeded renames the day file to a timestamped backup when it has
// reached the size threshold. Rotated files are left in place forever.
func (s *Store) rotateIfNeeded(path string, now time.Time) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.Size() < s.maxSize {
		return nil
	}
	backup := path + "." + now.Format(backupLayout) + ".bak"
	return os.Rename(path, backup)
}

// Query returns matching entries newest-first, skipping Offset matches and
// collecting at most Limit. Malformed lines are skipped silently; a
// missing day file yields an empty result.
func (s *Store) Query(f Filter) []Entry {
	entries := s.readDay(s.resolveDay(f.Day))

	limit := f.Limit
	if limit <= 0 {
		limit = len(entries)
	}

	var (
		out     []Entry
		skipped int
	)
	// Reverse insertion order: newest entries are at the end of the file.
	for i := len(entries) - 1; i >= 0; i-- {
		if !f.matches(entries[i]) {
			continue
		}
		if skipped < f.Offset {
			skipped++
			continue
		}
		out = append(out, entries[i])
		if len(out) >= limit {
			break
		}
	}
	return out
}

// Count returns the number of entries matching the filter. Limit and
// Offset are ignored; scan order doesn't matter for a count.
func (s *Store) Count(f Filter) int {
	var n int
	for _, e := range s.readDay(s.resolveDay(f.Day)) {
		if f.matches(e) {
			n++
		}
	}
	return n
}

// ListDays enumerates the days with a live log file, sorted descending.
func (s *Store) ListDays() []string {
	var days []string
	for _, day := range s.liveDays() {
		days = append(days, day)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))
	return days
}

// DistinctActors scans all live files and returns the unique user
// identifiers seen, sorted ascending.
func (s *Store) DistinctActors() []string {
	return s.distinct(func(e Entry) string { return e.User })
}

// DistinctActions scans all live files and returns the unique action tags
// seen, sorted ascending.
func (s *Store) DistinctActions() []string {
	return s.distinct(func(e Entry) string { return e.Action })
}

// Clear deletes one day's live file, or every live file when day is
// "all". Returns false if any delete fails; earlier deletes in the "all"
// case are not rolled back.
func (s *Store) Clear(day string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if day == "all" {
		ok := true
		for _, d := range s.liveDays() {
			if err := os.Remove(s.dayPath(d)); err != nil {
				s.logger.Warn("activity log delete failed", "error", err, "day", d)
				ok = false
			}
		}
		return ok
	}

	err := os.Remove(s.dayPath(day))
	if err != nil && !os.IsNotExist(err) {
		s.logger.Warn("activity log delete failed", "error", err, "day", day)
		return false
	}
	return true
}

func (f Filter) matches(e Entry) bool {
	if f.User != "" && e.User != f.User {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.RecordID != nil {
		if e.RecordID == nil || *e.RecordID != *f.RecordID {
			return false
		}
	}
	return true
}

func (s *Store) resolveDay(day string) string {
	if day == "" {
		return s.now().Format(dayLayout)
	}
	return day
}

func (s *Store) dayPath(day string) string {
	return filepath.Join(s.dir, filePrefix+day+fileSuffix)
}

// readDay parses a day's file into entries in insertion order. Missing
// files and malformed lines are not errors.
func (s *Store) readDay(day string) []Entry {
	f, err := os.Open(s.dayPath(day))
	if err != nil {
		return nil
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries
}

// liveDays lists days with an active (non-rotated) file, unsorted.
func (s *Store) liveDays() []string {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}
	var days []string
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		if m := dayFilePattern.FindStringSubmatch(de.Name()); m != nil {
			days = append(days, m[1])
		}
	}
	return days
}

func (s *Store) distinct(key func(Entry) string) []string {
	seen := make(map[string]struct{})
	for _, day := range s.liveDays() {
		for _, e := range s.readDay(day) {
			if v := key(e); v != "" {
				seen[v] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
