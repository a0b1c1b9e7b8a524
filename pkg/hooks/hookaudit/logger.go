package hookaudit

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hookguard/hookguard/pkg/hooks/hookerrors"
	"github.com/hookguard/hookguard/pkg/logger"
)

const (
	defaultMaxSizeBytes = 100 * 1024 * 1024 // 100MB
	defaultRetentionDays = 90
	rotatedFilePrefix     = "hooks_audit_"
	rotatedFileSuffix     = ".log"
)

// Logger is an append-only, size-rotating JSON-lines audit log, with a
// cron-scheduled sweep for files past their retention window.
type Logger struct {
	mu            sync.Mutex
	file          *os.File
	logPath       string
	maxSizeBytes  int64
	retentionDays int

	log logger.Logger
	cr  *cron.Cron
}

// Option configures a Logger at construction time.
type Option func(*Logger)

// WithMaxSizeBytes overrides the default 100MB rotation threshold.
func WithMaxSizeBytes(n int64) Option { return func(l *Logger) { l.maxSizeBytes = n } }

// WithRetentionDays overrides the default 90-day retention window.
func WithRetentionDays(days int) Option { return func(l *Logger) { l.retentionDays = days } }

// WithLogger attaches a structured logger for the audit logger's own
// operational messages (not the audit events themselves).
func WithLogger(log logger.Logger) Option { return func(l *Logger) { l.log = log } }

// New opens (creating if necessary) the audit log file at logPath and
// schedules a daily retention sweep via robfig/cron.
func New(logPath string, opts ...Option) (*Logger, error) {
	if dir := filepath.Dir(logPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, hookerrors.New("new_audit_logger", hookerrors.KindIO, err)
		}
	}

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, hookerrors.New("new_audit_logger", hookerrors.KindIO, err)
	}

	l := &Logger{
		file:          file,
		logPath:       logPath,
		maxSizeBytes:  defaultMaxSizeBytes,
		retentionDays: defaultRetentionDays,
		log:           logger.NewDefaultLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}

	l.cr = cron.New()
	if _, err := l.cr.AddFunc("@daily", func() {
		if err := l.cleanupOldLogs(); err != nil {
			l.log.Warn("audit log retention sweep failed", map[string]interface{}{"error": err.Error()})
		}
	}); err != nil {
		return nil, hookerrors.New("new_audit_logger", hookerrors.KindInternalInvariant, err)
	}
	l.cr.Start()

	return l, nil
}

// Close stops the retention scheduler and closes the underlying file.
func (l *Logger) Close() error {
	if l.cr != nil {
		l.cr.Stop()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// LogEvent appends event as one JSON line and rotates the file if it has
// grown past maxSizeBytes.
func (l *Logger) LogEvent(event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return hookerrors.New("log_event", hookerrors.KindInternalInvariant, err)
	}

	l.mu.Lock()
	_, writeErr := l.file.Write(append(payload, '\n'))
	if writeErr == nil {
		writeErr = l.file.Sync()
	}
	l.mu.Unlock()
	if writeErr != nil {
		return hookerrors.New("log_event", hookerrors.KindIO, writeErr)
	}

	return l.rotateIfNeeded()
}

func (l *Logger) LogHookRegistered(hookID, hookName string) error {
	return l.LogEvent(NewEvent(EventHookRegistered).setHook(hookID).setName(hookName))
}

func (l *Logger) LogHookRemoved(hookID string) error {
	return l.LogEvent(NewEvent(EventHookRemoved).setHook(hookID))
}

func (l *Logger) LogHookEnabled(hookID string) error {
	e := NewEvent(EventHookModified).setHook(hookID)
	e.Changes = []string{"enabled"}
	return l.LogEvent(e)
}

func (l *Logger) LogHookDisabled(hookID string) error {
	e := NewEvent(EventHookModified).setHook(hookID)
	e.Changes = []string{"disabled"}
	return l.LogEvent(e)
}

func (l *Logger) LogExecutionStart(hookID, executionID, eventKind string, dryRun bool) error {
	e := NewEvent(EventExecutionStarted).setHook(hookID)
	e.ExecutionID = executionID
	e.EventKind = eventKind
	e.WithContext("dry_run", dryRun)
	return l.LogEvent(e)
}

func (l *Logger) LogExecutionComplete(hookID, executionID string, success bool, durationMS int64, actionsExecuted int) error {
	e := NewEvent(EventExecutionCompleted).setHook(hookID)
	e.ExecutionID = executionID
	e.Success = &success
	e.DurationMS = durationMS
	e.WithContext("actions_count", actionsExecuted)
	return l.LogEvent(e)
}

func (l *Logger) LogExecutionFailed(hookID, executionID, errMsg string) error {
	e := NewEvent(EventExecutionFailed).setHook(hookID)
	e.ExecutionID = executionID
	e.Error = errMsg
	return l.LogEvent(e)
}

func (l *Logger) LogExecutionSkipped(hookID, executionID, reason string) error {
	e := NewEvent(EventExecutionSkipped).setHook(hookID)
	e.ExecutionID = executionID
	e.Reason = reason
	return l.LogEvent(e)
}

func (l *Logger) LogExecutionDenied(hookID, executionID string) error {
	e := NewEvent(EventExecutionDenied).setHook(hookID)
	e.ExecutionID = executionID
	e.Reason = "approval denied"
	return l.LogEvent(e)
}

func (l *Logger) LogSecurityViolation(hookID, violation string) error {
	e := NewEvent(EventSecurityViolation).setHook(hookID)
	e.Violation = violation
	return l.LogEvent(e)
}

func (l *Logger) LogAllHooksCleared(count int) error {
	e := NewEvent(EventAllHooksCleared)
	e.Count = count
	return l.LogEvent(e)
}

func (e *Event) setHook(hookID string) *Event {
	e.HookID = hookID
	return e
}

func (e *Event) setName(name string) *Event {
	e.HookName = name
	return e
}

// GetRecentLogs returns up to limit of the most recently written events.
func (l *Logger) GetRecentLogs(limit int) ([]*Event, error) {
	events, err := l.readAll()
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	if len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

// SearchLogs returns every event matching criteria.
func (l *Logger) SearchLogs(criteria SearchCriteria) ([]*Event, error) {
	events, err := l.readAll()
	if err != nil {
		return nil, err
	}
	matched := make([]*Event, 0, len(events))
	for _, e := range events {
		if criteria.Matches(e) {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

func (l *Logger) readAll() ([]*Event, error) {
	f, err := os.Open(l.logPath)
	if err != nil {
		return nil, hookerrors.New("read_audit_log", hookerrors.KindIO, err)
	}
	defer f.Close()

	var events []*Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var e Event
		if err := json.Unmarshal(line, &e); err != nil {
			continue // tolerate a partially written trailing line
		}
		events = append(events, &e)
	}
	if err := scanner.Err(); err != nil {
		return nil, hookerrors.New("read_audit_log", hookerrors.KindIO, err)
	}
	return events, nil
}

func (l *Logger) rotateIfNeeded() error {
	info, err := os.Stat(l.logPath)
	if err != nil {
		return hookerrors.New("rotate_if_needed", hookerrors.KindIO, err)
	}
	if info.Size() <= l.maxSizeBytes {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.file.Close(); err != nil {
		return hookerrors.New("rotate_if_needed", hookerrors.KindIO, err)
	}

	timestamp := time.Now().UTC().Format("20060102_150405")
	rotatedPath := filepath.Join(filepath.Dir(l.logPath), fmt.Sprintf("%s%s%s", rotatedFilePrefix, timestamp, rotatedFileSuffix))
	if err := os.Rename(l.logPath, rotatedPath); err != nil {
		return hookerrors.New("rotate_if_needed", hookerrors.KindIO, err)
	}

	newFile, err := os.OpenFile(l.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return hookerrors.New("rotate_if_needed", hookerrors.KindIO, err)
	}
	l.file = newFile

	go func() {
		if err := l.cleanupOldLogs(); err != nil {
			l.log.Warn("audit log cleanup after rotation failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	return nil
}

func (l *Logger) cleanupOldLogs() error {
	dir := filepath.Dir(l.logPath)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return hookerrors.New("cleanup_old_logs", hookerrors.KindIO, err)
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -l.retentionDays)

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, rotatedFilePrefix) || !strings.HasSuffix(name, rotatedFileSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().UTC().Before(cutoff) {
			_ = os.Remove(filepath.Join(dir, name))
		}
	}

	return nil
}
