package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
)

const (
	// CrashLogDir is the crash log directory under the memory base path.
	CrashLogDir = "crash_logs"

	// MaxCrashLogs is how many crash logs are kept.
	MaxCrashLogs = 10

	maxInputLen = 500
)

// CrashContext is what a crash report knows about the running command.
type CrashContext struct {
	mu        sync.RWMutex
	fs        afero.Fs
	basePath  string
	version   string
	command   string
	lastInput string
}

var globalContext = newCrashContext()

func newCrashContext() *CrashContext {
	return &CrashContext{fs: afero.NewOsFs()}
}

// SetBasePath sets the memory directory crash logs are written under.
func SetBasePath(path string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.basePath = path
}

// SetVersion sets the version recorded in crash logs.
func SetVersion(version string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.version = version
}

// SetCommand sets the command being executed.
func SetCommand(cmd string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.command = cmd
}

// SetLastInput records the last intent or query text.
func SetLastInput(input string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.lastInput = truncateForLog(strings.TrimSpace(input), maxInputLen)
}

func truncateForLog(value string, maxLen int) string {
	if len(value) <= maxLen {
		return value
	}
	return value[:maxLen] + "... [truncated]"
}

// CrashLog is one recorded panic.
type CrashLog struct {
	Timestamp  time.Time `json:"timestamp"`
	Version    string    `json:"version"`
	Command    string    `json:"command"`
	PanicValue string    `json:"panic_value"`
	StackTrace string    `json:"stack_trace"`
	LastInput  string    `json:"last_input,omitempty"`
	GoVersion  string    `json:"go_version"`
	OS         string    `json:"os"`
	Arch       string    `json:"arch"`
}

// HandlePanic recovers a panic, writes a crash log and exits with status 1.
// Usage: defer logger.HandlePanic()
func HandlePanic() {
	r := recover()
	if r == nil {
		return
	}
	entry := createCrashLog(r)
	path, err := writeCrashLog(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "\n[CRASH] failed to write crash log: %v\n", err)
		fmt.Fprintf(os.Stderr, "[CRASH] panic: %v\n%s\n", r, entry.StackTrace)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "\ncontextwing crashed: %v\n", r)
	fmt.Fprintf(os.Stderr, "A crash log has been saved to:\n  %s\n", path)
	os.Exit(1)
}

func createCrashLog(panicValue any) CrashLog {
	globalContext.mu.RLock()
	defer globalContext.mu.RUnlock()

	return CrashLog{
		Timestamp:  time.Now().UTC(),
		Version:    globalContext.version,
		Command:    globalContext.command,
		PanicValue: fmt.Sprintf("%v", panicValue),
		StackTrace: string(debug.Stack()),
		LastInput:  globalContext.lastInput,
		GoVersion:  runtime.Version(),
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
	}
}

// writeCrashLog stores entry as JSON and prunes old logs. It returns the
// written path.
func writeCrashLog(entry CrashLog) (string, error) {
	globalContext.mu.RLock()
	fs := globalContext.fs
	globalContext.mu.RUnlock()

	dir := crashLogDir()
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create crash log dir: %w", err)
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal crash log: %w", err)
	}
	path := filepath.Join(dir, crashLogName(entry.Timestamp))
	if err := afero.WriteFile(fs, path, data, 0644); err != nil {
		return "", fmt.Errorf("write crash log: %w", err)
	}
	if err := cleanOldCrashLogs(fs, dir); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] failed to clean old crash logs: %v\n", err)
	}
	return path, nil
}

func crashLogDir() string {
	globalContext.mu.RLock()
	basePath := globalContext.basePath
	globalContext.mu.RUnlock()

	if basePath == "" {
		basePath = ".contextwing"
	}
	return filepath.Join(basePath, CrashLogDir)
}

func crashLogName(t time.Time) string {
	return fmt.Sprintf("crash_%s.json", t.Format("20060102_150405.000"))
}

func isCrashLog(name string) bool {
	return strings.HasPrefix(name, "crash_") && strings.HasSuffix(name, ".json")
}

// cleanOldCrashLogs keeps the MaxCrashLogs most recent logs.
func cleanOldCrashLogs(fs afero.Fs, dir string) error {
	logs, err := listCrashLogs(fs, dir)
	if err != nil {
		return err
	}
	for i := 0; i < len(logs)-MaxCrashLogs; i++ {
		if err := fs.Remove(logs[i]); err != nil {
			return fmt.Errorf("remove old crash log %s: %w", logs[i], err)
		}
	}
	return nil
}

// ListCrashLogs returns crash log paths, oldest first.
func ListCrashLogs() ([]string, error) {
	globalContext.mu.RLock()
	fs := globalContext.fs
	globalContext.mu.RUnlock()
	return listCrashLogs(fs, crashLogDir())
}

func listCrashLogs(fs afero.Fs, dir string) ([]string, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var logs []string
	for _, e := range entries {
		if !e.IsDir() && isCrashLog(e.Name()) {
			logs = append(logs, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(logs)
	return logs, nil
}
