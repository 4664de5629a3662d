package logger

import (
	"encoding/json"
	"fmt"
	"io"
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
	// CrashLogDir is the crash report directory under the data path.
	CrashLogDir = "crash_logs"

	// MaxCrashLogs is the number of reports kept; older ones are pruned.
	MaxCrashLogs = 10

	maxPromptLen = 2000
)

// crashState is what a crash report knows about the run that died.
type crashState struct {
	mu         sync.RWMutex
	basePath   string
	version    string
	command    string
	lastPrompt string
}

var (
	state              = &crashState{}
	crashFs            = afero.NewOsFs()
	crashOut io.Writer = os.Stderr
	exit               = os.Exit
)

// SetBasePath sets the directory crash reports are written under.
func SetBasePath(path string) {
	state.mu.Lock()
	defer state.mu.Unlock()
	state.basePath = path
}

// SetVersion records the binary version.
func SetVersion(version string) {
	state.mu.Lock()
	defer state.mu.Unlock()
	state.version = version
}

// SetCommand records the command being run.
func SetCommand(cmd string) {
	state.mu.Lock()
	defer state.mu.Unlock()
	state.command = cmd
}

// SetLastPrompt records the last planning prompt sent to a model.
func SetLastPrompt(prompt string) {
	state.mu.Lock()
	defer state.mu.Unlock()
	if len(prompt) > maxPromptLen {
		prompt = prompt[:maxPromptLen] + "... [truncated]"
	}
	state.lastPrompt = prompt
}

// CrashReport is the JSON body of a crash log.
type CrashReport struct {
	Timestamp  time.Time `json:"timestamp"`
	Version    string    `json:"version"`
	Command    string    `json:"command"`
	Panic      string    `json:"panic"`
	Stack      string    `json:"stack"`
	LastPrompt string    `json:"lastPrompt,omitempty"`
	GoVersion  string    `json:"goVersion"`
	Platform   string    `json:"platform"`
}

// HandlePanic recovers a panic, writes a crash report and exits with status 2.
// Usage: defer logger.HandlePanic()
func HandlePanic() {
	r := recover()
	if r == nil {
		return
	}
	report := newCrashReport(r, debug.Stack())
	path, err := writeCrashReport(report)
	if err != nil {
		fmt.Fprintf(crashOut, "weekplan crashed: %v\n%s\n", r, report.Stack)
		fmt.Fprintf(crashOut, "could not save crash report: %v\n", err)
	} else {
		fmt.Fprintf(crashOut, "weekplan crashed: %v\ncrash report saved to %s\n", r, path)
	}
	exit(2)
}

func newCrashReport(panicValue any, stack []byte) CrashReport {
	state.mu.RLock()
	defer state.mu.RUnlock()
	return CrashReport{
		Timestamp:  time.Now(),
		Version:    state.version,
		Command:    state.command,
		Panic:      fmt.Sprint(panicValue),
		Stack:      string(stack),
		LastPrompt: state.lastPrompt,
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func crashDir() string {
	state.mu.RLock()
	defer state.mu.RUnlock()
	base := state.basePath
	if base == "" {
		base = os.TempDir()
	}
	return filepath.Join(base, CrashLogDir)
}

func writeCrashReport(report CrashReport) (string, error) {
	dir := crashDir()
	if err := crashFs.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create crash log dir: %w", err)
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("crash_%s.json", report.Timestamp.Format("20060102_150405.000")))
	if err := afero.WriteFile(crashFs, path, data, 0644); err != nil {
		return "", fmt.Errorf("write crash log: %w", err)
	}
	if err := pruneCrashReports(); err != nil {
		fmt.Fprintf(crashOut, "prune crash logs: %v\n", err)
	}
	return path, nil
}

// ListCrashLogs returns crash report paths, oldest first.
func ListCrashLogs() ([]string, error) {
	dir := crashDir()
	entries, err := afero.ReadDir(crashFs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "crash_") && strings.HasSuffix(e.Name(), ".json") {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

func pruneCrashReports() error {
	logs, err := ListCrashLogs()
	if err != nil {
		return err
	}
	for len(logs) > MaxCrashLogs {
		if err := crashFs.Remove(logs[0]); err != nil {
			return err
		}
		logs = logs[1:]
	}
	return nil
}
