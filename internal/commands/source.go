// File: internal/commands/source.go
package commands

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/deskpilot/api/schemas"
	"github.com/xkilldash9x/deskpilot/internal/config"
)

// attemptedTimeFormat is the timestamp layout written above each attempted
// instruction in the attempted file.
const attemptedTimeFormat = "2006-01-02 15:04:05"

// dangerousPatterns are refused as case-insensitive substrings of queued
// instructions. They cover the destructive shell, registry and SQL fragments
// we never want forwarded to the model, regardless of surrounding text.
var dangerousPatterns = []string{
	"rm -rf",
	"del /f /s /q",
	"format c:",
	"shutdown /s",
	"reboot",
	"reg delete",
	"rd /s /q",
	"drop database",
	"drop table",
	"kill -9",
	"taskkill /f",
}

// defaultFileTemplate seeds a newly created commands file so a user opening
// it cold knows the format.
const defaultFileTemplate = `# Desktop Automation Commands
# Add your commands here, one per line
# Lines starting with # are comments and will be ignored
# Examples:
# open notepad
# type hello world
# press enter
# click on file menu
# close window

# Your commands:
`

// now is swappable in tests.
var now = time.Now

// Source is the file-backed instruction queue. It re-reads the commands file
// only when its mtime or size changed, skips comments, blanks, statically
// invalid lines and anything already attempted, and records attempts durably
// in a flat append-only file.
//
// Source is not safe for concurrent use; the agent loop is its only caller.
type Source struct {
	log           *zap.Logger
	commandsFile  string
	attemptedFile string
	maxLength     int
	minTokens     int

	lastModTime time.Time
	lastSize    int64
	attempted   map[string]struct{}
}

var _ schemas.CommandSource = (*Source)(nil)

// NewSource builds a Source from configuration. It creates the commands file
// with a usage template when it does not exist yet, and loads the attempted
// set so restarts do not re-run old instructions.
func NewSource(cfg config.CommandsConfig, logger *zap.Logger) (*Source, error) {
	s := &Source{
		log:           logger.Named("commands"),
		commandsFile:  cfg.File,
		attemptedFile: cfg.AttemptedFile,
		maxLength:     cfg.MaxLength,
		minTokens:     cfg.MinTokens,
		attempted:     make(map[string]struct{}),
	}

	if err := s.bootstrapCommandsFile(); err != nil {
		return nil, err
	}
	if err := s.loadAttempted(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Source) bootstrapCommandsFile() error {
	if _, err := os.Stat(s.commandsFile); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat commands file: %w", err)
	}

	if dir := filepath.Dir(s.commandsFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create commands dir: %w", err)
		}
	}
	if err := os.WriteFile(s.commandsFile, []byte(defaultFileTemplate), 0o644); err != nil {
		return fmt.Errorf("create commands file: %w", err)
	}
	s.log.Info("Created commands file", zap.String("path", s.commandsFile))
	return nil
}

// loadAttempted reads the attempted file into the in-memory dedup set.
// Timestamp comment lines are metadata, every other non-comment line is an
// instruction that was attempted.
func (s *Source) loadAttempted() error {
	f, err := os.Open(s.attemptedFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open attempted file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		s.attempted[line] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read attempted file: %w", err)
	}
	s.log.Debug("Loaded attempted instructions", zap.Int("count", len(s.attempted)))
	return nil
}

// Poll returns new, valid, not-yet-attempted instructions in file order. A
// missing commands file and an unchanged commands file both yield nil.
func (s *Source) Poll() ([]string, error) {
	info, err := os.Stat(s.commandsFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat commands file: %w", err)
	}

	// Cheap change gate: skip re-reading bodies when the file looks
	// untouched.
	if info.ModTime().Equal(s.lastModTime) && info.Size() == s.lastSize {
		return nil, nil
	}
	s.lastModTime = info.ModTime()
	s.lastSize = info.Size()

	f, err := os.Open(s.commandsFile)
	if err != nil {
		return nil, fmt.Errorf("open commands file: %w", err)
	}
	defer f.Close()

	var pending []string
	lineNum := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, seen := s.attempted[line]; seen {
			continue
		}
		if reason := s.validate(line); reason != "" {
			s.log.Warn("Rejected instruction",
				zap.Int("line", lineNum),
				zap.String("reason", reason),
				zap.String("instruction", line))
			continue
		}
		pending = append(pending, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read commands file: %w", err)
	}

	if len(pending) > 0 {
		s.log.Info("Found new instructions", zap.Int("count", len(pending)))
	}
	return pending, nil
}

// validate applies the static checks. It returns an empty string when the
// instruction is acceptable, otherwise a short reason for the log.
func (s *Source) validate(instruction string) string {
	if len(instruction) > s.maxLength {
		return fmt.Sprintf("longer than %d characters", s.maxLength)
	}
	lower := strings.ToLower(instruction)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lower, pattern) {
			return fmt.Sprintf("contains dangerous pattern %q", pattern)
		}
	}
	if len(strings.Fields(instruction)) < s.minTokens {
		return fmt.Sprintf("fewer than %d tokens", s.minTokens)
	}
	return ""
}

// MarkAttempted records the instruction in memory and appends it to the
// attempted file under a timestamp comment. Attempted means dispatched, not
// succeeded; a failed instruction is still not retried.
func (s *Source) MarkAttempted(instruction string) error {
	s.attempted[instruction] = struct{}{}

	f, err := os.OpenFile(s.attemptedFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open attempted file: %w", err)
	}
	defer f.Close()

	entry := fmt.Sprintf("# Processed at %s\n%s\n", now().Format(attemptedTimeFormat), instruction)
	if _, err := f.WriteString(entry); err != nil {
		return fmt.Errorf("append attempted entry: %w", err)
	}
	s.log.Debug("Marked instruction attempted", zap.String("instruction", instruction))
	return nil
}
