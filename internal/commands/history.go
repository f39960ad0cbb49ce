package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

// HistoryEntry pairs an attempted instruction with the time it was recorded.
// Time is zero when the surrounding timestamp line was missing or malformed.
type HistoryEntry struct {
	Instruction string
	Time        time.Time
}

// History reads the attempted file and returns up to limit entries, most
// recent first. A missing file yields an empty history.
func (s *Source) History(limit int) ([]HistoryEntry, error) {
	f, err := os.Open(s.attemptedFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open attempted file: %w", err)
	}
	defer f.Close()

	var entries []HistoryEntry
	var current time.Time
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "# Processed at "):
			stamp := strings.TrimPrefix(line, "# Processed at ")
			t, err := time.ParseInLocation(attemptedTimeFormat, stamp, time.Local)
			if err != nil {
				current = time.Time{}
				continue
			}
			current = t
		case line == "" || strings.HasPrefix(line, "#"):
			// skip
		default:
			entries = append(entries, HistoryEntry{Instruction: line, Time: current})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read attempted file: %w", err)
	}

	// Most recent first.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// ClearAttempted forgets all attempted instructions. The existing attempted
// file is renamed aside rather than deleted, so the record survives.
func (s *Source) ClearAttempted() error {
	s.attempted = make(map[string]struct{})

	if _, err := os.Stat(s.attemptedFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat attempted file: %w", err)
	}
	archive := fmt.Sprintf("%s.%s.bak", s.attemptedFile, now().Format("20060102_150405"))
	if err := os.Rename(s.attemptedFile, archive); err != nil {
		return fmt.Errorf("archive attempted file: %w", err)
	}
	s.log.Info("Archived attempted instructions", zap.String("path", archive))
	return nil
}
