package security

import (
	"context"
	"fmt"
	"time"

	domain "github.com/oshokin/safehome/internal/domain/security"
	repository "github.com/oshokin/safehome/internal/repository/security"
)

// kst is the fixed +09:00 zone intrusion entries are stamped in.
//
//nolint:gochecknoglobals // Immutable zone value.
var kst = time.FixedZone("KST", 9*60*60)

// LogManager stamps and stores intrusion log entries.
type LogManager struct {
	// repo stores the entries and assigns their ids.
	repo repository.LogRepository
	// now returns the current time; replaced in tests.
	now func() time.Time
}

// NewLogManager returns a log manager backed by repo.
func NewLogManager(repo repository.LogRepository) *LogManager {
	return &LogManager{
		repo: repo,
		now:  time.Now,
	}
}

// Now returns the current time in KST.
func (l *LogManager) Now() time.Time {
	return l.now().In(kst)
}

// Save stores entry; the repository assigns entry.ID.
func (l *LogManager) Save(ctx context.Context, entry *domain.LogEntry) error {
	if err := l.repo.SaveLog(ctx, entry); err != nil {
		return fmt.Errorf("save log: %w", err)
	}

	return nil
}

// List returns every stored entry.
func (l *LogManager) List(ctx context.Context) ([]domain.LogEntry, error) {
	entries, err := l.repo.Logs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}

	return entries, nil
}
