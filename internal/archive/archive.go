// Package archive closes internships whose application deadline has passed.
package archive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Internmain07/I-INTERN/internal/model"
)

// ErrLocked is returned by RunLocked when another process holds the archive lock
var ErrLocked = errors.New("archive job is already running")

// Archiver marks expired internships as archived
type Archiver struct {
	DB  *gorm.DB
	Log *zap.Logger
	Now func() time.Time
}

// New creates an Archiver using the wall clock
func New(db *gorm.DB, log *zap.Logger) *Archiver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Archiver{DB: db, Log: log, Now: time.Now}
}

// startOfDay truncates t to midnight in its own location. Deadlines are dates, so an
// internship stays open for the whole deadline day.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ArchiveExpired archives every active internship whose deadline is before today and
// returns how many rows changed.
func (a *Archiver) ArchiveExpired(ctx context.Context) (int64, error) {
	now := a.Now()
	result := a.DB.WithContext(ctx).
		Model(&model.Internship{}).
		Where("status = ? AND deadline IS NOT NULL AND deadline < ?", model.InternshipStatusActive, startOfDay(now)).
		Updates(map[string]interface{}{
			"status":      model.InternshipStatusArchived,
			"archived_at": now,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("archive expired internships: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		a.Log.Info("archived expired internships", zap.Int64("count", result.RowsAffected))
	}
	return result.RowsAffected, nil
}

// ExpiringSoon lists active internships closing within the given number of days,
// soonest first.
func (a *Archiver) ExpiringSoon(ctx context.Context, days int) ([]model.Internship, error) {
	today := startOfDay(a.Now())
	var internships []model.Internship
	err := a.DB.WithContext(ctx).
		Where("status = ? AND deadline IS NOT NULL AND deadline >= ? AND deadline <= ?",
			model.InternshipStatusActive, today, today.AddDate(0, 0, days)).
		Order("deadline ASC").
		Find(&internships).Error
	if err != nil {
		return nil, fmt.Errorf("list expiring internships: %w", err)
	}
	return internships, nil
}

// Run archives once immediately and then on every tick until ctx is done
func (a *Archiver) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := a.ArchiveExpired(ctx); err != nil && ctx.Err() == nil {
			a.Log.Error("archive run failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// RunLocked runs ArchiveExpired once while holding the file lock at path
func (a *Archiver) RunLocked(ctx context.Context, path string) (int64, error) {
	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return 0, fmt.Errorf("acquire archive lock: %w", err)
	}
	if !locked {
		return 0, ErrLocked
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			a.Log.Warn("failed to release archive lock", zap.Error(err))
		}
	}()

	return a.ArchiveExpired(ctx)
}
