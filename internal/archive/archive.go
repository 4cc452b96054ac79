// Package archive stores leaderboard snapshots taken before a ranking reset.
// Every sink is best-effort: a failing sink is logged and never blocks the
// others or the reset that follows.
package archive

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/abrezinsky/gacharank/internal/logger"
	"github.com/abrezinsky/gacharank/internal/models"
	"github.com/abrezinsky/gacharank/internal/repository"
)

// Sink persists or publishes an archive record
type Sink interface {
	Name() string
	Archive(ctx context.Context, rec models.ArchiveRecord) error
}

// Multi fans a record out to several sinks
type Multi struct {
	log   logger.Logger
	sinks []Sink
}

// NewMulti creates a fan-out sink. Nil sinks are skipped.
func NewMulti(log logger.Logger, sinks ...Sink) *Multi {
	m := &Multi{log: log}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Name implements Sink
func (m *Multi) Name() string { return "multi" }

// Add appends a sink
func (m *Multi) Add(s Sink) {
	if s != nil {
		m.sinks = append(m.sinks, s)
	}
}

// Sinks returns the names of the configured sinks, in call order
func (m *Multi) Sinks() []string {
	names := make([]string, 0, len(m.sinks))
	for _, s := range m.sinks {
		names = append(names, s.Name())
	}
	return names
}

// Archive calls every sink and joins their errors
func (m *Multi) Archive(ctx context.Context, rec models.ArchiveRecord) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Archive(ctx, rec); err != nil {
			m.log.Warn("Archive sink failed", "sink", s.Name(), "archive_id", rec.ID, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		m.log.Debug("Archive sink stored snapshot", "sink", s.Name(), "archive_id", rec.ID)
	}
	return stderrors.Join(errs...)
}

// RepositorySink stores snapshots in the local database
type RepositorySink struct {
	repo repository.ArchiveRepository
}

// NewRepositorySink creates a sink backed by the archives table
func NewRepositorySink(repo repository.ArchiveRepository) *RepositorySink {
	return &RepositorySink{repo: repo}
}

// Name implements Sink
func (s *RepositorySink) Name() string { return "sqlite" }

// Archive implements Sink
func (s *RepositorySink) Archive(ctx context.Context, rec models.ArchiveRecord) error {
	return s.repo.SaveArchive(ctx, rec)
}
