// File: services/schedule/availability.go
package schedule

import (
	"context"
	"errors"

	"go.uber.org/zap"

	bookingRepo "clinicagenda/database/repository/booking"
)

// Engine computes the slot grid and resolves live availability against the
// booking ledger. Read path only; the ledger's unique index remains the
// arbiter for commits, so read-committed freshness is enough here.
type Engine struct {
	blocks []Block
	grid   []string
	repo   bookingRepo.BookingRepository
	logger *zap.Logger
}

// NewEngine builds an Engine from the configured business blocks.
func NewEngine(blocksSpec string, repo bookingRepo.BookingRepository, logger *zap.Logger) (*Engine, error) {
	blocks, err := ParseBlocks(blocksSpec)
	if err != nil {
		return nil, err
	}
	return &Engine{
		blocks: blocks,
		grid:   BuildGrid(blocks),
		repo:   repo,
		logger: logger,
	}, nil
}

// Grid returns the full ordered slot grid for a business day.
func (e *Engine) Grid() []string {
	grid := make([]string, len(e.grid))
	copy(grid, e.grid)
	return grid
}

// Blocks returns the configured business blocks.
func (e *Engine) Blocks() []Block {
	blocks := make([]Block, len(e.blocks))
	copy(blocks, e.blocks)
	return blocks
}

// InGrid reports whether a time value is one of the bookable slot marks.
func (e *Engine) InGrid(slot string) bool {
	for _, s := range e.grid {
		if s == slot {
			return true
		}
	}
	return false
}

// AvailableSlots returns the free slots for a date in grid order. Malformed
// dates and non-business days yield an empty result rather than an error;
// format problems are logged separately so they stay diagnosable.
func (e *Engine) AvailableSlots(ctx context.Context, date string) ([]string, error) {
	business, err := IsBusinessDay(date)
	if err != nil {
		if errors.Is(err, ErrInvalidDateFormat) {
			e.logger.Debug("availability requested for malformed date", zap.String("date", date))
			return []string{}, nil
		}
		return nil, err
	}
	if !business {
		return []string{}, nil
	}

	booked, err := e.repo.ActiveTimesByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]struct{}, len(booked))
	for _, t := range booked {
		taken[t] = struct{}{}
	}

	free := make([]string, 0, len(e.grid))
	for _, slot := range e.grid {
		if _, ok := taken[slot]; !ok {
			free = append(free, slot)
		}
	}
	return free, nil
}
