package main

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"spacyboard/internal/domain"
	"spacyboard/internal/domain/entities"
)

// claimer is the part of the slot grid the prompt drives.
type claimer interface {
	Claim(ctx context.Context, slot entities.Slot) error
}

// turn reports whether the viewer is up next.
type turn interface {
	IsUpNext() bool
}

// parseSlot reads "<room> <time>"; the room may contain spaces, the time is
// the last word.
func parseSlot(line string) (entities.Slot, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return entities.Slot{}, false
	}
	last := len(fields) - 1
	return entities.Slot{Room: strings.Join(fields[:last], " "), Time: fields[last]}, true
}

// readClaims claims the slot named on each line of in, through the cell so
// only a slot showing the viewer's claim action is submitted. It returns at
// EOF or once ctx is done.
func readClaims(ctx context.Context, in io.Reader, grid claimer, status turn, logger *zerolog.Logger) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		slot, ok := parseSlot(line)
		if !ok {
			logger.Warn().Str("input", line).Msg("⚠️ Expected <room> <time>")
			continue
		}
		if !status.IsUpNext() {
			logger.Info().Str("slot", slot.String()).Msg("⏳ Not your turn yet")
			continue
		}
		if err := grid.Claim(ctx, slot); err != nil {
			logger.Warn().Err(err).Str("code", domain.Code(err)).Str("slot", slot.String()).Msg("❌ Claim refused")
			continue
		}
		logger.Info().Str("slot", slot.String()).Msg("✅ Claim submitted")
	}
}
