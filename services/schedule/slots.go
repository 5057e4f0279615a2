// File: services/schedule/slots.go
package schedule

import (
	"fmt"
	"strings"
	"time"
)

// TimeLayout is the slot time format (HH:MM).
const TimeLayout = "15:04"

// Block is one contiguous range of bookable hours within a business day.
type Block struct {
	Start string // "HH:MM", inclusive
	End   string // "HH:MM", exclusive
}

// ParseBlocks parses a comma-separated list of "HH:MM-HH:MM" ranges, the
// form used by the BUSINESS_BLOCKS configuration value.
func ParseBlocks(spec string) ([]Block, error) {
	var blocks []Block
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		bounds := strings.SplitN(part, "-", 2)
		if len(bounds) != 2 {
			return nil, fmt.Errorf("invalid business block %q, expected HH:MM-HH:MM", part)
		}
		start, err := time.Parse(TimeLayout, strings.TrimSpace(bounds[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid block start in %q: %w", part, err)
		}
		end, err := time.Parse(TimeLayout, strings.TrimSpace(bounds[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid block end in %q: %w", part, err)
		}
		if !start.Before(end) {
			return nil, fmt.Errorf("block %q start must precede end", part)
		}
		blocks = append(blocks, Block{Start: start.Format(TimeLayout), End: end.Format(TimeLayout)})
	}
	if len(blocks) == 0 {
		return nil, fmt.Errorf("no business blocks configured")
	}
	return blocks, nil
}

// BuildGrid emits consecutive hourly marks for each block, starting at the
// block start and stopping strictly before its end. Deterministic; the
// engine computes it once and reuses it until the configuration changes.
func BuildGrid(blocks []Block) []string {
	var grid []string
	for _, b := range blocks {
		cur, _ := time.Parse(TimeLayout, b.Start)
		end, _ := time.Parse(TimeLayout, b.End)
		for cur.Before(end) {
			grid = append(grid, cur.Format(TimeLayout))
			cur = cur.Add(time.Hour)
		}
	}
	return grid
}
