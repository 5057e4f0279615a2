// File: services/intelligence/interface.go
package intelligence

import (
	"context"

	"clinicagenda/models"
)

// Extractor maps one inbound free-text message onto exactly one structured
// TurnEvent. The session machine only ever consumes TurnEvents; it never
// trusts raw text directly.
type Extractor interface {
	ExtractEvent(ctx context.Context, text string) (models.TurnEvent, error)
}
