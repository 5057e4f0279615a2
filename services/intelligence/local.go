// File: services/intelligence/local.go
package intelligence

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"clinicagenda/models"
	"clinicagenda/services/schedule"
)

// LocalExtractor is the deterministic, keyword-driven extractor. It is the
// default language layer and the fallback when the Gemini extractor fails.
type LocalExtractor struct{}

// NewLocalExtractor constructs the keyword-based extractor.
func NewLocalExtractor() *LocalExtractor {
	return &LocalExtractor{}
}

var (
	dateRe     = regexp.MustCompile(`\b(\d{2}/\d{2}/\d{4})\b`)
	timeRe     = regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)\b`)
	hourOnlyRe = regexp.MustCompile(`\b([01]?\d|2[0-3])h\b`)
	phoneRe    = regexp.MustCompile(`\(?\d{2,3}\)?[\s.-]?9?\d{4}[\s.-]?\d{4}`)
	nameRe     = regexp.MustCompile(`(?i)\b(?:meu nome é|meu nome e|me chamo|sou o|sou a)\s+([^,.\n!?]{3,60})`)
)

var resetPhrases = []string{
	"reiniciar", "recomeçar", "recomecar", "começar de novo", "comecar de novo",
	"cancelar tudo", "apagar tudo", "reset",
}

var clinicalKeywords = []string{
	"diagnóstico", "diagnostico", "remédio", "remedio",
	"medicação", "medicacao", "receita", "sintoma", "laudo",
}

var affirmativeTokens = map[string]struct{}{
	"sim": {}, "confirmo": {}, "confirmar": {}, "pode confirmar": {},
	"pode agendar": {}, "ok": {}, "claro": {}, "isso": {}, "isso mesmo": {},
	"yes": {}, "confirm": {}, "go ahead": {},
}

var negativeTokens = map[string]struct{}{
	"não": {}, "nao": {}, "no": {}, "negativo": {}, "não confirmo": {}, "nao confirmo": {},
}

// ExtractEvent classifies a message into a TurnEvent. Resolution order:
// reset command, clinical redirect, structured fields, confirmation,
// denial, then plain free text.
func (e *LocalExtractor) ExtractEvent(_ context.Context, text string) (models.TurnEvent, error) {
	normalized := strings.ToLower(strings.TrimSpace(text))

	for _, phrase := range resetPhrases {
		if strings.Contains(normalized, phrase) {
			return models.TurnEvent{Kind: models.EventReset, Text: text}, nil
		}
	}

	for _, kw := range clinicalKeywords {
		if strings.Contains(normalized, kw) {
			return models.TurnEvent{Kind: models.EventOutOfScope, Text: text}, nil
		}
	}

	if fields := extractFields(text); len(fields) > 0 {
		return models.TurnEvent{Kind: models.EventFields, Text: text, Fields: fields}, nil
	}

	stripped := strings.Trim(normalized, " .,!")
	if _, ok := affirmativeTokens[stripped]; ok {
		return models.TurnEvent{Kind: models.EventConfirm, Text: text}, nil
	}
	if _, ok := negativeTokens[stripped]; ok {
		return models.TurnEvent{Kind: models.EventDeny, Text: text}, nil
	}

	return models.TurnEvent{Kind: models.EventMessage, Text: text}, nil
}

// extractFields pulls every structured field value the message carries.
func extractFields(text string) map[string]string {
	fields := make(map[string]string)
	normalized := strings.ToLower(text)

	if match := dateRe.FindString(text); match != "" {
		fields[models.FieldDate] = match
	} else if wd, ok := weekdayIn(normalized); ok {
		fields[models.FieldDate] = wd
	}

	if match := timeRe.FindString(text); match != "" {
		if len(match) == 4 {
			match = "0" + match
		}
		fields[models.FieldTime] = match
	} else if match := hourOnlyRe.FindStringSubmatch(text); match != nil {
		hour := match[1]
		if len(hour) == 1 {
			hour = "0" + hour
		}
		fields[models.FieldTime] = fmt.Sprintf("%s:00", hour)
	}

	if match := phoneRe.FindString(text); match != "" {
		fields[models.FieldPhone] = strings.TrimSpace(match)
	}

	if strings.Contains(normalized, models.ModalityInPerson) {
		fields[models.FieldModality] = models.ModalityInPerson
	} else if strings.Contains(normalized, models.ModalityOnline) {
		fields[models.FieldModality] = models.ModalityOnline
	}

	if match := nameRe.FindStringSubmatch(text); match != nil {
		fields[models.FieldName] = strings.Trim(match[1], " .,!")
	}

	return fields
}

// weekdayIn finds a weekday name inside the message, if any.
func weekdayIn(normalized string) (string, bool) {
	for _, word := range strings.FieldsFunc(normalized, func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == '?' || r == '!'
	}) {
		if _, ok := schedule.ParseWeekday(word); ok {
			return word, true
		}
	}
	return "", false
}
