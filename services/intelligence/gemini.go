// File: services/intelligence/gemini.go
package intelligence

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"clinicagenda/models"
)

const extractionPrompt = `Você classifica mensagens de pacientes de uma clínica de psicologia.
Responda APENAS com um JSON no formato:
{"kind":"message|fields|confirm|deny|reset|out_of_scope","fields":{"nome":"","telefone":"","data":"","horario":"","tipo":""}}
Regras:
- "fields": quando a mensagem traz nome, telefone, data (DD/MM/AAAA ou dia da semana), horário (HH:MM) ou tipo (online/presencial). Inclua só os campos presentes.
- "confirm": resposta afirmativa explícita. "deny": negativa explícita.
- "reset": pedido para recomeçar ou cancelar o atendimento.
- "out_of_scope": pedidos clínicos (diagnóstico, medicação, sintomas).
- "message": qualquer outro texto.
Mensagem: %s`

// GeminiExtractor classifies messages with Gemini, falling back to the
// deterministic local extractor whenever the model call or its output fails.
type GeminiExtractor struct {
	model    *genai.GenerativeModel
	fallback *LocalExtractor
	logger   *zap.Logger
}

// NewGeminiExtractor creates a Gemini-backed extractor.
func NewGeminiExtractor(apiKey string, logger *zap.Logger) (*GeminiExtractor, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	model := client.GenerativeModel("models/gemini-1.5-flash")
	return &GeminiExtractor{
		model:    model,
		fallback: NewLocalExtractor(),
		logger:   logger,
	}, nil
}

func (g *GeminiExtractor) ExtractEvent(ctx context.Context, text string) (models.TurnEvent, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(fmt.Sprintf(extractionPrompt, text)))
	if err != nil {
		g.logger.Warn("gemini extraction failed, using local extractor", zap.Error(err))
		return g.fallback.ExtractEvent(ctx, text)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if textPart, ok := part.(genai.Text); ok {
			sb.WriteString(string(textPart))
		}
	}

	event, err := parseEventJSON(sb.String(), text)
	if err != nil {
		g.logger.Warn("gemini returned unparseable event, using local extractor",
			zap.String("output", sb.String()), zap.Error(err))
		return g.fallback.ExtractEvent(ctx, text)
	}
	return event, nil
}

// parseEventJSON decodes the model's JSON reply into a TurnEvent,
// tolerating markdown code fences around the payload.
func parseEventJSON(output, original string) (models.TurnEvent, error) {
	trimmed := strings.TrimSpace(output)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var decoded struct {
		Kind   string            `json:"kind"`
		Fields map[string]string `json:"fields"`
	}
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return models.TurnEvent{}, err
	}

	kind := models.EventKind(decoded.Kind)
	switch kind {
	case models.EventMessage, models.EventFields, models.EventConfirm,
		models.EventDeny, models.EventReset, models.EventOutOfScope:
	default:
		return models.TurnEvent{}, fmt.Errorf("unknown event kind %q", decoded.Kind)
	}

	fields := make(map[string]string)
	for key, value := range decoded.Fields {
		if strings.TrimSpace(value) != "" {
			fields[key] = strings.TrimSpace(value)
		}
	}
	if kind == models.EventFields && len(fields) == 0 {
		kind = models.EventMessage
	}

	event := models.TurnEvent{Kind: kind, Text: original}
	if len(fields) > 0 {
		event.Fields = fields
	}
	return event, nil
}
