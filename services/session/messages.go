// File: services/session/messages.go
package session

import (
	"fmt"
	"strings"

	"clinicagenda/models"
	"clinicagenda/services/schedule"
)

// Patient-facing reply templates. All dialogue is in Portuguese, matching
// the clinic's audience.

var fieldLabels = map[string]string{
	models.FieldName:     "Nome completo",
	models.FieldPhone:    "Telefone",
	models.FieldDate:     "Data (DD/MM/AAAA)",
	models.FieldTime:     "Horário (HH:MM)",
	models.FieldModality: "Tipo (online ou presencial)",
}

// hoursDescription renders the business blocks, e.g.
// "das 08:00 às 12:00 e das 14:00 às 18:00".
func hoursDescription(blocks []schedule.Block) string {
	parts := make([]string, len(blocks))
	for i, b := range blocks {
		parts[i] = fmt.Sprintf("das %s às %s", b.Start, b.End)
	}
	return strings.Join(parts, " e ")
}

func greetingMessage(blocks []schedule.Block) string {
	var sb strings.Builder
	sb.WriteString("Olá! Sou o atendente virtual da clínica. 😊\n")
	sb.WriteString(fmt.Sprintf("Atendemos de segunda a sexta, %s.\n\n", hoursDescription(blocks)))
	sb.WriteString("Para agendar sua consulta, preciso dos seguintes dados:\n")
	for i, field := range models.RequiredFields {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, fieldLabels[field]))
	}
	sb.WriteString("\nPode começar me dizendo seu nome completo.")
	return sb.String()
}

func askMissingMessage(missing []string) string {
	if len(missing) == 1 {
		return fmt.Sprintf("Agora preciso do seguinte dado: %s.", fieldLabels[missing[0]])
	}
	var sb strings.Builder
	sb.WriteString("Ainda preciso dos seguintes dados:\n")
	for _, field := range missing {
		sb.WriteString(fmt.Sprintf("- %s\n", fieldLabels[field]))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func fieldsSummary(f *models.BookingFields) string {
	return fmt.Sprintf(
		"📌 Nome: %s\n📞 Telefone: %s\n📅 Data: %s\n⏰ Horário: %s\n💻 Tipo: %s",
		f.Name, f.Phone, f.Date, f.Time, f.Modality,
	)
}

func confirmPromptMessage(f *models.BookingFields) string {
	return fmt.Sprintf(
		"Por favor, confirme os dados do agendamento:\n\n%s\n\nResponda \"confirmo\" para agendar ou me diga o que deseja alterar.",
		fieldsSummary(f),
	)
}

func reconfirmMessage(f *models.BookingFields) string {
	return fmt.Sprintf(
		"Para finalizar, preciso da sua confirmação:\n\n%s\n\nResponda \"confirmo\" para agendar ou me diga o que deseja alterar.",
		fieldsSummary(f),
	)
}

func bookedMessage(b *models.Booking) string {
	return fmt.Sprintf(
		"✅ Consulta agendada com sucesso!\n\n📌 Nome: %s\n📞 Telefone: %s\n📅 Data: %s\n⏰ Horário: %s\n💻 Tipo: %s\n🔖 Código: %s",
		b.PatientName, b.Phone, b.Date, b.Time, b.Modality, b.Reference,
	)
}

func slotTakenMessage(date string, available []string) string {
	if len(available) == 0 {
		return fmt.Sprintf("Esse horário não está mais disponível e não restam horários para %s. Pode escolher outra data?", date)
	}
	return fmt.Sprintf(
		"Esse horário não está mais disponível. Horários livres para %s:\n%s\n\nQual prefere?",
		date, strings.Join(available, "\n"),
	)
}

func availableSlotsMessage(date string, available []string) string {
	if len(available) == 0 {
		return "Não há horários disponíveis para essa data."
	}
	return fmt.Sprintf("Horários disponíveis para %s:\n%s", date, strings.Join(available, "\n"))
}

func weekendMessage(blocks []schedule.Block) string {
	return fmt.Sprintf("Atendemos apenas de segunda a sexta, %s. Pode escolher um dia útil?", hoursDescription(blocks))
}

func outOfHoursMessage(grid []string) string {
	return fmt.Sprintf("Esse horário está fora do nosso expediente. Os horários de atendimento são:\n%s", strings.Join(grid, "\n"))
}

func invalidDateMessage() string {
	return "Não consegui entender a data. Pode informar no formato DD/MM/AAAA?"
}

func pendingDateMessage(weekdayName, date string) string {
	return fmt.Sprintf("A próxima %s é dia %s. Posso agendar para essa data? Responda \"sim\" para confirmar ou informe outra data.", weekdayName, date)
}

func invalidModalityMessage() string {
	return "O tipo da consulta pode ser \"online\" ou \"presencial\". Qual prefere?"
}

func clinicalRedirectMessage() string {
	return "Não posso fazer diagnósticos ou orientações clínicas por aqui. Posso ajudar com informações sobre a clínica e com o agendamento de consultas. 😊"
}

func resetMessage() string {
	return "Tudo bem, recomeçamos do zero! Quando quiser agendar uma consulta, é só me chamar. 😊"
}

func retryLaterMessage() string {
	return "Tivemos um problema ao registrar seu agendamento. Pode tentar novamente em alguns instantes?"
}
