package scenario

import (
	"strings"

	"github.com/Spok95/montage-bot/internal/dialog"
)

// StepDone — сигнал правила перехода о завершении сценария.
const StepDone = "__done__"

// Step — один вопрос многошаговой формы.
type Step struct {
	ID     string
	Prompt string
	// Field — ключ в data, под которым сохраняется разобранное значение.
	Field string
	// Validate разбирает сырой ввод; вторая строка — причина отказа,
	// пустая строка означает успех.
	Validate func(raw string) (any, string)
	// Assign перекрывает запись d[Field] = v (например, накопление списка).
	Assign func(d dialog.Data, v any)
	// Next выбирает следующий шаг по накопленным данным.
	// nil — следующий шаг по порядку, последний шаг завершает сценарий.
	Next func(d dialog.Data) string
}

// Scenario — упорядоченный список шагов. Таблица данных, не иерархия типов.
type Scenario struct {
	ID    string
	Title string
	Steps []Step
}

func (s *Scenario) first() *Step {
	if len(s.Steps) == 0 {
		return nil
	}
	return &s.Steps[0]
}

func (s *Scenario) step(id string) *Step {
	for i := range s.Steps {
		if s.Steps[i].ID == id {
			return &s.Steps[i]
		}
	}
	return nil
}

// after возвращает id следующего по порядку шага, StepDone после последнего.
func (s *Scenario) after(id string) string {
	for i := range s.Steps {
		if s.Steps[i].ID == id {
			if i+1 < len(s.Steps) {
				return s.Steps[i+1].ID
			}
			return StepDone
		}
	}
	return StepDone
}

type Kind int

const (
	KindPrompt Kind = iota
	KindCompleted
	KindRejected
	KindCancelled
	KindNoActive
)

// Prompt — дескриптор следующего вопроса для слоя отрисовки.
type Prompt struct {
	Scenario string
	Step     string
	Text     string
}

// Result — типизированный исход Submit. Ошибки валидации и отмена —
// ожидаемые исходы, не ошибки Go.
type Result struct {
	Kind     Kind
	Scenario string
	Prompt   Prompt      // KindPrompt
	Reason   string      // KindRejected
	Data     dialog.Data // KindCompleted
}

// cancelTokens — универсальные слова отмены, без учёта регистра.
var cancelTokens = map[string]bool{
	"отмена": true,
	"cancel": true,
	"стоп":   true,
	"stop":   true,
}

func IsCancelToken(raw string) bool {
	return cancelTokens[strings.ToLower(strings.TrimSpace(raw))]
}
