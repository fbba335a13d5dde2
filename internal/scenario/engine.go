package scenario

import (
	"context"
	"fmt"

	"github.com/Spok95/montage-bot/internal/dialog"
)

// Engine последовательно ведёт пользователя по шагам сценария.
// Предполагается, что транспорт сериализует Submit по (user, chat):
// двух одновременных вызовов для одной пары не бывает.
type Engine struct {
	states dialog.Store
	reg    *Registry
}

func New(states dialog.Store, reg *Registry) *Engine {
	return &Engine{states: states, reg: reg}
}

// Start безусловно затирает прежнее состояние пары (user, chat):
// новый сценарий всегда начинается с чистого листа.
func (e *Engine) Start(ctx context.Context, userID, chatID int64, scenarioID string) (Prompt, error) {
	sc := e.reg.Get(scenarioID)
	if sc == nil || sc.first() == nil {
		return Prompt{}, fmt.Errorf("unknown scenario %q", scenarioID)
	}
	first := sc.first()
	st := dialog.State{
		UserID:   userID,
		ChatID:   chatID,
		Scenario: sc.ID,
		Step:     first.ID,
		Data:     dialog.Data{},
	}
	if err := e.states.Set(ctx, st); err != nil {
		return Prompt{}, err
	}
	return Prompt{Scenario: sc.ID, Step: first.ID, Text: first.Prompt}, nil
}

// Cancel снимает активный сценарий, если он есть.
func (e *Engine) Cancel(ctx context.Context, userID, chatID int64) (Result, error) {
	st, err := e.states.Get(ctx, userID, chatID)
	if err != nil {
		return Result{}, err
	}
	if st == nil {
		return Result{Kind: KindNoActive}, nil
	}
	if err := e.states.Delete(ctx, userID, chatID); err != nil {
		return Result{}, err
	}
	return Result{Kind: KindCancelled, Scenario: st.Scenario}, nil
}

// Active сообщает, идёт ли сейчас сценарий у пары (user, chat).
func (e *Engine) Active(ctx context.Context, userID, chatID int64) (bool, error) {
	st, err := e.states.Get(ctx, userID, chatID)
	if err != nil {
		return false, err
	}
	return st != nil, nil
}

// Submit обрабатывает очередной ввод пользователя.
func (e *Engine) Submit(ctx context.Context, userID, chatID int64, raw string) (Result, error) {
	st, err := e.states.Get(ctx, userID, chatID)
	if err != nil {
		return Result{}, err
	}
	if st == nil {
		return Result{Kind: KindNoActive}, nil
	}

	if IsCancelToken(raw) {
		if err := e.states.Delete(ctx, userID, chatID); err != nil {
			return Result{}, err
		}
		return Result{Kind: KindCancelled, Scenario: st.Scenario}, nil
	}

	sc := e.reg.Get(st.Scenario)
	if sc == nil {
		// строка от сценария, которого больше нет в реестре — чиним удалением
		_ = e.states.Delete(ctx, userID, chatID)
		return Result{}, fmt.Errorf("state references unknown scenario %q", st.Scenario)
	}
	step := sc.step(st.Step)
	if step == nil {
		_ = e.states.Delete(ctx, userID, chatID)
		return Result{}, fmt.Errorf("scenario %q has no step %q", st.Scenario, st.Step)
	}

	value, reject := step.Validate(raw)
	if reject != "" {
		// состояние не меняется — пользователь остаётся на том же шаге
		return Result{Kind: KindRejected, Scenario: st.Scenario, Reason: reject}, nil
	}

	if step.Assign != nil {
		step.Assign(st.Data, value)
	} else {
		st.Data[step.Field] = value
	}

	nextID := ""
	if step.Next != nil {
		nextID = step.Next(st.Data)
	} else {
		nextID = sc.after(step.ID)
	}

	if nextID == StepDone {
		if err := e.states.Delete(ctx, userID, chatID); err != nil {
			return Result{}, err
		}
		return Result{Kind: KindCompleted, Scenario: st.Scenario, Data: st.Data}, nil
	}

	next := sc.step(nextID)
	if next == nil {
		_ = e.states.Delete(ctx, userID, chatID)
		return Result{}, fmt.Errorf("scenario %q: transition to unknown step %q", st.Scenario, nextID)
	}
	st.Step = next.ID
	if err := e.states.Set(ctx, *st); err != nil {
		return Result{}, err
	}
	return Result{
		Kind:     KindPrompt,
		Scenario: st.Scenario,
		Prompt:   Prompt{Scenario: st.Scenario, Step: next.ID, Text: next.Prompt},
	}, nil
}
