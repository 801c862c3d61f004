package agent

import (
	"fmt"
	"strings"

	"deckagent/internal/model"
)

// report appends the end-of-turn status message. It runs on every turn,
// including failed ones, so the caller always sees at least one new
// assistant message per non-empty input.
func (a *Agent) report(ui model.UserIntent, done, total int, fatal error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var sb strings.Builder

	switch ui.Intent {
	case model.IntentUnknown:
		sb.WriteString("I didn't catch what you want to do. You can ask me to create a presentation " +
			"(e.g. \"create 5 slides about solar energy\"), modify, delete or reorder a slide, " +
			"or ask for the current status.")
	case model.IntentQueryStatus:
		sb.WriteString("Status report.")
	default:
		if total > 0 {
			sb.WriteString(fmt.Sprintf("Completed %d of %d steps.", done, total))
		} else {
			sb.WriteString("Nothing to change for that request.")
		}
	}

	sb.WriteString(fmt.Sprintf(" The deck currently has %d slide(s)", a.deck.Len()))
	if cfg := a.deck.Config(); cfg.Topic != "" {
		sb.WriteString(fmt.Sprintf(" on %q", cfg.Topic))
	}
	sb.WriteString(".")

	if fatal != nil {
		sb.WriteString(fmt.Sprintf(" The turn stopped early: %v.", fatal))
	}

	// 只汇报上次报告之后新增的错误
	if fresh := a.errors[a.reported:]; len(fresh) > 0 {
		sb.WriteString(" Issues this turn:")
		for _, rec := range fresh {
			sb.WriteString(fmt.Sprintf(" [%s] %s", rec.Kind, rec.Reason))
			if rec.Action != "" {
				sb.WriteString(fmt.Sprintf(" (during %s)", rec.Action))
			}
			sb.WriteString(";")
		}
	}
	a.reported = len(a.errors)

	a.messages = append(a.messages, model.ChatMessage{Role: "assistant", Content: sb.String()})
}
