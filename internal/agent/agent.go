// Package agent implements the conversational slide-deck orchestrator:
// classify the user's message, expand it into a todo queue, and execute
// generation and edit steps against the deck while streaming progress
// into the chat log.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	einomodel "github.com/cloudwego/eino/components/model"
	einotool "github.com/cloudwego/eino/components/tool"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"deckagent/internal/deck"
	"deckagent/internal/model"
)

// invokableTool is the slice of eino's tool contract the executor needs.
// Tests substitute scripted fakes here.
type invokableTool interface {
	InvokableRun(ctx context.Context, argumentsInJSON string, opts ...einotool.Option) (string, error)
}

// Agent owns one session's deck, chat log and error history.
//
// Locking: turnMu serializes whole turns, and Reset queues behind it so a
// reset never interleaves with an in-flight turn. mu guards the fields
// pollers read (messages, errors, deck, processing): the turn path takes
// mu for every deck access, read or write, so status requests observe a
// consistent snapshot mid-turn without blocking on LLM latency.
type Agent struct {
	turnMu sync.Mutex
	mu     sync.RWMutex

	chatModel einomodel.BaseChatModel
	tableTool invokableTool
	docTool   invokableTool

	deck     *deck.Deck
	messages []model.ChatMessage
	errors   []model.ErrorRecord
	reported int // errors[:reported] already mentioned in a status message

	lastIntent model.Intent
	runID      string
	processing bool
}

func New(cm einomodel.BaseChatModel, tableTool, docTool invokableTool, theme model.SlideTheme) *Agent {
	return &Agent{
		chatModel: cm,
		tableTool: tableTool,
		docTool:   docTool,
		deck:      deck.New(theme),
	}
}

// ProcessMessage runs one full turn and returns the complete chat log.
func (a *Agent) ProcessMessage(ctx context.Context, text string) ([]model.ChatMessage, error) {
	return a.ProcessMessageStreaming(ctx, text, nil)
}

// ProcessMessageStreaming runs one full turn, invoking onStep with a log
// snapshot after each completed work item. Guarantee: a non-empty input
// always grows the log by at least the user message plus one status message.
func (a *Agent) ProcessMessageStreaming(ctx context.Context, text string, onStep func([]model.ChatMessage)) ([]model.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		logrus.Debug("忽略空消息")
		return a.Messages(), nil
	}

	a.turnMu.Lock()
	defer a.turnMu.Unlock()

	runID := uuid.NewString()
	a.mu.Lock()
	a.runID = runID
	a.processing = true
	a.messages = append(a.messages, model.ChatMessage{Role: "user", Content: text})
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.processing = false
		a.mu.Unlock()
	}()

	log := logrus.WithField("run_id", runID)
	log.WithField("text", text).Info("开始处理用户消息")

	ui := a.classify(ctx, text)
	a.mu.Lock()
	a.lastIntent = ui.Intent
	a.mu.Unlock()
	log.WithField("intent", ui.Intent).Info("意图识别完成")

	todos := a.plan(ctx, ui)

	var (
		done  int
		fatal error
	)
	for i, todo := range todos {
		if err := ctx.Err(); err != nil {
			fatal = err
			break
		}
		// 单处记录：executeTodo返回的错误只在这里进错误日志
		if err := a.executeTodo(ctx, todo); err != nil {
			if errors.Is(err, deck.ErrInvariantViolation) {
				// 结构性破坏：立即终止本轮，绝不静默修复
				a.recordError(model.ErrKindInvariant, string(todo.Action), err)
				fatal = err
				break
			}
			a.recordError(model.ErrKindValidation, string(todo.Action), err)
			log.WithField("step", i+1).WithError(err).Warn("工作项执行失败，继续后续步骤")
		} else {
			done++
		}
		if onStep != nil {
			onStep(a.Messages())
		}
	}

	a.report(ui, done, len(todos), fatal)
	if onStep != nil {
		onStep(a.Messages())
	}
	log.WithFields(logrus.Fields{"done": done, "total": len(todos)}).Info("本轮处理结束")

	if fatal != nil {
		return a.Messages(), fatal
	}
	return a.Messages(), nil
}

// executeTodo runs one work item. Failures are returned to the turn loop,
// which records them; only invariant violations abort the turn.
func (a *Agent) executeTodo(ctx context.Context, todo model.Todo) error {
	switch todo.Action {
	case model.ActionGenerateSlide:
		html, err := a.generateSlideHTML(ctx, todo.Title, todo.Outline, a.deckConfig().StyleHint)
		if err != nil {
			// 不落占位页：该页直接缺位
			return err
		}
		a.mu.Lock()
		slide, aerr := a.deck.Append(todo.Title, html)
		a.mu.Unlock()
		if aerr != nil {
			return aerr
		}
		a.appendMessage(model.ChatMessage{
			Role:    "assistant",
			Content: fmt.Sprintf("Generated slide %d: %s", slide.Ordinal+1, slide.Title),
		})
		return nil

	case model.ActionInsertSlide:
		outline := strings.Join(todo.Bullets, "; ")
		html, err := a.generateSlideHTML(ctx, todo.Title, outline, a.deckConfig().StyleHint)
		if err != nil {
			return err
		}
		a.mu.Lock()
		slide, ierr := a.deck.InsertAfter(todo.After, todo.Title, html)
		a.mu.Unlock()
		if ierr != nil {
			return ierr
		}
		a.appendMessage(model.ChatMessage{
			Role:    "assistant",
			Content: fmt.Sprintf("Inserted slide %d: %s", slide.Ordinal+1, slide.Title),
		})
		return nil

	case model.ActionModifySlide:
		if todo.TargetID == "" {
			return fmt.Errorf("slide %d does not exist", todo.Position)
		}
		if todo.Change == nil || todo.Change.Op == model.ChangeOpNone {
			a.appendMessage(model.ChatMessage{
				Role:    "assistant",
				Content: fmt.Sprintf("I couldn't map that request to a supported edit of slide %d, so the slide is unchanged.", todo.Position),
			})
			return nil
		}
		slide, ok := a.deckSlideByID(todo.TargetID)
		if !ok {
			return fmt.Errorf("slide %d does not exist", todo.Position)
		}
		if err := a.applyChange(slide, *todo.Change); err != nil {
			return err
		}
		a.appendMessage(model.ChatMessage{
			Role:    "assistant",
			Content: fmt.Sprintf("Applied %s to slide %d.", todo.Change.Op, todo.Position),
		})
		return nil

	case model.ActionDeleteSlide:
		if todo.TargetID == "" {
			return fmt.Errorf("slide %d does not exist", todo.Position)
		}
		a.mu.Lock()
		err := a.deck.Delete(todo.TargetID)
		a.mu.Unlock()
		if err != nil {
			return err
		}
		a.appendMessage(model.ChatMessage{
			Role:    "assistant",
			Content: fmt.Sprintf("Deleted slide %d.", todo.Position),
		})
		return nil

	case model.ActionReorder:
		a.mu.Lock()
		err := a.deck.Reorder(todo.Order)
		a.mu.Unlock()
		if err != nil {
			return err
		}
		a.appendMessage(model.ChatMessage{Role: "assistant", Content: "Reordered the slides."})
		return nil

	default:
		return fmt.Errorf("unknown work item action %q", todo.Action)
	}
}

func (a *Agent) appendMessage(msg model.ChatMessage) {
	a.mu.Lock()
	a.messages = append(a.messages, msg)
	a.mu.Unlock()
}

// recordError 写入错误日志并在对话记录里留下一条错误标记消息
func (a *Agent) recordError(kind model.ErrorKind, action string, err error) {
	logrus.WithFields(logrus.Fields{"kind": kind, "action": action}).WithError(err).Warn("记录错误")
	a.mu.Lock()
	a.errors = append(a.errors, model.ErrorRecord{Kind: kind, Action: action, Reason: err.Error()})
	a.messages = append(a.messages, model.ChatMessage{
		Role:     "assistant",
		Content:  fmt.Sprintf("%s error: %v", kind, err),
		Metadata: map[string]string{model.MetaTitleKey: model.MetaErrorRecord},
	})
	a.mu.Unlock()
}

// 管线内部的deck读取也走mu，与Reset这类持锁写入方保持一致

func (a *Agent) deckLen() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.deck.Len()
}

func (a *Agent) deckConfig() model.SlideConfig {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.deck.Config()
}

func (a *Agent) deckIDAt(position int) (string, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.deck.IDAt(position)
}

func (a *Agent) deckSlideByID(id string) (model.Slide, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.deck.SlideByID(id)
}

// Messages returns a copy of the chat log; safe to call mid-turn.
func (a *Agent) Messages() []model.ChatMessage {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]model.ChatMessage, len(a.messages))
	copy(out, a.messages)
	return out
}

// Processing reports whether a turn is currently running.
func (a *Agent) Processing() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.processing
}

// Slides returns a snapshot of the deck's slides in order.
func (a *Agent) Slides() []model.Slide {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.deck.Slides()
}

// Errors returns a copy of the accumulated error history.
func (a *Agent) Errors() []model.ErrorRecord {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]model.ErrorRecord, len(a.errors))
	copy(out, a.errors)
	return out
}

// ConfigVersion exposes the deck's configuration version for status callers.
func (a *Agent) ConfigVersion() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.deck.ConfigVersion()
}

// ExportHTML concatenates all slide documents into one HTML payload.
func (a *Agent) ExportHTML() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.deck.ExportHTML()
}

// Save writes the exported deck to disk.
func (a *Agent) Save(path string) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.deck.Save(path)
}

// Reset clears the deck and the conversation state. It queues behind any
// in-flight turn so a running pipeline can never repopulate a deck the
// caller just cleared.
func (a *Agent) Reset() {
	a.turnMu.Lock()
	defer a.turnMu.Unlock()
	a.mu.Lock()
	defer a.mu.Unlock()
	a.deck.Reset()
	a.messages = nil
	a.errors = nil
	a.reported = 0
	a.lastIntent = ""
}
