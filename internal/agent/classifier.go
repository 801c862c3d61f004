package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"github.com/sirupsen/logrus"

	"deckagent/internal/model"
	"deckagent/internal/volc"
)

const classifierInstruction = `You are an intent recognizer for a slide deck agent.
From the latest user message and the deck snapshot, return intent + extracted entities.
Valid intents:
- CREATE_PRESENTATION: user wants a new deck ("create 5 slides about...", "make a presentation on...")
- MODIFY_SLIDE: user wants to edit one existing slide or add a single slide to an existing deck
- RECONFIGURE: user changes topic, style or slide count of the current deck
- DELETE_SLIDE: user wants a slide removed
- REORDER: user wants the slides in a different order
- QUERY_STATUS: user asks what the deck looks like or how far along it is
If nothing fits, use QUERY_STATUS only when the user clearly asks a question about the deck; otherwise leave classification to the caller by answering with intent UNKNOWN.
Rules:
- Only the LAST user message counts; earlier messages are context.
- If the deck is empty, slide-producing requests are CREATE_PRESENTATION even when phrased as "add a slide".
- target_position is the 1-based slide number the user refers to.
- For MODIFY_SLIDE put the user's complete edit request into edit_instruction, preserving wording and data.
Return ONLY JSON:
{{"intent":"...","topic":"...","style_hint":"...","n_slides":0,"target_position":0,"edit_instruction":"...","order":[]}}`

var slidePositionRe = regexp.MustCompile(`(?i)slide\s+(\d+)`)

var validIntents = map[model.Intent]bool{
	model.IntentCreatePresentation: true,
	model.IntentModifySlide:        true,
	model.IntentReconfigure:        true,
	model.IntentDeleteSlide:        true,
	model.IntentReorder:            true,
	model.IntentQueryStatus:        true,
	model.IntentUnknown:            true,
}

// classify 把用户消息映射到固定意图集合，模型失败或结果不可解析时降级为UNKNOWN
func (a *Agent) classify(ctx context.Context, text string) model.UserIntent {
	slideCount := a.deckLen()

	template := prompt.FromMessages(schema.FString,
		schema.SystemMessage(classifierInstruction),
		schema.UserMessage("Latest user message: {message}\nDeck exists: {deck_exists}\nCurrent slide count: {slide_count}\nCurrent topic: {topic}"),
	)
	messages, err := template.Format(ctx, map[string]any{
		"message":     text,
		"deck_exists": slideCount > 0,
		"slide_count": slideCount,
		"topic":       a.deckConfig().Topic,
	})
	if err != nil {
		a.recordError(model.ErrKindClassification, "", fmt.Errorf("format intent prompt: %w", err))
		return model.UserIntent{Intent: model.IntentUnknown}
	}

	res, err := a.chatModel.Generate(ctx, messages)
	if err != nil {
		a.recordError(model.ErrKindClassification, "", fmt.Errorf("intent model call: %w", err))
		return model.UserIntent{Intent: model.IntentUnknown}
	}

	var ui model.UserIntent
	if err := json.Unmarshal([]byte(volc.StripFences(res.Content)), &ui); err != nil {
		a.recordError(model.ErrKindClassification, "", fmt.Errorf("unparseable intent response: %w", err))
		return model.UserIntent{Intent: model.IntentUnknown}
	}
	if !validIntents[ui.Intent] {
		logrus.WithField("intent", ui.Intent).Warn("模型返回了未知意图，降级为UNKNOWN")
		return model.UserIntent{Intent: model.IntentUnknown}
	}

	// 模型漏掉页码时从原文补齐
	if (ui.Intent == model.IntentModifySlide || ui.Intent == model.IntentDeleteSlide) && ui.TargetPosition == 0 {
		ui.TargetPosition = extractSlidePosition(text)
	}
	if ui.Intent == model.IntentModifySlide && ui.EditInstruction == "" {
		ui.EditInstruction = text
	}
	return ui
}

// extractSlidePosition 从消息原文提取"slide N"里的页码，找不到返回1
func extractSlidePosition(text string) int {
	m := slidePositionRe.FindStringSubmatch(text)
	if m == nil {
		return 1
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 1
	}
	return n
}
