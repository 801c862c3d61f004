package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"deckagent/internal/model"
	"deckagent/internal/volc"
)

// defaultSlideCount 用户没有说明页数时的默认值
const defaultSlideCount = 5

const outlineInstruction = `You are a presentation planner. Break the topic into per-slide sub-topics.
Return ONLY a JSON array with exactly the requested number of items:
[{"title":"...","outline":"..."}]
Titles at most 8 words; outlines are one or two concise sentences describing what the slide covers.`

const changeInstruction = `You map a free-text slide edit request to ONE operation from a closed set.
Operations and required args:
- REPLACE_TITLE {"title": "..."}
- REPLACE_BULLETS {"bullets": ["...", "..."]}
- APPEND_BULLET {"bullet": "..."}
- DELETE_BULLET {"bullet": "..."}
- REPLACE_IMAGE {"src": "..."}
- INSERT_SLIDE_AFTER {"title": "...", "bullets": ["..."]} (only when the user asks for a NEW slide)
If the request maps to none of these, return {"op":"NONE","args":{}}.
Return ONLY JSON: {"op":"...","args":{...}}`

type outlineItem struct {
	Title   string `json:"title"`
	Outline string `json:"outline"`
}

// insertChangeOp 由子分类器产出、被Planner转成INSERT_SLIDE工作项的特殊操作。
// 它不在SlideChange白名单内，永远不会到达Modifier。
const insertChangeOp = "INSERT_SLIDE_AFTER"

// plan 把意图展开成按执行顺序排列的Todo队列
func (a *Agent) plan(ctx context.Context, ui model.UserIntent) []model.Todo {
	switch ui.Intent {
	case model.IntentCreatePresentation:
		return a.planCreate(ctx, ui)
	case model.IntentReconfigure:
		return a.planReconfigure(ctx, ui)
	case model.IntentModifySlide:
		return a.planModify(ctx, ui)
	case model.IntentDeleteSlide:
		id, _ := a.deckIDAt(ui.TargetPosition)
		return []model.Todo{{Action: model.ActionDeleteSlide, TargetID: id, Position: ui.TargetPosition}}
	case model.IntentReorder:
		return []model.Todo{{Action: model.ActionReorder, Order: ui.Order}}
	default:
		// QUERY_STATUS / UNKNOWN：无工作项，Status Reporter仍会执行
		return nil
	}
}

func (a *Agent) planCreate(ctx context.Context, ui model.UserIntent) []model.Todo {
	cfg := model.SlideConfig{
		Topic:     ui.Topic,
		StyleHint: ui.StyleHint,
		NSlides:   clampSlideCount(ui.NSlides),
	}
	if cfg.Topic == "" {
		cfg.Topic = "General overview"
	}

	a.mu.Lock()
	a.deck.Clear()
	a.deck.SetConfig(cfg)
	a.mu.Unlock()

	todos := make([]model.Todo, 0, cfg.NSlides)
	for _, item := range a.planOutline(ctx, cfg, cfg.NSlides, 0) {
		todos = append(todos, model.Todo{Action: model.ActionGenerateSlide, Title: item.Title, Outline: item.Outline})
	}
	return todos
}

func (a *Agent) planReconfigure(ctx context.Context, ui model.UserIntent) []model.Todo {
	cur := a.deckConfig()
	next := cur
	if ui.Topic != "" {
		next.Topic = ui.Topic
	}
	if ui.StyleHint != "" {
		next.StyleHint = ui.StyleHint
	}
	if ui.NSlides > 0 {
		next.NSlides = clampSlideCount(ui.NSlides)
	}
	if next == cur {
		return nil // 没有实际变化，不计一次配置变更
	}

	a.mu.Lock()
	a.deck.SetConfig(next)
	a.mu.Unlock()

	have := a.deckLen()
	switch {
	case next.NSlides > have:
		// 页数增加：只补生成缺口
		todos := make([]model.Todo, 0, next.NSlides-have)
		for _, item := range a.planOutline(ctx, next, next.NSlides-have, have) {
			todos = append(todos, model.Todo{Action: model.ActionGenerateSlide, Title: item.Title, Outline: item.Outline})
		}
		return todos
	case next.NSlides > 0 && next.NSlides < have:
		// 页数减少：从尾部删除
		todos := make([]model.Todo, 0, have-next.NSlides)
		for pos := have; pos > next.NSlides; pos-- {
			id, _ := a.deckIDAt(pos)
			todos = append(todos, model.Todo{Action: model.ActionDeleteSlide, TargetID: id, Position: pos})
		}
		return todos
	default:
		return nil
	}
}

func (a *Agent) planModify(ctx context.Context, ui model.UserIntent) []model.Todo {
	change, err := a.subclassifyChange(ctx, ui.EditInstruction)
	if err != nil {
		a.recordError(model.ErrKindClassification, string(model.ActionModifySlide), err)
		change = model.SlideChange{Op: model.ChangeOpNone}
	}

	// 新增页请求不是编辑：转成INSERT_SLIDE工作项
	if string(change.Op) == insertChangeOp {
		after := ui.TargetPosition
		if n := a.deckLen(); after <= 0 || after > n {
			after = n
		}
		return []model.Todo{{
			Action:  model.ActionInsertSlide,
			Title:   stringArg(change.Args, "title"),
			Bullets: stringSliceArg(change.Args, "bullets"),
			After:   after,
		}}
	}

	id, _ := a.deckIDAt(ui.TargetPosition)
	return []model.Todo{{
		Action:   model.ActionModifySlide,
		TargetID: id,
		Position: ui.TargetPosition,
		Change:   &change,
	}}
}

// planOutline 让模型产出n个子主题，失败时回退到机械提纲
func (a *Agent) planOutline(ctx context.Context, cfg model.SlideConfig, n, offset int) []outlineItem {
	user := fmt.Sprintf("Topic: %s\nStyle: %s\nSlides already planned: %d\nReturn EXACTLY %d items continuing the deck.",
		cfg.Topic, cfg.StyleHint, offset, n)

	content, err := runLLM(ctx, a.chatModel, outlineInstruction, user)
	if err == nil {
		var items []outlineItem
		if jerr := json.Unmarshal([]byte(volc.StripFences(content)), &items); jerr == nil && len(items) > 0 {
			if len(items) > n {
				items = items[:n]
			}
			for len(items) < n {
				items = append(items, defaultOutline(cfg.Topic, offset+len(items)))
			}
			return items
		}
		err = fmt.Errorf("unparseable outline response")
	}
	logrus.WithError(err).Warn("提纲生成失败，使用默认提纲")

	items := make([]outlineItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, defaultOutline(cfg.Topic, offset+i))
	}
	return items
}

// defaultOutline 模型不可用时的兜底子主题
func defaultOutline(topic string, idx int) outlineItem {
	sections := []outlineItem{
		{Title: fmt.Sprintf("%s: Overview", topic), Outline: fmt.Sprintf("Introduce %s and why it matters now.", topic)},
		{Title: "Key Concepts", Outline: fmt.Sprintf("The core ideas behind %s, explained simply.", topic)},
		{Title: "Current Landscape", Outline: fmt.Sprintf("Where %s stands today: adoption, players, trends.", topic)},
		{Title: "Opportunities and Risks", Outline: fmt.Sprintf("What %s enables and what to watch out for.", topic)},
		{Title: "Next Steps", Outline: fmt.Sprintf("Concrete recommendations for acting on %s.", topic)},
	}
	if idx < len(sections) {
		return sections[idx]
	}
	return outlineItem{
		Title:   fmt.Sprintf("%s: Part %d", topic, idx+1),
		Outline: fmt.Sprintf("Further detail on %s.", topic),
	}
}

// subclassifyChange 把自由文本编辑指令映射到封闭操作集，映射不到时返回NONE
func (a *Agent) subclassifyChange(ctx context.Context, instruction string) (model.SlideChange, error) {
	content, err := runLLM(ctx, a.chatModel, changeInstruction, "Edit request: "+instruction)
	if err != nil {
		return model.SlideChange{}, fmt.Errorf("edit-mapping model call: %w", err)
	}
	var change model.SlideChange
	if err := json.Unmarshal([]byte(volc.StripFences(content)), &change); err != nil {
		return model.SlideChange{}, fmt.Errorf("unparseable edit-mapping response: %w", err)
	}
	switch change.Op {
	case model.ChangeOpReplaceTitle, model.ChangeOpReplaceBullets, model.ChangeOpAppendBullet,
		model.ChangeOpDeleteBullet, model.ChangeOpReplaceImage, model.ChangeOpNone,
		model.ChangeOp(insertChangeOp):
		return change, nil
	default:
		// 白名单之外的操作在边界处拒绝，不进入Modifier
		logrus.WithField("op", change.Op).Warn("编辑操作不在白名单内，按空操作处理")
		return model.SlideChange{Op: model.ChangeOpNone}, nil
	}
}

func clampSlideCount(n int) int {
	if n <= 0 {
		return defaultSlideCount
	}
	if n > model.MaxSlides {
		return model.MaxSlides
	}
	return n
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func stringSliceArg(args map[string]any, key string) []string {
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
