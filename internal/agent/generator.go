package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"deckagent/internal/model"
	"deckagent/internal/slidehtml"
	"deckagent/internal/volc"
)

// maxGenerateAttempts 首次生成加两次带校验反馈的修复重试
const maxGenerateAttempts = 3

const htmlConstraints = `You generate ONE complete HTML slide document. Hard requirements:
- Full document: <html> with <head> and <body>.
- <head> loads BOTH CDN scripts: https://cdn.tailwindcss.com and https://cdn.jsdelivr.net/npm/chart.js
- <body> carries an inline style with exactly: width:1280px; height:720px; overflow:hidden
- Exactly ONE <h1> (the slide title), colored Navy 900 (#102025).
- A main container div (class containing "container", "main" or "slide") constrained with max-width and max-height so content never overflows the 1280x720 canvas.
- Visible text content beyond the title (paragraphs, lists, or chart canvases).
- Brand palette: navy #102025, teal #0E7C7B, warm gray #F4F4F2, accent amber #F2A33C.
- Charts, if any, use Chart.js via an inline script ("new Chart(...)").
- No event handler attributes, no javascript: URLs, no external scripts beyond the two CDNs.
Return ONLY the HTML document, no Markdown fences, no commentary.`

const dataNeedInstruction = `Decide whether the slide needs backing data before generation.
Return ONLY JSON: {"needs_data": bool, "query": "...", "needs_docs": bool, "doc_query": "..."}
needs_data means numeric/tabular figures (set "query" to a natural-language data question).
needs_docs means factual passages from reference documents (set "doc_query").
Both false when the slide is self-contained.`

type dataNeed struct {
	NeedsData bool   `json:"needs_data"`
	Query     string `json:"query"`
	NeedsDocs bool   `json:"needs_docs"`
	DocQuery  string `json:"doc_query"`
}

// generateSlideHTML runs the generate -> validate -> repair loop for one slide.
// The returned document has already been sanitized. An error after all
// attempts means the slide is skipped, never replaced by a placeholder.
func (a *Agent) generateSlideHTML(ctx context.Context, title, outline, styleHint string) (string, error) {
	dataCtx := a.fetchSlideData(ctx, title, outline)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Slide title: %s\nSlide outline: %s\n", title, outline)
	if styleHint != "" {
		fmt.Fprintf(&sb, "Style hint: %s\n", styleHint)
	}
	if dataCtx != "" {
		fmt.Fprintf(&sb, "Supporting data (use it in the slide):\n%s\n", dataCtx)
	}
	basePrompt := sb.String()

	prompt := basePrompt
	for attempt := 1; attempt <= maxGenerateAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		content, err := runLLM(ctx, a.chatModel, htmlConstraints, prompt)
		if err != nil {
			return "", fmt.Errorf("slide generation model call: %w", err)
		}
		doc := volc.StripFences(content)
		if verr := slidehtml.Validate(doc); verr != nil {
			logrus.WithFields(logrus.Fields{"title": title, "attempt": attempt}).
				WithError(verr).Warn("生成的HTML未通过校验")
			prompt = basePrompt + fmt.Sprintf(
				"\nYour previous HTML was rejected: %v\nFix exactly that problem and return the corrected full document.", verr)
			continue
		}
		return slidehtml.Sanitize(doc), nil
	}
	return "", fmt.Errorf("slide %q failed validation after %d attempts", title, maxGenerateAttempts)
}

// fetchSlideData asks the model whether the slide needs data, then runs the
// matching tools. Tool failures are recorded and reported but never block
// generation; the slide is simply produced without that data.
func (a *Agent) fetchSlideData(ctx context.Context, title, outline string) string {
	need := a.detectDataNeed(ctx, title, outline)

	var parts []string
	if need.NeedsData && need.Query != "" && a.tableTool != nil {
		if out, ok := a.invokeTool(ctx, a.tableTool, "table_query", map[string]string{"question": need.Query}); ok {
			parts = append(parts, "Table data: "+out)
		}
	}
	if need.NeedsDocs && need.DocQuery != "" && a.docTool != nil {
		if out, ok := a.invokeTool(ctx, a.docTool, "doc_search", map[string]string{"question": need.DocQuery}); ok {
			parts = append(parts, "Reference passages: "+out)
		}
	}
	return strings.Join(parts, "\n")
}

func (a *Agent) detectDataNeed(ctx context.Context, title, outline string) dataNeed {
	content, err := runLLM(ctx, a.chatModel, dataNeedInstruction,
		fmt.Sprintf("Slide title: %s\nSlide outline: %s", title, outline))
	if err != nil {
		logrus.WithError(err).Warn("数据需求判定失败，按无需数据处理")
		return dataNeed{}
	}
	var need dataNeed
	if err := json.Unmarshal([]byte(volc.StripFences(content)), &need); err != nil {
		logrus.WithError(err).Warn("数据需求判定结果无法解析，按无需数据处理")
		return dataNeed{}
	}
	return need
}

// invokeTool 调用工具并把调用轨迹写入对话记录
func (a *Agent) invokeTool(ctx context.Context, t invokableTool, name string, args map[string]string) (string, bool) {
	argsJSON, _ := json.Marshal(args)
	a.appendMessage(model.ChatMessage{
		Role:     "assistant",
		Content:  fmt.Sprintf("%s(%s)", name, string(argsJSON)),
		Metadata: map[string]string{model.MetaTitleKey: model.MetaToolTrace},
	})

	out, err := t.InvokableRun(ctx, string(argsJSON))
	if err != nil {
		a.recordError(model.ErrKindTool, name, err)
		return "", false
	}
	a.appendMessage(model.ChatMessage{
		Role:     "assistant",
		Content:  out,
		Metadata: map[string]string{model.MetaTitleKey: model.MetaToolResult},
	})
	return out, true
}
