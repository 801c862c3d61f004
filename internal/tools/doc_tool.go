package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	einotool "github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"deckagent/internal/volc"
)

// DocSearchTool 文档检索工具：向检索增强端点提问，返回相关文本片段
type DocSearchTool struct {
	ark   *volc.ArkClient
	Model string
}

// DocSearchArgs 检索参数
type DocSearchArgs struct {
	Question string `json:"question"` // 检索问题
}

// DocSearchResp 检索响应
type DocSearchResp struct {
	Passages []string `json:"passages"` // 相关片段
}

// NewDocSearchTool 创建文档检索工具实例
func NewDocSearchTool(ark *volc.ArkClient, model string) *DocSearchTool {
	return &DocSearchTool{ark: ark, Model: model}
}

// Info 获取工具信息
func (t *DocSearchTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	params := map[string]*schema.ParameterInfo{
		"question": {Type: schema.String, Required: true, Desc: "要检索的问题"},
	}
	return &schema.ToolInfo{
		Name:        "doc_search",
		Desc:        "检索公司知识库，返回与问题相关的文本片段",
		ParamsOneOf: schema.NewParamsOneOfByParams(params),
	}, nil
}

// InvokableRun 执行文档检索
func (t *DocSearchTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...einotool.Option) (string, error) {
	var args DocSearchArgs
	if err := json.Unmarshal([]byte(argumentsInJSON), &args); err != nil {
		return "", err
	}
	if args.Question == "" {
		return "", errors.New("question required")
	}

	if t.ark.Mock {
		out := DocSearchResp{Passages: []string{
			"The company operates in 12 markets with a focus on advisory services.",
		}}
		b, _ := json.Marshal(out)
		return string(b), nil
	}

	prompt := fmt.Sprintf(
		"You are a retrieval service over the company knowledge base. Return ONLY a JSON array of the most relevant passages for the question, no prose.\nQuestion: %s",
		args.Question)

	var passages []string
	if err := t.ark.ChatJSON(ctx, t.Model, prompt, &passages); err != nil {
		return "", fmt.Errorf("doc search: %w", err)
	}

	out := DocSearchResp{Passages: passages}
	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// 确保DocSearchTool实现了einotool.InvokableTool接口
var _ einotool.InvokableTool = (*DocSearchTool)(nil)
