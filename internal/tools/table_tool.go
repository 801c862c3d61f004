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

// TableQueryTool 结构化数据查询工具：把自然语言问题发给text2sql服务端点，返回JSON行
type TableQueryTool struct {
	ark   *volc.ArkClient
	Model string
}

// TableQueryArgs 查询参数
type TableQueryArgs struct {
	Question string `json:"question"` // 自然语言查询
}

// TableQueryResp 查询响应
type TableQueryResp struct {
	Rows  []map[string]any `json:"rows"`  // 查询结果行
	Count int              `json:"count"` // 行数
}

// NewTableQueryTool 创建结构化数据查询工具实例
func NewTableQueryTool(ark *volc.ArkClient, model string) *TableQueryTool {
	return &TableQueryTool{ark: ark, Model: model}
}

// Info 获取工具信息
func (t *TableQueryTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	params := map[string]*schema.ParameterInfo{
		"question": {Type: schema.String, Required: true, Desc: "自然语言数据查询，例如'近6个月每日支出'"},
	}
	return &schema.ToolInfo{
		Name:        "table_query",
		Desc:        "向text2sql数据服务提问，返回结构化查询结果(JSON行)",
		ParamsOneOf: schema.NewParamsOneOfByParams(params),
	}, nil
}

// InvokableRun 执行数据查询
func (t *TableQueryTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...einotool.Option) (string, error) {
	var args TableQueryArgs
	if err := json.Unmarshal([]byte(argumentsInJSON), &args); err != nil {
		return "", err
	}
	if args.Question == "" {
		return "", errors.New("question required")
	}

	if t.ark.Mock {
		out := TableQueryResp{
			Rows: []map[string]any{
				{"label": "Q1", "value": 120},
				{"label": "Q2", "value": 150},
				{"label": "Q3", "value": 180},
			},
			Count: 3,
		}
		b, _ := json.Marshal(out)
		return string(b), nil
	}

	prompt := fmt.Sprintf(
		"You are a text2sql data service. Answer the following question against the business warehouse and return ONLY a JSON array of row objects, no prose.\nQuestion: %s",
		args.Question)

	var rows []map[string]any
	if err := t.ark.ChatJSON(ctx, t.Model, prompt, &rows); err != nil {
		return "", fmt.Errorf("table query: %w", err)
	}

	out := TableQueryResp{Rows: rows, Count: len(rows)}
	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// 确保TableQueryTool实现了einotool.InvokableTool接口
var _ einotool.InvokableTool = (*TableQueryTool)(nil)
