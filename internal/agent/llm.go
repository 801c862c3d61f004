package agent

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// runLLM 用单节点graph执行一次chat调用，返回模型文本
func runLLM(ctx context.Context, cm einomodel.BaseChatModel, instruction, userPrompt string) (string, error) {
	graph := compose.NewGraph[[]*schema.Message, *schema.Message]()
	if err := graph.AddChatModelNode("model", cm); err != nil {
		return "", fmt.Errorf("add chat model node: %w", err)
	}
	if err := graph.AddEdge(compose.START, "model"); err != nil {
		return "", fmt.Errorf("wire graph: %w", err)
	}
	if err := graph.AddEdge("model", compose.END); err != nil {
		return "", fmt.Errorf("wire graph: %w", err)
	}
	g, err := graph.Compile(ctx)
	if err != nil {
		return "", fmt.Errorf("compile graph: %w", err)
	}

	messages := []*schema.Message{
		schema.SystemMessage(instruction),
		schema.UserMessage(userPrompt),
	}
	res, err := g.Invoke(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("graph invocation failed: %w", err)
	}
	return res.Content, nil
}
