package volc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

const (
	defaultBase = "https://ark.cn-beijing.volces.com"

	// 传输层瞬时错误的最大重试次数
	maxTransientRetries = 2
)

// ArkClient ark服务HTTP客户端，Mock开启时各调用方返回内置数据
type ArkClient struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Mock       bool
}

func NewArkClientDefault() *ArkClient {
	return NewArkClientWithTimeout(30 * time.Second)
}

func NewArkClientWithTimeout(timeout time.Duration) *ArkClient {
	apiKey := os.Getenv("ARK_API_KEY")
	mock := strings.ToLower(os.Getenv("ARK_MOCK"))
	return &ArkClient{
		BaseURL:    defaultBase,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: timeout},
		Mock:       mock == "1" || mock == "true",
	}
}

// ChatText 调用chat completions，返回首个choice的文本内容
func (c *ArkClient) ChatText(ctx context.Context, model string, prompt string) (string, error) {
	if model == "" {
		return "", errors.New("model required")
	}
	reqBody := map[string]any{
		"model":    model,
		"messages": []map[string]any{{"role": "user", "content": prompt}},
	}
	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := c.PostJSON(ctx, "/api/v3/chat/completions", reqBody, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", errors.New("empty chat content")
	}
	return resp.Choices[0].Message.Content, nil
}

// ChatJSON 调用chat completions并把JSON结果解析到out，容忍markdown代码围栏
func (c *ArkClient) ChatJSON(ctx context.Context, model string, prompt string, out any) error {
	content, err := c.ChatText(ctx, model, prompt)
	if err != nil {
		return err
	}
	cleaned := StripFences(content)
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return fmt.Errorf("decode chat json: %w, raw: %s", err, cleaned)
	}
	return nil
}

// StripFences 去掉模型返回内容外层的markdown代码围栏
func StripFences(content string) string {
	s := strings.TrimSpace(content)
	for _, prefix := range []string{"```json", "```html", "```"} {
		if strings.HasPrefix(s, prefix) {
			s = strings.TrimPrefix(s, prefix)
			break
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// PostJSON 发送POST请求并解析响应，网络错误和5xx/429做指数退避重试
func (c *ArkClient) PostJSON(ctx context.Context, path string, body any, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, strings.NewReader(string(b)))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
		req.Header.Set("Content-Type", "application/json")
		res, err := c.HTTPClient.Do(req)
		if err != nil {
			return err
		}
		defer res.Body.Close()
		bodyBytes, err := io.ReadAll(res.Body)
		if err != nil {
			return err
		}
		if res.StatusCode >= 500 || res.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("http %d: %s", res.StatusCode, string(bodyBytes))
		}
		if res.StatusCode < 200 || res.StatusCode >= 300 {
			return backoff.Permanent(fmt.Errorf("http %d: %s", res.StatusCode, string(bodyBytes)))
		}
		if err := json.Unmarshal(bodyBytes, out); err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxTransientRetries), ctx)
	if err := backoff.RetryNotify(op, policy, func(err error, wait time.Duration) {
		logrus.WithError(err).WithField("wait", wait).Warn("ark请求失败，准备重试")
	}); err != nil {
		return err
	}
	return nil
}
