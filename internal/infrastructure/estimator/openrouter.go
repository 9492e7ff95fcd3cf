package estimator

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tdex-network/barter-daemon/internal/core/ports"
	"github.com/tdex-network/barter-daemon/pkg/util"
)

const (
	OpenRouter = "openrouter"
	// OpenRouterURL is the default base url of the OpenRouter API.
	OpenRouterURL = "https://openrouter.ai/api/v1"
	// OpenRouterModel is the default model asked for estimates.
	OpenRouterModel = "openai/gpt-4o-mini"
)

type openRouter struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// NewOpenRouter returns an estimate provider using the OpenRouter chat
// completions API.
func NewOpenRouter(
	baseURL, apiKey, model string, timeout time.Duration,
) ports.EstimateProvider {
	if baseURL == "" {
		baseURL = OpenRouterURL
	}
	if model == "" {
		model = OpenRouterModel
	}
	return &openRouter{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  util.NewHTTPClient(timeout),
	}
}

func (o *openRouter) Name() string {
	return OpenRouter
}

func (o *openRouter) Estimate(ctx context.Context, item string) (string, error) {
	req := chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "user", Content: Prompt(item)},
		},
		MaxTokens:   20,
		Temperature: 0,
	}
	header := map[string]string{"Authorization": "Bearer " + o.apiKey}

	var resp chatResponse
	if err := util.PostJSON(
		ctx, o.client, o.baseURL+"/chat/completions", header, req, &resp,
	); err != nil {
		return "", err
	}
	if len(resp.Choices) <= 0 {
		return "", fmt.Errorf("empty completion")
	}
	return resp.Choices[0].Message.Content, nil
}
