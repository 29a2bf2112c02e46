package openai

import (
	"context"
	"fmt"

	oa "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type Commentator struct {
	cli oa.Client
}

func NewCommentator(apiKey string) *Commentator {
	client := oa.NewClient(option.WithAPIKey(apiKey))
	return &Commentator{cli: client}
}

// ExplainAllocation asks for a short plain-language read of a tangency
// portfolio summary produced by the frontier solver.
func (c *Commentator) ExplainAllocation(ctx context.Context, summary string) (string, error) {
	systemPrompt := `You are a financial analyst explaining a mean-variance optimization result to a non-specialist. You will receive the max-Sharpe portfolio of a BTC/SPX/GOLD efficient frontier: its annualized return, volatility, Sharpe ratio and asset weights.

Your response must follow this structure:

**What this allocation means:**
[One short paragraph]

**Why these weights:**
[Relate the weights to each asset's risk/return trade-off]

**Caveats:**
[Historical estimates, not a forecast; concentration and constraint effects]

Guidelines:
- Be concise; this is a chat message, not a report
- Do not invent numbers that are not in the input
- No investment advice disclaimers beyond the caveats section`

	resp, err := c.cli.Chat.Completions.New(ctx, oa.ChatCompletionNewParams{
		Model: "gpt-4",
		Messages: []oa.ChatCompletionMessageParamUnion{
			oa.SystemMessage(systemPrompt),
			oa.UserMessage("Explain this max-Sharpe portfolio:\n" + summary),
		},
		MaxTokens: oa.Int(800),
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}
