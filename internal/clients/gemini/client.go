// Package gemini provides a client for the Google Gemini API
package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/tiemoko/brvmwatch/internal/common"
	"github.com/tiemoko/brvmwatch/internal/interfaces"
	"github.com/tiemoko/brvmwatch/internal/models"
)

const DefaultModel = "gemini-2.0-flash"

// Compile-time interface check
var _ interfaces.Summarizer = (*Client)(nil)

// Client implements the Summarizer interface
type Client struct {
	client *genai.Client
	model  string
	logger *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithModel sets the model to use
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new Gemini client
func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c := &Client{
		client: genaiClient,
		model:  DefaultModel,
		logger: common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// SummarizeReport generates a short narrative for a portfolio report
func (c *Client) SummarizeReport(ctx context.Context, report *models.Report) (string, error) {
	c.logger.Debug().Str("model", c.model).Str("user", report.UserID).Msg("Generating report narrative")

	contents := genai.Text(buildReportPrompt(report))
	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate narrative: %w", err)
	}

	return extractText(result)
}

func buildReportPrompt(report *models.Report) string {
	var sb strings.Builder
	sb.WriteString("You are a financial assistant for BRVM (West African stock exchange) investors.\n")
	sb.WriteString("Summarize this portfolio in 3-4 plain sentences for a retail investor. ")
	sb.WriteString("Mention the overall return, the largest position, and any notable gain or loss. ")
	sb.WriteString("Amounts are in XOF.\n\n")

	fmt.Fprintf(&sb, "Total value: %s | Total cost: %s | Realized PnL: %s | Unrealized PnL: %s | Return: %.1f%%\n",
		report.TotalValue.StringFixed(0),
		report.TotalCost.StringFixed(0),
		report.TotalRealizedPnL.StringFixed(0),
		report.TotalUnrealizedPnL.StringFixed(0),
		report.TotalReturnPct,
	)
	for _, line := range report.Lines {
		fmt.Fprintf(&sb, "- %s: %s units @ avg %s, value %s, unrealized %s",
			line.Ticker,
			line.Quantity.String(),
			line.AverageCost.StringFixed(0),
			line.MarketValue.StringFixed(0),
			line.UnrealizedPnL.StringFixed(0),
		)
		if line.Trend != "" {
			fmt.Fprintf(&sb, " (trend: %s)", line.Trend)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func extractText(result *genai.GenerateContentResponse) (string, error) {
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated")
	}

	text := ""
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
	}
	return text, nil
}
