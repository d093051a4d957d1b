// Package tagging is the Gemini-backed tagging collaborator: per-item
// category classification and the monthly summary narrative. Replies are
// untrusted text; this package only cleans markdown wrappers. Shape and
// count validation belong to the reconciler.
package tagging

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"github.com/kadoya0703/kakeibo/internal/receipt"
)

// Client wraps one genai client and model choice, constructed once per
// process and injected where needed.
type Client struct {
	client *genai.Client
	model  string
}

func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{client: client, model: model}, nil
}

// TagItems sends the items payload for classification and returns the
// model's reply with any markdown fencing stripped.
func (c *Client) TagItems(ctx context.Context, itemsJSON string) (string, error) {
	reply, err := c.generate(ctx, itemTagsSystemPrompt, itemsJSON)
	if err != nil {
		return "", fmt.Errorf("tag items: %w", err)
	}
	return reply, nil
}

// Summarize sends the monthly expense prompt and returns the cleaned reply.
func (c *Client) Summarize(ctx context.Context, userPrompt string) (string, error) {
	reply, err := c.generate(ctx, monthlySummarySystemPrompt, userPrompt)
	if err != nil {
		return "", fmt.Errorf("summarize month: %w", err)
	}
	return reply, nil
}

func (c *Client) generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: userPrompt}},
		},
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		},
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	raw := resp.Text()
	if raw == "" {
		return "", fmt.Errorf("empty response from model")
	}

	return CleanModelJSON(raw), nil
}

// taggableItem is the per-item slice of data the model sees.
type taggableItem struct {
	Name       string   `json:"name"`
	TotalPrice *int     `json:"total_price"`
	UnitPrice  *int     `json:"unit_price"`
	Quantity   *float64 `json:"quantity"`
}

// ItemsPayload renders the classification request body for a receipt's
// items: {"items": [{"name", "total_price", "unit_price", "quantity"}]}.
func ItemsPayload(items []*receipt.Item) (string, error) {
	payload := struct {
		Items []taggableItem `json:"items"`
	}{Items: make([]taggableItem, 0, len(items))}

	for _, item := range items {
		payload.Items = append(payload.Items, taggableItem{
			Name:       item.Name,
			TotalPrice: item.TotalYen,
			UnitPrice:  item.UnitYen,
			Quantity:   item.Quantity,
		})
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal items payload: %w", err)
	}
	return string(data), nil
}
