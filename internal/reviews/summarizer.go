// Copyright (c) 2026 MotoWorld. All rights reserved.
// Author: dev@motoworld.shop

package reviews

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// # Summarizer Contract

// Summarizer condenses a set of reviews into a short summary text.
type Summarizer interface {

	/*
		Summarize produces a summary for the given product's reviews.

		Parameters:
		  - context: context.Context
		  - productName: string
		  - reviews: []*Review (Approved, newest first)

		Returns:
		  - string: The summary text
		  - error: Upstream failures; callers fall back to the heuristic
	*/
	Summarize(context context.Context, productName string, reviews []*Review) (string, error)
}

// # Heuristic Summarizer

// HeuristicSummarizer builds a templated summary from rating statistics.
// It is the fallback when no language model is configured or reachable.
type HeuristicSummarizer struct{}

// Summarize implements [Summarizer] without any network dependency.
func (HeuristicSummarizer) Summarize(_ context.Context, _ string, reviewSet []*Review) (string, error) {
	if len(reviewSet) == 0 {
		return EmptySummary(0).Text, nil
	}

	total := 0
	for _, review := range reviewSet {
		total += review.Rating
	}
	average := float64(total) / float64(len(reviewSet))

	return FallbackSummaryText(len(reviewSet), average), nil
}

// # OpenAI-Compatible Summarizer

const (
	openAITimeout     = 30 * time.Second
	openAIMaxTokens   = 200
	openAITemperature = 0.7

	systemPrompt = "You are a helpful assistant that summarizes product reviews " +
		"for an e-commerce site. Provide concise, balanced summaries that " +
		"highlight key themes in customer feedback."
)

// OpenAISummarizer calls a chat-completions endpoint (OpenAI or any
// API-compatible server) to generate review summaries.
type OpenAISummarizer struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewOpenAISummarizer constructs a summarizer against an OpenAI-compatible API.
func NewOpenAISummarizer(apiKey, baseURL, model string) *OpenAISummarizer {
	return &OpenAISummarizer{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: openAITimeout},
	}
}

// chatRequest is the minimal chat-completions request body.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse captures the single field the summarizer needs.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

/*
Summarize implements [Summarizer] against the configured endpoint.

Description: Builds a single prompt from the review set (rating, title and
comment per line) and requests a 100-150 word professional summary. Any
transport or decoding failure is returned to the caller, which substitutes
the heuristic text.
*/
func (summarizer *OpenAISummarizer) Summarize(context context.Context, productName string, reviewSet []*Review) (string, error) {
	payload := chatRequest{
		Model: summarizer.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(productName, reviewSet)},
		},
		MaxTokens:   openAIMaxTokens,
		Temperature: openAITemperature,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("summarizer: failed to encode request: %w", err)
	}

	request, err := http.NewRequestWithContext(
		context,
		http.MethodPost,
		summarizer.baseURL+"/chat/completions",
		bytes.NewReader(body),
	)
	if err != nil {
		return "", fmt.Errorf("summarizer: failed to build request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Authorization", "Bearer "+summarizer.apiKey)

	response, err := summarizer.client.Do(request)
	if err != nil {
		return "", fmt.Errorf("summarizer: request failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(response.Body, 512))
		return "", fmt.Errorf("summarizer: upstream returned %d: %s", response.StatusCode, snippet)
	}

	var decoded chatResponse
	if err := json.NewDecoder(response.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("summarizer: failed to decode response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("summarizer: upstream returned no choices")
	}

	return strings.TrimSpace(decoded.Choices[0].Message.Content), nil
}

// buildPrompt renders the review set into the analysis prompt.
func buildPrompt(productName string, reviewSet []*Review) string {
	var lines strings.Builder
	for _, review := range reviewSet {
		fmt.Fprintf(&lines, "Rating: %d/5 - %s: %s\n", review.Rating, review.Title, review.Comment)
	}

	return fmt.Sprintf(`Analyze the following customer reviews for the product %q and provide a concise summary highlighting:
1. Main positive points mentioned by customers
2. Any common concerns or issues
3. Overall customer satisfaction level
4. Key features that customers appreciate

Keep the summary between 100-150 words and write it in a professional, helpful tone.

Reviews:
%s
Summary:`, productName, lines.String())
}
