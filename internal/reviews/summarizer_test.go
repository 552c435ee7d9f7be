// Copyright (c) 2026 MotoWorld. All rights reserved.
// Author: dev@motoworld.shop

package reviews_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motoworld/api/internal/reviews"
)

func TestOpenAISummarizer(t *testing.T) {
	reviewSet := []*reviews.Review{
		{Rating: 5, Title: "Superb", Comment: "Quiet and light."},
		{Rating: 2, Title: "Runs small", Comment: "Had to size up twice."},
	}

	t.Run("summarizes_via_chat_completions", func(t *testing.T) {
		var captured struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/chat/completions", request.URL.Path)
			assert.Equal(t, "Bearer sk-test", request.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(request.Body).Decode(&captured))

			writer.Header().Set("Content-Type", "application/json")
			writer.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Balanced feedback overall.  "}}]}`))
		}))
		defer server.Close()

		summarizer := reviews.NewOpenAISummarizer("sk-test", server.URL, "gpt-4o-mini")

		text, err := summarizer.Summarize(context.Background(), "Shoei RF-1400 Helmet", reviewSet)

		require.NoError(t, err)
		assert.Equal(t, "Balanced feedback overall.", text)
		assert.Equal(t, "gpt-4o-mini", captured.Model)
		require.Len(t, captured.Messages, 2)
		assert.Equal(t, "system", captured.Messages[0].Role)
		assert.Contains(t, captured.Messages[1].Content, "Shoei RF-1400 Helmet")
		assert.Contains(t, captured.Messages[1].Content, "Rating: 5/5 - Superb: Quiet and light.")
	})

	t.Run("surfaces_upstream_errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			http.Error(writer, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
		}))
		defer server.Close()

		summarizer := reviews.NewOpenAISummarizer("sk-test", server.URL, "gpt-4o-mini")

		_, err := summarizer.Summarize(context.Background(), "Shoei RF-1400 Helmet", reviewSet)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "429")
	})

	t.Run("rejects_empty_choices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			writer.Header().Set("Content-Type", "application/json")
			writer.Write([]byte(`{"choices":[]}`))
		}))
		defer server.Close()

		summarizer := reviews.NewOpenAISummarizer("sk-test", server.URL, "gpt-4o-mini")

		_, err := summarizer.Summarize(context.Background(), "Shoei RF-1400 Helmet", reviewSet)
		require.Error(t, err)
	})
}

func TestHeuristicSummarizer(t *testing.T) {
	summarizer := reviews.HeuristicSummarizer{}

	text, err := summarizer.Summarize(context.Background(), "DID 520 Chain", []*reviews.Review{
		{Rating: 5}, {Rating: 4},
	})

	require.NoError(t, err)
	assert.Contains(t, text, "2 customer reviews")
	assert.Contains(t, text, "4.5 stars")
}
