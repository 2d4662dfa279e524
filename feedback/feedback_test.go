// Copyright 2025 The NLP Odyssey Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package feedback

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	ResponseFormat struct {
		Type       string `json:"type"`
		JSONSchema struct {
			Name   string         `json:"name"`
			Strict bool           `json:"strict"`
			Schema map[string]any `json:"schema"`
		} `json:"json_schema"`
	} `json:"response_format"`
}

func completionPayload(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 0,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message": map[string]any{
				"role":    "assistant",
				"content": content,
			},
		}},
	}
}

// stubAnalyzer intercepts every request and responds with payload, optionally
// capturing the decoded request body.
func stubAnalyzer(t *testing.T, payload map[string]any, captured *capturedRequest) *Analyzer {
	t.Helper()
	middleware := func(req *http.Request, _ option.MiddlewareNext) (*http.Response, error) {
		if captured != nil {
			body, err := io.ReadAll(req.Body)
			require.NoError(t, err)
			require.NoError(t, json.Unmarshal(body, captured))
		}
		body, err := json.Marshal(payload)
		require.NoError(t, err)
		return &http.Response{
			StatusCode:    http.StatusOK,
			Body:          io.NopCloser(bytes.NewReader(body)),
			ContentLength: int64(len(body)),
			Header:        http.Header{"Content-Type": []string{"application/json"}},
		}, nil
	}
	return NewAnalyzer(AnalyzerParams{
		APIKey:  "test-key",
		Options: []option.RequestOption{option.WithMiddleware(middleware)},
	})
}

func TestAnalyzerAnalyze(t *testing.T) {
	want := Report{
		Summary:      "A short but solid conversation about directions.",
		FluencyScore: 61,
		Corrections: []Correction{{
			Original:  "dove è la stazione",
			Corrected: "dov'è la stazione",
			Note:      "contraction of dove + è",
		}},
		Vocabulary: []VocabularyItem{{
			Term:    "sempre dritto",
			Meaning: "straight ahead",
			Example: "Vada sempre dritto fino alla piazza.",
		}},
		FollowUp: "Practice asking follow-up questions about locations.",
	}
	content, err := json.Marshal(want)
	require.NoError(t, err)

	var captured capturedRequest
	a := stubAnalyzer(t, completionPayload(string(content)), &captured)

	transcript := "user: dove è la stazione?\nagent: Sempre dritto, poi a destra."
	report, err := a.Analyze(t.Context(), transcript, "Italian", "A2")
	require.NoError(t, err)
	assert.Equal(t, &want, report)

	assert.Equal(t, string(DefaultModel), captured.Model)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Contains(t, captured.Messages[0].Content, "Italian")
	assert.Contains(t, captured.Messages[0].Content, "A2")
	assert.Equal(t, "user", captured.Messages[1].Role)
	assert.Equal(t, transcript, captured.Messages[1].Content)

	assert.Equal(t, "json_schema", captured.ResponseFormat.Type)
	assert.Equal(t, "session_feedback", captured.ResponseFormat.JSONSchema.Name)
	assert.True(t, captured.ResponseFormat.JSONSchema.Strict)
	assert.Equal(t, "object", captured.ResponseFormat.JSONSchema.Schema["type"])
}

func TestAnalyzerBaseURLOverride(t *testing.T) {
	report, err := json.Marshal(Report{Summary: "ok"})
	require.NoError(t, err)

	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(completionPayload(string(report))))
	}))
	defer srv.Close()

	a := NewAnalyzer(AnalyzerParams{
		APIKey:  "test-key",
		BaseURL: param.NewOpt(srv.URL),
	})

	got, err := a.Analyze(t.Context(), "user: ciao", "Italian", "")
	require.NoError(t, err)
	assert.Equal(t, "ok", got.Summary)
	assert.Equal(t, 1, hits)
}

func TestAnalyzerRejectsBlankTranscript(t *testing.T) {
	a := NewAnalyzer(AnalyzerParams{APIKey: "test-key"})
	_, err := a.Analyze(t.Context(), "  \n", "Italian", "A2")
	assert.ErrorContains(t, err, "transcript must not be empty")
}

func TestAnalyzerRejectsUnparsableReport(t *testing.T) {
	a := stubAnalyzer(t, completionPayload("the model ignored the schema"), nil)
	_, err := a.Analyze(t.Context(), "user: ciao", "Italian", "")
	assert.ErrorContains(t, err, "error parsing report")
}

func TestAnalyzerRejectsEmptyChoices(t *testing.T) {
	payload := completionPayload("")
	payload["choices"] = []map[string]any{}
	a := stubAnalyzer(t, payload, nil)
	_, err := a.Analyze(t.Context(), "user: ciao", "Italian", "")
	assert.ErrorContains(t, err, "no choices")
}

func TestReportJSONSchemaIsStrict(t *testing.T) {
	schema, err := reportJSONSchema()
	require.NoError(t, err)

	assert.NotContains(t, schema, "$schema")
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, false, schema["additionalProperties"])
	assert.Equal(t,
		[]string{"corrections", "fluency_score", "follow_up", "summary", "vocabulary"},
		schema["required"])

	properties, ok := schema["properties"].(map[string]any)
	require.True(t, ok)

	corrections, ok := properties["corrections"].(map[string]any)
	require.True(t, ok)
	items, ok := corrections["items"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, items["additionalProperties"])
	assert.Equal(t, []string{"corrected", "note", "original"}, items["required"])
}
