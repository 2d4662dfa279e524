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

// Package feedback turns a finished tutoring conversation into structured
// learner feedback via an OpenAI-compatible chat completion.
package feedback

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/openai/openai-go/v3/shared/constant"
)

// DefaultModel is used when AnalyzerParams does not select a model.
const DefaultModel = openai.ChatModel("gpt-4o-mini")

// Report is the tutor's post-session assessment of the learner.
type Report struct {
	// Summary describes in two or three sentences how the conversation went.
	Summary string `json:"summary"`

	// FluencyScore grades the learner's overall fluency from 0 to 100.
	FluencyScore int `json:"fluency_score"`

	// Corrections lists the learner's language mistakes worth reviewing.
	Corrections []Correction `json:"corrections"`

	// Vocabulary lists words or expressions worth adding to the learner's
	// repertoire.
	Vocabulary []VocabularyItem `json:"vocabulary"`

	// FollowUp suggests what to practice in the next session.
	FollowUp string `json:"follow_up"`
}

type Correction struct {
	Original  string `json:"original"`
	Corrected string `json:"corrected"`
	Note      string `json:"note"`
}

type VocabularyItem struct {
	Term    string `json:"term"`
	Meaning string `json:"meaning"`
	Example string `json:"example"`
}

// AnalyzerParams configures an Analyzer.
type AnalyzerParams struct {
	// APIKey authenticates against the completion endpoint.
	APIKey string

	// BaseURL points at an alternative OpenAI-compatible endpoint.
	BaseURL param.Opt[string]

	// Model selects the completion model. Defaults to DefaultModel.
	Model openai.ChatModel

	// Options are extra request options applied to the underlying client.
	Options []option.RequestOption
}

// Analyzer produces feedback reports from session transcripts.
type Analyzer struct {
	client openai.Client
	model  openai.ChatModel
}

func NewAnalyzer(params AnalyzerParams) *Analyzer {
	opts := slices.Clone(params.Options)
	if params.APIKey != "" {
		opts = append(opts, option.WithAPIKey(params.APIKey))
	}
	if params.BaseURL.Valid() {
		opts = append(opts, option.WithBaseURL(params.BaseURL.Value))
	}
	return &Analyzer{
		client: openai.NewClient(opts...),
		model:  cmp.Or(params.Model, DefaultModel),
	}
}

// Analyze reviews a rendered transcript ("user: ...\nagent: ..." lines) and
// returns the tutor's report. The completion is constrained to the Report
// JSON schema; a response that still fails to parse is an error, never a
// partial report.
func (a *Analyzer) Analyze(ctx context.Context, transcript, language, level string) (*Report, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, fmt.Errorf("feedback: transcript must not be empty")
	}

	responseFormat, err := reportResponseFormat()
	if err != nil {
		return nil, err
	}

	response, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: a.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: param.NewOpt(analyzerInstructions(language, level)),
					},
					Role: constant.ValueOf[constant.System](),
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: param.NewOpt(transcript),
					},
					Role: constant.ValueOf[constant.User](),
				},
			},
		},
		ResponseFormat: responseFormat,
		Temperature:    param.NewOpt(0.3),
	})
	if err != nil {
		return nil, fmt.Errorf("feedback: chat completion failed: %w", err)
	}
	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("feedback: chat completion returned no choices")
	}

	var report Report
	if err := json.Unmarshal([]byte(response.Choices[0].Message.Content), &report); err != nil {
		return nil, fmt.Errorf("feedback: error parsing report: %w", err)
	}
	return &report, nil
}

func analyzerInstructions(language, level string) string {
	var sb strings.Builder
	sb.WriteString("You are an experienced language teacher reviewing the transcript of a spoken tutoring session between a learner (\"user\") and an AI tutor (\"agent\").")
	if language != "" {
		fmt.Fprintf(&sb, " The learner is practicing %s.", language)
	}
	if level != "" {
		fmt.Fprintf(&sb, " The learner's self-assessed level is %s.", level)
	}
	sb.WriteString("\n\nAssess only the learner's turns. Summarize how the conversation went, " +
		"grade overall fluency from 0 (no usable language) to 100 (native-like), " +
		"list the mistakes worth reviewing with corrections, " +
		"pick vocabulary worth learning from the conversation, " +
		"and suggest one concrete thing to practice next. " +
		"Write all feedback in English; keep cited learner phrases in the original language.")
	return sb.String()
}
