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
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/openai/openai-go/v3/shared/constant"
)

func reportResponseFormat() (openai.ChatCompletionNewParamsResponseFormatUnion, error) {
	schema, err := reportJSONSchema()
	if err != nil {
		return openai.ChatCompletionNewParamsResponseFormatUnion{}, err
	}
	return openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
			JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
				Name:   "session_feedback",
				Strict: param.NewOpt(true),
				Schema: schema,
			},
			Type: constant.ValueOf[constant.JSONSchema](),
		},
	}, nil
}

// reportJSONSchema reflects the Report type into a JSON schema that conforms
// to the strict response-format rules.
func reportJSONSchema() (map[string]any, error) {
	reflector := jsonschema.Reflector{
		Anonymous:                 true,
		AllowAdditionalProperties: false,
		ExpandedStruct:            true,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(Report{})

	b, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("feedback: error marshaling report schema: %w", err)
	}
	var m map[string]any
	if err = json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("feedback: error unmarshaling report schema: %w", err)
	}
	delete(m, "$schema")
	ensureStrictSchema(m)
	return m, nil
}

// ensureStrictSchema makes every object in the schema declare
// additionalProperties=false and require all of its properties, as the
// strict response format demands. The reflector inlines all nested types,
// so there are no $refs to resolve.
func ensureStrictSchema(schema map[string]any) {
	if typ, _ := schema["type"].(string); typ == "object" {
		if _, ok := schema["additionalProperties"]; !ok {
			schema["additionalProperties"] = false
		}
	}
	if properties, ok := schema["properties"].(map[string]any); ok {
		schema["required"] = slices.Sorted(maps.Keys(properties))
		for _, propSchema := range properties {
			if m, ok := propSchema.(map[string]any); ok {
				ensureStrictSchema(m)
			}
		}
	}
	if items, ok := schema["items"].(map[string]any); ok {
		ensureStrictSchema(items)
	}
	for _, defKey := range []string{"$defs", "definitions"} {
		if defs, ok := schema[defKey].(map[string]any); ok {
			for _, defSchema := range defs {
				if m, ok := defSchema.(map[string]any); ok {
					ensureStrictSchema(m)
				}
			}
		}
	}
}
