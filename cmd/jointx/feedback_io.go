// Copyright 2026 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2026 Charles University, Faculty of Arts,
//                Department of Linguistics
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/czcorpus/jointextract/joint"
)

// wireEntry is the JSON shape of a single Feedback entry read from a
// feedback file: a "kind" discriminator plus the fields relevant to it,
// following spec.md §3's tagged-variant entries directly rather than the
// legacy {entities, records, sub_entities} shape.
type wireEntry struct {
	Kind string `json:"kind"`

	StartLine int `json:"startLine"`
	EndLine   int `json:"endLine"`

	FileStart  int    `json:"fileStart"`
	FileEnd    int    `json:"fileEnd"`
	EntityType string `json:"entityType"`

	Action     string  `json:"action"`
	Line       int     `json:"line"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	FieldType  string  `json:"fieldType"`
	Confidence float64 `json:"confidence"`
	HasConf    bool    `json:"hasConfidence"`
}

type wireFeedback struct {
	Entries []wireEntry `json:"entries"`
}

// loadFeedback reads a feedback JSON file and converts it to a
// joint.Feedback. An empty path yields an empty Feedback, not an error,
// so train can be run without a feedback file.
func loadFeedback(path string) (joint.Feedback, error) {
	if path == "" {
		return joint.Feedback{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return joint.Feedback{}, fmt.Errorf("failed to read feedback file: %w", err)
	}
	var wire wireFeedback
	if err := json.Unmarshal(raw, &wire); err != nil {
		return joint.Feedback{}, fmt.Errorf("failed to parse feedback file: %w", err)
	}

	fb := joint.Feedback{Entries: make([]joint.FeedbackEntry, 0, len(wire.Entries))}
	for i, e := range wire.Entries {
		entry, err := toFeedbackEntry(e)
		if err != nil {
			return joint.Feedback{}, fmt.Errorf("feedback entry %d: %w", i, err)
		}
		fb.Entries = append(fb.Entries, entry)
	}
	return fb, nil
}

func toFeedbackEntry(e wireEntry) (joint.FeedbackEntry, error) {
	switch e.Kind {
	case "record":
		return joint.NewRecordFeedback(e.StartLine, e.EndLine), nil
	case "sub_entity":
		return joint.NewSubEntityFeedback(e.FileStart, e.FileEnd, e.EntityType), nil
	case "field":
		action, err := parseFieldAction(e.Action)
		if err != nil {
			return joint.FeedbackEntry{}, err
		}
		if e.HasConf {
			return joint.NewFieldFeedbackWithConfidence(action, e.Line, e.Start, e.End, e.FieldType, e.Confidence), nil
		}
		return joint.NewFieldFeedback(action, e.Line, e.Start, e.End, e.FieldType), nil
	default:
		return joint.FeedbackEntry{}, fmt.Errorf("unknown feedback kind %q", e.Kind)
	}
}

func parseFieldAction(s string) (joint.FieldAction, error) {
	switch s {
	case "add":
		return joint.FieldAdd, nil
	case "remove":
		return joint.FieldRemove, nil
	default:
		return 0, fmt.Errorf("unknown field action %q", s)
	}
}
