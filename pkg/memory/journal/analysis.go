package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/taleweave/taleweave/pkg/memory/model"
)

// analysis is the structured result of one journal extraction, either
// parsed from model JSON or assembled heuristically. Importance stays
// on the raw 1-10 scale until the builder normalizes it.
type analysis struct {
	Summary             string
	Emotions            model.Emotions
	Decisions           []string
	Topics              []string
	ConversationDrivers []string
	Participants        []string
	PlotElements        []string
	Importance          float64
	RelationshipDelta   float64
}

// parseAnalysis validates and decodes a repaired JSON span. Required
// keys must be present with the right shapes; optional keys default to
// empty.
func parseAnalysis(text string) (*analysis, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, err
	}

	summary, _ := raw["summary"].(string)
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return nil, errors.New("missing or empty summary")
	}
	emotionsObj, ok := raw["emotions"].(map[string]any)
	if !ok {
		return nil, errors.New("emotions is not an object")
	}
	decisions, err := stringList(raw, "decisions", true)
	if err != nil {
		return nil, err
	}
	topics, err := stringList(raw, "topics", true)
	if err != nil {
		return nil, err
	}
	importance, ok := raw["importance"].(float64)
	if !ok {
		return nil, errors.New("importance is not numeric")
	}
	delta, ok := raw["relationshipDelta"].(float64)
	if !ok {
		return nil, errors.New("relationshipDelta is not numeric")
	}

	drivers, _ := stringList(raw, "conversationDrivers", false)
	participants, _ := stringList(raw, "participants", false)
	plot, _ := stringList(raw, "plotElements", false)

	return &analysis{
		Summary: summary,
		Emotions: model.Emotions{
			Positive: numberField(emotionsObj, "positive"),
			Negative: numberField(emotionsObj, "negative"),
			Neutral:  numberField(emotionsObj, "neutral"),
		},
		Decisions:           decisions,
		Topics:              topics,
		ConversationDrivers: drivers,
		Participants:        participants,
		PlotElements:        plot,
		Importance:          importance,
		RelationshipDelta:   delta,
	}, nil
}

func stringList(raw map[string]any, key string, required bool) ([]string, error) {
	val, present := raw[key]
	if !present {
		if required {
			return nil, fmt.Errorf("missing %s", key)
		}
		return nil, nil
	}
	items, ok := val.([]any)
	if !ok {
		if required {
			return nil, fmt.Errorf("%s is not an array", key)
		}
		return nil, nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out, nil
}

func numberField(obj map[string]any, key string) float64 {
	n, _ := obj[key].(float64)
	return n
}
