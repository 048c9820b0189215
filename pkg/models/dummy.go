package models

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// DummyLLM is a lightweight model implementation useful for local testing
// without API calls. When scripted responses are provided they are played
// back in order; otherwise it echoes the last non-empty message.
type DummyLLM struct {
	Prefix string

	mu      sync.Mutex
	scripts []string
}

func NewDummyLLM(prefix string) *DummyLLM {
	if strings.TrimSpace(prefix) == "" {
		prefix = "Dummy response:"
	}
	return &DummyLLM{Prefix: prefix}
}

// Script enqueues canned responses.
func (d *DummyLLM) Script(responses ...string) *DummyLLM {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scripts = append(d.scripts, responses...)
	return d
}

func (d *DummyLLM) Generate(_ context.Context, messages []Message) (string, error) {
	d.mu.Lock()
	if len(d.scripts) > 0 {
		next := d.scripts[0]
		d.scripts = d.scripts[1:]
		d.mu.Unlock()
		return next, nil
	}
	d.mu.Unlock()

	var last string
	for i := len(messages) - 1; i >= 0; i-- {
		if candidate := strings.TrimSpace(messages[i].Content); candidate != "" {
			last = candidate
			break
		}
	}
	if last == "" {
		last = "<empty prompt>"
	}
	return fmt.Sprintf("%s %s", d.Prefix, last), nil
}

var _ Generator = (*DummyLLM)(nil)
