package pipeline

import (
	"context"
	"strings"
	"sync"
	"testing"

	"go.uber.org/goleak"

	"github.com/salwks/sdsmcp/internal/llm"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type call struct {
	task   llm.TaskType
	prompt string
}

// fakeInvoker answers by task type and records every call.
type fakeInvoker struct {
	mu      sync.Mutex
	calls   []call
	respond func(task llm.TaskType, prompt string) (string, error)
}

func (f *fakeInvoker) Invoke(_ context.Context, task llm.TaskType, prompt string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{task, prompt})
	f.mu.Unlock()
	return f.respond(task, prompt)
}

func (f *fakeInvoker) count(task llm.TaskType) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.task == task {
			n++
		}
	}
	return n
}

// moduleFromPrompt pulls the module name out of a detail prompt.
func moduleFromPrompt(prompt string) string {
	for _, line := range strings.Split(prompt, "\n") {
		for _, prefix := range []string{"Module: ", "모듈: "} {
			if strings.HasPrefix(line, prefix) {
				rest := strings.TrimPrefix(line, prefix)
				if i := strings.Index(rest, " ("); i >= 0 {
					return rest[:i]
				}
				return rest
			}
		}
	}
	return ""
}
