package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/salwks/sdsmcp/internal/apperr"
	"github.com/salwks/sdsmcp/internal/llm"
	"github.com/salwks/sdsmcp/internal/specdoc"
)

func TestDiscoverParsesAndDedupes(t *testing.T) {
	inv := &fakeInvoker{respond: func(task llm.TaskType, prompt string) (string, error) {
		require.Equal(t, llm.TaskModuleGeneration, task)
		require.Contains(t, prompt, "exactly 4 implementation modules")
		return "Here you go:\n```json\n" + `[
			{"name": "Auth", "description": "login"},
			"Tasks",
			{"name": " auth ", "description": "duplicate"},
			{"name": ""},
			{"module": "Tags"}
		]` + "\n```", nil
	}}

	refs, err := NewDiscoverer(inv, nil).Discover(context.Background(), "A simple todo app", 4, specdoc.ComplexitySimple)
	require.NoError(t, err)
	require.Equal(t, []ModuleRef{
		{Name: "Auth", Description: "login"},
		{Name: "Tasks"},
		{Name: "Tags"},
	}, refs)
}

func TestDiscoverKeepsAtMostCount(t *testing.T) {
	inv := &fakeInvoker{respond: func(llm.TaskType, string) (string, error) {
		return `["Auth", "Tasks", "Tags", "Sync", "Search", "Export"]`, nil
	}}

	refs, err := NewDiscoverer(inv, nil).Discover(context.Background(), "A simple todo app", 4, specdoc.ComplexitySimple)
	require.NoError(t, err)
	require.Equal(t, []ModuleRef{{Name: "Auth"}, {Name: "Tasks"}, {Name: "Tags"}, {Name: "Sync"}}, refs)
}

func TestDiscoverUsesKoreanPrompt(t *testing.T) {
	inv := &fakeInvoker{respond: func(_ llm.TaskType, prompt string) (string, error) {
		require.Contains(t, prompt, "모듈을 정확히 5개")
		return `["인증", "게시판"]`, nil
	}}
	refs, err := NewDiscoverer(inv, nil).Discover(context.Background(), "게시판 서비스", 5, specdoc.ComplexitySimple)
	require.NoError(t, err)
	require.Len(t, refs, 2)
}

func TestDiscoverFailuresKeepKind(t *testing.T) {
	cases := map[string]struct {
		respond func(llm.TaskType, string) (string, error)
		kind    apperr.Kind
	}{
		"invoke": {
			respond: func(llm.TaskType, string) (string, error) {
				return "", apperr.AIProvider("openai", apperr.Network("send", errors.New("down")))
			},
			kind: apperr.KindAIProvider,
		},
		"parse": {
			respond: func(llm.TaskType, string) (string, error) { return "I cannot help with that.", nil },
			kind:    apperr.KindParsing,
		},
		"object instead of array": {
			respond: func(llm.TaskType, string) (string, error) { return `{"modules": "Auth"}`, nil },
			kind:    apperr.KindParsing,
		},
		"empty": {
			respond: func(llm.TaskType, string) (string, error) { return `[]`, nil },
			kind:    apperr.KindValidation,
		},
	}
	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			_, err := NewDiscoverer(&fakeInvoker{respond: tc.respond}, nil).
				Discover(context.Background(), "x", 4, specdoc.ComplexitySimple)
			require.Error(t, err)
			require.Equal(t, tc.kind, apperr.KindOf(err))
			require.Contains(t, err.Error(), "module structure generation failed")
		})
	}
}
