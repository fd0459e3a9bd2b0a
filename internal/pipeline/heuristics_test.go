package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/salwks/sdsmcp/internal/specdoc"
)

func TestModuleCountExplicitLevelsSkipHeuristic(t *testing.T) {
	require.Equal(t, 4, ModuleCount(specdoc.ComplexitySimple, "A simple todo app"))
	require.Equal(t, 8, ModuleCount(specdoc.ComplexityMedium, "blockchain payment analytics"))
	require.Equal(t, 12, ModuleCount(specdoc.ComplexityComplex, ""))
}

func TestInferModuleCountClampsHighScores(t *testing.T) {
	desc := "An AI-powered real-time payment analytics platform with authentication and blockchain integration"
	require.Equal(t, 15, ModuleCount(specdoc.ComplexityAuto, desc))
}

func TestInferModuleCountBounds(t *testing.T) {
	inputs := []string{
		"",
		"crud",
		"A basic simple minimal crud list",
		strings.Repeat("word ", 1200),
		strings.Repeat("distributed microservices web backend mobile authentication payment ", 300),
		"할 일 관리 앱",
	}
	for _, in := range inputs {
		n := InferModuleCount(in)
		require.GreaterOrEqual(t, n, minModules)
		require.LessOrEqual(t, n, maxModules)
	}
	require.Equal(t, minModules, InferModuleCount("A basic simple minimal crud list"))
}

func TestInferModuleCountScoring(t *testing.T) {
	// base 5, dashboard +1, search +1, short text -1
	require.Equal(t, 6, InferModuleCount("A dashboard with search"))
	// base 5, web+backend +2, distributed +3, short text -1
	require.Equal(t, 9, InferModuleCount("web frontend and backend on a distributed cluster"))
	// whole words only: "email" must not count as "ai"
	require.Equal(t, 5, InferModuleCount("Send an email digest"))
}

func TestDetectLanguage(t *testing.T) {
	require.Equal(t, LangKorean, DetectLanguage("쇼핑몰 웹사이트를 만들고 싶어요"))
	require.Equal(t, LangKorean, DetectLanguage("A todo 앱"))
	require.Equal(t, LangEnglish, DetectLanguage("A todo app"))
	require.Equal(t, LangEnglish, DetectLanguage(""))
}

func TestDetectPlatform(t *testing.T) {
	require.Equal(t, specdoc.PlatformMobile, DetectPlatform("An Android fitness tracker"))
	require.Equal(t, specdoc.PlatformMobile, DetectPlatform("A simple todo app"))
	require.Equal(t, specdoc.PlatformWeb, DetectPlatform("A web app for invoices"))
	require.Equal(t, specdoc.PlatformWeb, DetectPlatform("An inventory system"))
	require.Equal(t, specdoc.PlatformMobile, DetectPlatform("모바일 쇼핑 서비스"))
}

func TestDeriveTitle(t *testing.T) {
	require.Equal(t, "A simple todo app", deriveTitle("A simple todo app. With tags."))
	long := strings.Repeat("x", 100)
	require.Equal(t, strings.Repeat("x", maxTitleRunes)+"...", deriveTitle(long))
}
