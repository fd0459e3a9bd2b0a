package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/salwks/sdsmcp/internal/specdoc"
)

// buildDiscoveryPrompt asks for a flat JSON array of modules.
func buildDiscoveryPrompt(lang Language, description string, count int, complexity specdoc.Complexity) string {
	if lang == LangKorean {
		return strings.TrimSpace(fmt.Sprintf(`
당신은 소프트웨어 아키텍트입니다. 아래 프로젝트 설명을 분석하여 구현에 필요한 모듈을 정확히 %d개 도출하세요 (복잡도: %s).

프로젝트 설명:
%s

JSON 배열만 반환하세요. 각 항목은 {"name": "모듈 이름", "description": "한 문장 설명"} 형식입니다. 다른 텍스트는 포함하지 마세요.`,
			count, complexity, description))
	}
	return strings.TrimSpace(fmt.Sprintf(`
You are a software architect. Analyse the project description below and list exactly %d implementation modules (complexity: %s).

Project description:
%s

Return only a JSON array. Each item is {"name": "module name", "description": "one sentence"}. Do not include any other text.`,
		count, complexity, description))
}

// buildDetailPrompt asks for the function list of one module.
func buildDetailPrompt(lang Language, module ModuleRef, description string, stack specdoc.TechStack) string {
	if lang == LangKorean {
		return strings.TrimSpace(fmt.Sprintf(`
프로젝트: %s
기술 스택: %s
모듈: %s (%s)

이 모듈에 필요한 함수를 설계하세요. 다음 형식의 JSON 객체만 반환하세요:
{"description": "모듈 설명", "functions": [{"name": "함수 이름", "description": "목적", "parameters": ["파라미터"], "returns": "반환값", "remarks": "비고", "testCases": ["테스트 케이스"]}]}`,
			description, stack.Summary(), module.Name, module.Description))
	}
	return strings.TrimSpace(fmt.Sprintf(`
Project: %s
Tech stack: %s
Module: %s (%s)

Design the functions this module needs. Return only a JSON object of the form:
{"description": "module description", "functions": [{"name": "function name", "description": "purpose", "parameters": ["param"], "returns": "return value", "remarks": "notes", "testCases": ["test case"]}]}`,
		description, stack.Summary(), module.Name, module.Description))
}

// buildRefinePrompt embeds the instruction and the current module list.
func buildRefinePrompt(lang Language, spec *specdoc.Specification, instruction string) string {
	current, err := json.Marshal(struct {
		Title   string   `json:"title"`
		Modules []string `json:"modules"`
	}{spec.Title, spec.ModuleNames()})
	if err != nil {
		current = []byte(strings.Join(spec.ModuleNames(), ", "))
	}

	if lang == LangKorean {
		return strings.TrimSpace(fmt.Sprintf(`
현재 명세:
%s

수정 요청:
%s

요청을 반영한 전체 명세를 JSON 객체로만 반환하세요. "modules" 필드는 반드시 배열이어야 하며 각 모듈은 {"name", "description", "functions": [...]} 형식입니다. 제목이나 설명이 바뀌면 "title", "description" 필드도 포함하세요.`,
			current, instruction))
	}
	return strings.TrimSpace(fmt.Sprintf(`
Current specification:
%s

Change request:
%s

Return the full updated specification as a JSON object only. The "modules" field must be an array where each module is {"name", "description", "functions": [...]}. Include "title" and "description" when they change.`,
		current, instruction))
}
