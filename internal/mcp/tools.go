package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/salwks/sdsmcp/internal/apperr"
	"github.com/salwks/sdsmcp/internal/pipeline"
	"github.com/salwks/sdsmcp/internal/render"
	"github.com/salwks/sdsmcp/internal/session"
	"github.com/salwks/sdsmcp/internal/specdoc"
)

const previewLimit = 1500

func decodeArgs(tool string, raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return apperr.Validation(tool, "arguments", "%v", err)
	}
	return nil
}

func required(tool, field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperr.Validation(tool, field, "is required")
	}
	return nil
}

func (s *Server) handleAnalyze(ctx context.Context, raw json.RawMessage) (string, error) {
	var args struct {
		Description      string `json:"project_description"`
		Platform         string `json:"platform"`
		Complexity       string `json:"complexity"`
		AdvancedFeatures bool   `json:"advanced_features"`
	}
	if err := decodeArgs(ToolAnalyze, raw, &args); err != nil {
		return "", err
	}
	if err := required(ToolAnalyze, "project_description", args.Description); err != nil {
		return "", err
	}
	platform, err := specdoc.ParsePlatform(args.Platform)
	if err != nil {
		return "", err
	}
	complexity, err := specdoc.ParseComplexity(args.Complexity)
	if err != nil {
		return "", err
	}

	res, err := s.pipeline.Analyze(ctx, pipeline.AnalyzeRequest{
		Description:      args.Description,
		Platform:         platform,
		Complexity:       complexity,
		AdvancedFeatures: args.AdvancedFeatures,
	})
	if err != nil {
		return "", err
	}

	id := s.sessions.Create(res.Spec, session.Metadata{
		Platform:         res.Platform,
		Complexity:       res.Complexity,
		AdvancedFeatures: args.AdvancedFeatures,
	})

	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\n", id)
	fmt.Fprintf(&b, "Platform: %s | Complexity: %s | Modules: %d | Functions: %d\n",
		res.Platform, res.Complexity, len(res.Spec.Modules), res.Spec.FunctionCount())
	if len(res.Spec.DegradedModules) > 0 {
		fmt.Fprintf(&b, "Degraded modules (no functions generated): %s\n", strings.Join(res.Spec.DegradedModules, ", "))
	}
	b.WriteString("\n")
	b.WriteString(render.Summary(res.Spec))
	return b.String(), nil
}

func (s *Server) lookup(tool, id string) (session.Session, error) {
	if err := required(tool, "session_id", id); err != nil {
		return session.Session{}, err
	}
	sess, ok := s.sessions.Get(id)
	if !ok {
		return session.Session{}, apperr.Validation(tool, "session_id", "session %q not found or expired", id)
	}
	return sess, nil
}

func (s *Server) handleRefine(ctx context.Context, raw json.RawMessage) (string, error) {
	var args struct {
		SessionID string `json:"session_id"`
		Request   string `json:"refinement_request"`
	}
	if err := decodeArgs(ToolRefine, raw, &args); err != nil {
		return "", err
	}
	if err := required(ToolRefine, "refinement_request", args.Request); err != nil {
		return "", err
	}
	sess, err := s.lookup(ToolRefine, args.SessionID)
	if err != nil {
		return "", err
	}

	next, err := s.pipeline.Refine(ctx, sess.Spec, args.Request)
	if err != nil {
		return "", err
	}
	if err := s.sessions.Update(sess.ID, next); err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Session %s refined: %d -> %d modules\n\n", sess.ID, len(sess.Spec.Modules), len(next.Modules))
	b.WriteString(render.Summary(next))
	return b.String(), nil
}

func (s *Server) handleExport(_ context.Context, raw json.RawMessage) (string, error) {
	var args struct {
		SessionID string `json:"session_id"`
		Format    string `json:"format"`
	}
	if err := decodeArgs(ToolExport, raw, &args); err != nil {
		return "", err
	}
	formats, err := render.ParseFormat(args.Format)
	if err != nil {
		return "", err
	}
	sess, err := s.lookup(ToolExport, args.SessionID)
	if err != nil {
		return "", err
	}

	now := s.now()
	paths, err := render.ExportSession(s.outputDir, sess.Spec, formats, sess.ID, now)
	if err != nil {
		return "", err
	}
	preview, err := render.Document(sess.Spec, formats[0], sess.ID, now)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Exported %d file(s):\n", len(paths))
	for _, p := range paths {
		fmt.Fprintf(&b, "- %s\n", p)
	}
	fmt.Fprintf(&b, "\nPreview (%s):\n", formats[0])
	b.WriteString(truncate(string(preview), previewLimit))
	return b.String(), nil
}

func (s *Server) handleSelectStack(_ context.Context, raw json.RawMessage) (string, error) {
	var args struct {
		SessionID string `json:"session_id"`
		StackName string `json:"stack_name"`
	}
	if err := decodeArgs(ToolSelectStack, raw, &args); err != nil {
		return "", err
	}
	sess, err := s.lookup(ToolSelectStack, args.SessionID)
	if err != nil {
		return "", err
	}
	platform := sess.Metadata.Platform

	if strings.TrimSpace(args.StackName) == "" {
		var b strings.Builder
		fmt.Fprintf(&b, "Tech stacks for %s (current: %s):\n", platform, sess.Spec.TechStack.Name)
		for _, st := range specdoc.Stacks(platform) {
			fmt.Fprintf(&b, "- %s\n", st.Summary())
		}
		return b.String(), nil
	}

	updated, err := s.sessions.Mutate(sess.ID, func(cur session.Session) (*specdoc.Specification, error) {
		stack, err := specdoc.LookupStack(cur.Metadata.Platform, args.StackName)
		if err != nil {
			return nil, err
		}
		next := cur.Spec.Clone()
		next.TechStack = stack
		return next, nil
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Session %s now uses %s\n", updated.ID, updated.Spec.TechStack.Summary()), nil
}

func (s *Server) handleSelectModules(_ context.Context, raw json.RawMessage) (string, error) {
	var args struct {
		SessionID string   `json:"session_id"`
		Selected  []string `json:"selected_modules"`
	}
	if err := decodeArgs(ToolSelectModules, raw, &args); err != nil {
		return "", err
	}
	if _, err := s.lookup(ToolSelectModules, args.SessionID); err != nil {
		return "", err
	}

	updated, err := s.sessions.Mutate(args.SessionID, func(cur session.Session) (*specdoc.Specification, error) {
		return pipeline.SelectSubset(cur.Spec, args.Selected)
	})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Session %s keeps %d module(s): %s\n\n",
		updated.ID, len(updated.Spec.Modules), strings.Join(updated.Spec.ModuleNames(), ", "))
	b.WriteString(render.Summary(updated.Spec))
	return b.String(), nil
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "\n..."
}
