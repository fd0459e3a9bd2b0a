package mcp

// Tool names.
const (
	ToolAnalyze       = "analyze_project_request"
	ToolRefine        = "refine_specification"
	ToolExport        = "export_specification"
	ToolSelectStack   = "select_tech_stack"
	ToolSelectModules = "select_modules"
)

// Tools returns the static tool catalog in display order.
func Tools() []ToolInfo {
	sessionID := Property{Type: "string", Description: "Session id returned by analyze_project_request"}
	return []ToolInfo{
		{
			Name:        ToolAnalyze,
			Description: "Analyze a free-text project description (Korean or English) and generate a module-level specification. Creates a session.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"project_description": {Type: "string", Description: "What the project should do"},
					"platform":            {Type: "string", Description: "Target platform", Enum: []string{"auto", "web", "mobile"}},
					"complexity":          {Type: "string", Description: "Project size; auto infers it from the description", Enum: []string{"auto", "simple", "medium", "complex"}},
					"advanced_features":   {Type: "boolean", Description: "Add system requirements such as CI and access control"},
				},
				Required: []string{"project_description"},
			},
		},
		{
			Name:        ToolRefine,
			Description: "Apply a change request to a session's specification. The previous version is kept if the model reply is unusable.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"session_id":         sessionID,
					"refinement_request": {Type: "string", Description: "Requested change, e.g. \"add a wishlist module\""},
				},
				Required: []string{"session_id", "refinement_request"},
			},
		},
		{
			Name:        ToolExport,
			Description: "Write the session's specification to files and return their paths with a preview.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"session_id": sessionID,
					"format":     {Type: "string", Description: "Document to write", Enum: []string{"markdown", "json", "openapi", "schema", "all"}},
				},
				Required: []string{"session_id"},
			},
		},
		{
			Name:        ToolSelectStack,
			Description: "List the tech stacks for the session's platform, or switch to the named one.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"session_id": sessionID,
					"stack_name": {Type: "string", Description: "Catalog name; omit to list options"},
				},
				Required: []string{"session_id"},
			},
		},
		{
			Name:        ToolSelectModules,
			Description: "Keep only the named modules in the session's specification.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"session_id":       sessionID,
					"selected_modules": {Type: "array", Description: "Module names to keep", Items: &Property{Type: "string"}},
				},
				Required: []string{"session_id", "selected_modules"},
			},
		},
	}
}
