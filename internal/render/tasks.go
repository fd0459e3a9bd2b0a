package render

import (
	"encoding/json"
	"fmt"

	"github.com/salwks/sdsmcp/internal/specdoc"
)

// Task is one implementation work item.
type Task struct {
	ID          string   `json:"id"`
	Module      string   `json:"module"`
	Function    string   `json:"function,omitempty"`
	Description string   `json:"description"`
	TestCases   []string `json:"testCases,omitempty"`
	Status      string   `json:"status"`
	Blocked     bool     `json:"blocked,omitempty"`
}

// TaskList is the JSON task document.
type TaskList struct {
	Title string `json:"title"`
	Stack string `json:"techStack"`
	Tasks []Task `json:"tasks"`
}

// Tasks builds one task per function; a module without functions gets one
// blocked placeholder task.
func Tasks(spec *specdoc.Specification) TaskList {
	out := TaskList{Title: spec.Title, Stack: spec.TechStack.Name, Tasks: []Task{}}
	n := 0
	next := func() string {
		n++
		return fmt.Sprintf("T-%03d", n)
	}
	for _, m := range spec.Modules {
		if len(m.Functions) == 0 {
			out.Tasks = append(out.Tasks, Task{
				ID:          next(),
				Module:      m.Name,
				Description: "Design the functions of " + m.Name,
				Status:      "todo",
				Blocked:     true,
			})
			continue
		}
		for _, f := range m.Functions {
			out.Tasks = append(out.Tasks, Task{
				ID:          next(),
				Module:      m.Name,
				Function:    f.Name,
				Description: f.Description,
				TestCases:   f.TestCases,
				Status:      "todo",
			})
		}
	}
	return out
}

// TasksJSON renders Tasks as indented JSON.
func TasksJSON(spec *specdoc.Specification) ([]byte, error) {
	data, err := json.MarshalIndent(Tasks(spec), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render: encode tasks: %w", err)
	}
	return append(data, '\n'), nil
}
