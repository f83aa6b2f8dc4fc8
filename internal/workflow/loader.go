package workflow

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ParseError represents a workflow definition parsing error with source
// location information for debugging definition files.
type ParseError struct {
	// Message is the human-readable error message
	Message string
	// Line is the line number where the error occurred (1-indexed)
	Line int
	// Workflow is the name of the workflow being parsed, if known
	Workflow string
	// Err is the underlying error, if any
	Err error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.Workflow != "" && e.Line > 0 {
		return fmt.Sprintf("parse error at line %d (workflow %s): %s", e.Line, e.Workflow, e.Message)
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error at line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

// Unwrap returns the underlying error for error wrapping support
func (e *ParseError) Unwrap() error {
	return e.Err
}

// yamlDefinitionFile is the root of a workflow definition document
type yamlDefinitionFile struct {
	Workflows []yamlWorkflowData `yaml:"workflows"`
}

// yamlWorkflowData represents a single workflow definition
type yamlWorkflowData struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Priority    int             `yaml:"priority"`
	Conditions  []string        `yaml:"conditions"`
	States      []yamlStateData `yaml:"states"`
}

// yamlStateData represents a single state definition
type yamlStateData struct {
	Name         string   `yaml:"name"`
	Requirements []string `yaml:"requirements"`
}

// LoadDefinitions reads workflow definitions from a YAML file and builds
// them into registrable workflows.
//
// Example definition:
//
//	workflows:
//	  - name: default
//	    description: catch-all workflow
//	    priority: 0
//	    conditions: []
//	    states:
//	      - name: DRAFT
//	        requirements: []
//	      - name: NEW
//	        requirements:
//	          - has description
func LoadDefinitions(path string) ([]*Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{
			Message: fmt.Sprintf("failed to read definition file: %v", err),
			Err:     err,
		}
	}
	return ParseDefinitions(data)
}

// ParseDefinitions parses workflow definitions from raw YAML bytes.
//
// Validation performed, all fatal to configuration loading:
//   - workflow names present and unique
//   - a non-empty state list per workflow
//   - state names unique within their workflow
//   - every condition and requirement string parses as a check
//   - the first state of every workflow carries no requirements, so each
//     workflow always has an accepting state for any record it accepts
func ParseDefinitions(data []byte) ([]*Workflow, error) {
	// first pass preserves node positions for error reporting
	var rootNode yaml.Node
	if err := yaml.Unmarshal(data, &rootNode); err != nil {
		return nil, &ParseError{
			Message: "invalid YAML syntax",
			Err:     err,
		}
	}

	var file yamlDefinitionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, &ParseError{
			Message: "failed to parse definition structure",
			Err:     err,
		}
	}

	if len(file.Workflows) == 0 {
		return nil, &ParseError{
			Message: "definition file must contain at least one workflow",
		}
	}

	names := make(map[string]bool)
	workflows := make([]*Workflow, 0, len(file.Workflows))
	for i, wfData := range file.Workflows {
		line := getWorkflowLine(&rootNode, i)

		if wfData.Name == "" {
			return nil, &ParseError{
				Message: "workflow 'name' field is required",
				Line:    line,
			}
		}
		if names[wfData.Name] {
			return nil, &ParseError{
				Message:  fmt.Sprintf("duplicate workflow name: %s", wfData.Name),
				Line:     line,
				Workflow: wfData.Name,
			}
		}
		names[wfData.Name] = true

		w, err := buildWorkflow(&wfData)
		if err != nil {
			return nil, &ParseError{
				Message:  err.Error(),
				Line:     line,
				Workflow: wfData.Name,
				Err:      err,
			}
		}
		workflows = append(workflows, w)
	}

	return workflows, nil
}

// buildWorkflow converts a parsed definition into a Workflow
func buildWorkflow(wfData *yamlWorkflowData) (*Workflow, error) {
	if len(wfData.States) == 0 {
		return nil, NewInvalidDefinitionError("workflow must define at least one state", nil)
	}
	if len(wfData.States[0].Requirements) > 0 {
		return nil, NewInvalidDefinitionError(
			fmt.Sprintf("first state %q must carry no requirements", wfData.States[0].Name), nil)
	}

	states := make([]State, 0, len(wfData.States))
	stateNames := make(map[string]bool)
	for _, stateData := range wfData.States {
		if stateData.Name == "" {
			return nil, NewInvalidDefinitionError("state 'name' field is required", nil)
		}
		if stateNames[stateData.Name] {
			return nil, NewInvalidDefinitionError(
				fmt.Sprintf("duplicate state name: %s", stateData.Name), nil)
		}
		stateNames[stateData.Name] = true

		state, err := NewState(stateData.Name, stateData.Requirements)
		if err != nil {
			return nil, err
		}
		states = append(states, state)
	}

	return NewWorkflow(wfData.Name, wfData.Description, wfData.Priority, wfData.Conditions, states)
}

// getWorkflowLine attempts to find the line number of a workflow in the
// workflows array
func getWorkflowLine(rootNode *yaml.Node, index int) int {
	if rootNode == nil || rootNode.Kind != yaml.DocumentNode || len(rootNode.Content) == 0 {
		return 0
	}

	mappingNode := rootNode.Content[0]
	if mappingNode.Kind != yaml.MappingNode {
		return 0
	}

	for i := 0; i < len(mappingNode.Content)-1; i += 2 {
		key := mappingNode.Content[i]
		value := mappingNode.Content[i+1]
		if key.Value == "workflows" && value.Kind == yaml.SequenceNode {
			if index < len(value.Content) {
				return value.Content[index].Line
			}
		}
	}
	return 0
}
