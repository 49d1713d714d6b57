package agentui

import (
	"encoding/json"
	"fmt"
)

// EventType classifies lifecycle events on the workflow log stream. The
// values are the literal tags the server writes between brackets at the
// start of each event line.
type EventType string

const (
	// Workflow lifecycle events
	EventWorkflowStarted   EventType = "WorkflowStarted"
	EventWorkflowCompleted EventType = "WorkflowCompleted"
	EventWorkflowError     EventType = "WorkflowError"
	EventWorkflowCancelled EventType = "WorkflowCancelled"

	// Step lifecycle events
	EventStepStarted   EventType = "StepStarted"
	EventStepCompleted EventType = "StepCompleted"
	EventStepOutput    EventType = "StepOutput"

	// Parallel block events
	EventParallelExecutionStarted   EventType = "ParallelExecutionStarted"
	EventParallelExecutionCompleted EventType = "ParallelExecutionCompleted"

	// Loop block events
	EventLoopExecutionStarted   EventType = "LoopExecutionStarted"
	EventLoopExecutionCompleted EventType = "LoopExecutionCompleted"
	EventLoopIterationStarted   EventType = "LoopIterationStarted"
	EventLoopIterationCompleted EventType = "LoopIterationCompleted"

	// Condition block events
	EventConditionExecutionStarted   EventType = "ConditionExecutionStarted"
	EventConditionExecutionCompleted EventType = "ConditionExecutionCompleted"

	// Router block events
	EventRouterExecutionStarted   EventType = "RouterExecutionStarted"
	EventRouterExecutionCompleted EventType = "RouterExecutionCompleted"
)

var knownEventTypes = map[EventType]struct{}{
	EventWorkflowStarted:             {},
	EventWorkflowCompleted:           {},
	EventWorkflowError:               {},
	EventWorkflowCancelled:           {},
	EventStepStarted:                 {},
	EventStepCompleted:               {},
	EventStepOutput:                  {},
	EventParallelExecutionStarted:    {},
	EventParallelExecutionCompleted:  {},
	EventLoopExecutionStarted:        {},
	EventLoopExecutionCompleted:      {},
	EventLoopIterationStarted:        {},
	EventLoopIterationCompleted:      {},
	EventConditionExecutionStarted:   {},
	EventConditionExecutionCompleted: {},
	EventRouterExecutionStarted:      {},
	EventRouterExecutionCompleted:    {},
}

// Known reports whether t is one of the event tags this client understands.
func (t EventType) Known() bool {
	_, ok := knownEventTypes[t]
	return ok
}

// stepStartEvents create a step in the execution aggregate; stepEndEvents
// complete one. StepOutput only enriches.
var stepStartEvents = map[EventType]struct{}{
	EventStepStarted:               {},
	EventParallelExecutionStarted:  {},
	EventLoopExecutionStarted:      {},
	EventConditionExecutionStarted: {},
	EventRouterExecutionStarted:    {},
}

var stepEndEvents = map[EventType]struct{}{
	EventStepCompleted:               {},
	EventParallelExecutionCompleted:  {},
	EventLoopExecutionCompleted:      {},
	EventConditionExecutionCompleted: {},
	EventRouterExecutionCompleted:    {},
}

// StepIndex locates a step inside a run. On the wire it is either a bare
// number (top-level position) or a two-element array [primary, secondary]
// for steps nested inside parallel blocks.
type StepIndex struct {
	Primary   int
	Secondary *int
}

// UnmarshalJSON accepts a scalar index or a [primary, secondary] pair.
func (s *StepIndex) UnmarshalJSON(data []byte) error {
	var scalar int
	if err := json.Unmarshal(data, &scalar); err == nil {
		s.Primary = scalar
		s.Secondary = nil
		return nil
	}

	var pair []int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("step_index: expected number or array: %w", err)
	}
	if len(pair) == 0 {
		s.Primary = 0
		s.Secondary = nil
		return nil
	}
	s.Primary = pair[0]
	if len(pair) > 1 {
		secondary := pair[1]
		s.Secondary = &secondary
	} else {
		s.Secondary = nil
	}
	return nil
}

// MarshalJSON reproduces the wire shape: scalar when there is no secondary
// component, otherwise the pair.
func (s StepIndex) MarshalJSON() ([]byte, error) {
	if s.Secondary == nil {
		return json.Marshal(s.Primary)
	}
	return json.Marshal([2]int{s.Primary, *s.Secondary})
}

// Event is the decoded payload of one `[Kind] {json}` log line. Field names
// are fixed by the wire protocol and must not change.
type Event struct {
	Kind              EventType  `json:"event,omitempty"`
	CreatedAt         int64      `json:"created_at,omitempty"`
	WorkflowID        string     `json:"workflow_id,omitempty"`
	WorkflowName      string     `json:"workflow_name,omitempty"`
	SessionID         string     `json:"session_id,omitempty"`
	RunID             string     `json:"run_id,omitempty"`
	StepID            string     `json:"step_id,omitempty"`
	StepName          string     `json:"step_name,omitempty"`
	StepIndex         *StepIndex `json:"step_index,omitempty"`
	Content           string     `json:"content,omitempty"`
	Error             string     `json:"error,omitempty"`
	ExecutorName      string     `json:"executor_name,omitempty"`
	ExecutorType      string     `json:"executor_type,omitempty"`
	StepResponse      string     `json:"step_response,omitempty"`
	ParallelStepCount int        `json:"parallel_step_count,omitempty"`
	Iteration         int        `json:"iteration,omitempty"`
}

// startsStep reports whether the event opens a step in the aggregate.
func (e *Event) startsStep() bool {
	_, ok := stepStartEvents[e.Kind]
	return ok
}

// endsStep reports whether the event completes a step in the aggregate.
func (e *Event) endsStep() bool {
	_, ok := stepEndEvents[e.Kind]
	return ok
}
