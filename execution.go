package agentui

import "sort"

// StepStatus is the lifecycle state of a single step.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepError     StepStatus = "error"
	StepCancelled StepStatus = "cancelled"
)

// RunStatus is the lifecycle state of a whole workflow run. Completed,
// error and cancelled are terminal; cancellation wins over a completion
// observed later in the same log.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunError     RunStatus = "error"
	RunCancelled RunStatus = "cancelled"
)

// WorkflowStep is one unit of work within a run. Created on its start
// event and mutated in place by later events; never removed within one
// execution.
type WorkflowStep struct {
	StepID       string     `json:"step_id"`
	StepName     string     `json:"step_name,omitempty"`
	StepIndex    StepIndex  `json:"step_index"`
	Status       StepStatus `json:"status"`
	StartedAt    int64      `json:"started_at"`
	CompletedAt  *int64     `json:"completed_at,omitempty"`
	Content      string     `json:"content,omitempty"`
	Error        string     `json:"error,omitempty"`
	ExecutorName string     `json:"executor_name,omitempty"`
	ExecutorType string     `json:"executor_type,omitempty"`
	Duration     *int64     `json:"duration,omitempty"`
}

// WorkflowExecution is the aggregate derived from one accumulated log.
// Timestamps and durations are epoch seconds, matching the wire protocol.
type WorkflowExecution struct {
	WorkflowID   string          `json:"workflow_id"`
	WorkflowName string          `json:"workflow_name,omitempty"`
	SessionID    string          `json:"session_id,omitempty"`
	RunID        string          `json:"run_id"`
	StartedAt    int64           `json:"started_at"`
	CompletedAt  *int64          `json:"completed_at,omitempty"`
	Status       RunStatus       `json:"status"`
	Steps        []*WorkflowStep `json:"steps"`
	Errors       []string        `json:"errors,omitempty"`
	Duration     *int64          `json:"duration,omitempty"`
}

// Step returns the step with the given id, or nil.
func (e *WorkflowExecution) Step(stepID string) *WorkflowStep {
	for _, st := range e.Steps {
		if st.StepID == stepID {
			return st
		}
	}
	return nil
}

// BuildExecution folds parsed log lines into a WorkflowExecution. It
// returns nil when the log lacks a WorkflowStarted event carrying both a
// workflow id and a run id ("not enough information yet", not an error).
//
// The fold is a single left-to-right pass. A WorkflowCancelled event locks
// the status and stops the fold: nothing after it is applied, so a later
// WorkflowCompleted can never override cancellation.
func BuildExecution(lines []LogLine) *WorkflowExecution {
	var exec *WorkflowExecution
	steps := make(map[string]*WorkflowStep)
	var order []*WorkflowStep

	for i := range lines {
		ev := lines[i].Event
		if ev == nil {
			continue
		}
		if exec != nil && exec.Status == RunCancelled {
			break
		}

		if ev.Kind == EventWorkflowStarted {
			// Only the first occurrence seeds identity.
			if exec == nil {
				exec = &WorkflowExecution{
					WorkflowID:   ev.WorkflowID,
					WorkflowName: ev.WorkflowName,
					SessionID:    ev.SessionID,
					RunID:        ev.RunID,
					StartedAt:    ev.CreatedAt,
					Status:       RunRunning,
				}
			}
			continue
		}
		if exec == nil {
			continue
		}

		switch {
		case ev.startsStep():
			if ev.StepID == "" {
				continue
			}
			if _, exists := steps[ev.StepID]; exists {
				continue
			}
			st := &WorkflowStep{
				StepID:       ev.StepID,
				StepName:     ev.StepName,
				Status:       StepRunning,
				StartedAt:    ev.CreatedAt,
				ExecutorName: ev.ExecutorName,
				ExecutorType: ev.ExecutorType,
			}
			if ev.StepIndex != nil {
				st.StepIndex = *ev.StepIndex
			}
			steps[ev.StepID] = st
			order = append(order, st)

		case ev.endsStep():
			st, exists := steps[ev.StepID]
			if !exists {
				// Completion for a step we never saw start: ignored.
				continue
			}
			if st.Status == StepError {
				// error is terminal for a step
				continue
			}
			st.Status = StepCompleted
			completedAt := ev.CreatedAt
			st.CompletedAt = &completedAt
			if content := firstNonEmpty(ev.Content, ev.StepResponse); content != "" {
				st.Content = content
			}
			if ev.ExecutorName != "" {
				st.ExecutorName = ev.ExecutorName
			}
			if ev.ExecutorType != "" {
				st.ExecutorType = ev.ExecutorType
			}
			if st.StartedAt > 0 && completedAt >= st.StartedAt {
				d := completedAt - st.StartedAt
				st.Duration = &d
			}

		case ev.Kind == EventStepOutput:
			st, exists := steps[ev.StepID]
			if !exists {
				continue
			}
			if ev.ExecutorName != "" {
				st.ExecutorName = ev.ExecutorName
			}
			if ev.ExecutorType != "" {
				st.ExecutorType = ev.ExecutorType
			}
			// A non-empty error payload demotes the step right away, even
			// without a completion event.
			if ev.Error != "" {
				st.Status = StepError
				st.Error = ev.Error
			}

		case ev.Kind == EventWorkflowError:
			if ev.Error != "" {
				exec.Errors = append(exec.Errors, ev.Error)
			}
			if exec.Status == RunRunning {
				exec.Status = RunError
			}
			for _, st := range order {
				if st.Status == StepRunning {
					st.Status = StepError
				}
			}

		case ev.Kind == EventWorkflowCompleted:
			if exec.Status != RunRunning {
				continue
			}
			exec.Status = RunCompleted
			completedAt := ev.CreatedAt
			exec.CompletedAt = &completedAt

		case ev.Kind == EventWorkflowCancelled:
			exec.Status = RunCancelled
		}
	}

	if exec == nil || exec.WorkflowID == "" || exec.RunID == "" {
		return nil
	}

	// Ascending by the primary index component; ties keep discovery order.
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].StepIndex.Primary < order[j].StepIndex.Primary
	})
	exec.Steps = order

	if exec.CompletedAt != nil && exec.StartedAt > 0 {
		d := *exec.CompletedAt - exec.StartedAt
		exec.Duration = &d
	}
	return exec
}

// ParseExecution derives the execution aggregate straight from raw log
// text. It is idempotent: identical text yields structurally equal results.
func ParseExecution(text string) *WorkflowExecution {
	return BuildExecution(ParseLogLines(text))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
