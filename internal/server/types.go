package server

import "github.com/josephgoksu/weekplan/internal/task"

// CreateTaskRequest is the payload for POST /api/tasks
type CreateTaskRequest struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	Priority         string `json:"priority"`
	EstimatedMinutes int    `json:"estimatedMinutes"`
	Deadline         string `json:"deadline"`
}

func (r CreateTaskRequest) input() task.NewTaskInput {
	return task.NewTaskInput{
		Title:            r.Title,
		Description:      r.Description,
		Priority:         r.Priority,
		EstimatedMinutes: r.EstimatedMinutes,
		Deadline:         r.Deadline,
	}
}

// UpdateTaskRequest is the payload for PATCH and PUT /api/tasks/{id}. Absent fields
// are left unchanged; an empty deadline clears it.
type UpdateTaskRequest struct {
	Title            *string `json:"title"`
	Description      *string `json:"description"`
	Priority         *string `json:"priority"`
	EstimatedMinutes *int    `json:"estimatedMinutes"`
	Deadline         *string `json:"deadline"`
}

func (r UpdateTaskRequest) patch() task.Patch {
	return task.Patch{
		Title:            r.Title,
		Description:      r.Description,
		Priority:         r.Priority,
		EstimatedMinutes: r.EstimatedMinutes,
		Deadline:         r.Deadline,
	}
}

// TaskView is a task with its urgency at response time.
type TaskView struct {
	task.Task
	Urgency task.Urgency `json:"urgency"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Retryable bool   `json:"retryable,omitempty"`
}
