package rotation

import (
	"fmt"
	"time"
)

// Reason classifies a failed outcome
type Reason string

const (
	// ReasonNone marks a successful outcome
	ReasonNone Reason = ""

	// ReasonUserNotFound means the existence check did not confirm the user
	ReasonUserNotFound Reason = "USER_NOT_FOUND"

	// ReasonPasswordChangeFailed means the user exists but the change was not applied
	ReasonPasswordChangeFailed Reason = "PASSWORD_CHANGE_FAILED"

	// ReasonTaskCrashed means the task panicked
	ReasonTaskCrashed Reason = "TASK_CRASHED"

	// ReasonCancelled means the task never started because the run was interrupted
	ReasonCancelled Reason = "CANCELLED"
)

// MaskedPassword replaces a password wherever an outcome is displayed
const MaskedPassword = "**********"

// Task is one (host, user) unit of rotation work
type Task struct {
	Host string
	User string
}

// String returns user@host
func (t Task) String() string {
	return fmt.Sprintf("%s@%s", t.User, t.Host)
}

// Tasks builds the cross product of hosts and users, host-major
func Tasks(hosts, users []string) []Task {
	tasks := make([]Task, 0, len(hosts)*len(users))
	for _, h := range hosts {
		for _, u := range users {
			tasks = append(tasks, Task{Host: h, User: u})
		}
	}
	return tasks
}

// Outcome is the terminal result of a Task. Exactly one is produced per task.
type Outcome struct {
	Host string
	User string

	// Password is the newly applied password; empty unless Succeeded
	Password string

	// Reason is ReasonNone on success
	Reason Reason

	// Err carries the underlying cause of a failure, if known
	Err error

	// Duration is how long the task ran
	Duration time.Duration
}

// Succeeded reports whether the password was changed
func (o Outcome) Succeeded() bool {
	return o.Reason == ReasonNone
}

// Status returns "success" or "failed"
func (o Outcome) Status() string {
	if o.Succeeded() {
		return "success"
	}
	return "failed"
}

// Summary is the tally of a stream of outcomes
type Summary struct {
	Total     int
	Succeeded int
	Failed    int

	// Crashed counts failures caused by a panicking task; included in Failed
	Crashed int
}

// Add folds one outcome into the summary
func (s *Summary) Add(o Outcome) {
	s.Total++
	switch {
	case o.Succeeded():
		s.Succeeded++
	case o.Reason == ReasonTaskCrashed:
		s.Failed++
		s.Crashed++
	default:
		s.Failed++
	}
}

// Summarize tallies a slice of outcomes
func Summarize(outcomes []Outcome) Summary {
	var s Summary
	for _, o := range outcomes {
		s.Add(o)
	}
	return s
}

// String returns a human-readable summary
func (s Summary) String() string {
	if s.Crashed > 0 {
		return fmt.Sprintf("succeeded: %d | failed: %d (crashed: %d)", s.Succeeded, s.Failed, s.Crashed)
	}
	return fmt.Sprintf("succeeded: %d | failed: %d", s.Succeeded, s.Failed)
}
