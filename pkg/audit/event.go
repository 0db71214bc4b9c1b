// Package audit records property changes pushed to devices.
package audit

import (
	"fmt"
	"time"
)

// Event is one get, set or apply of a feature property on a device.
type Event struct {
	ID          string            `json:"id"`
	Timestamp   time.Time         `json:"timestamp"`
	User        string            `json:"user"`
	Device      string            `json:"device"`
	Platform    string            `json:"platform,omitempty"`
	Operation   EventType         `json:"operation"`
	Feature     string            `json:"feature"`
	Property    string            `json:"property"`
	Args        map[string]string `json:"args,omitempty"`
	Commands    []string          `json:"commands,omitempty"`
	Success     bool              `json:"success"`
	Error       string            `json:"error,omitempty"`
	ExecuteMode bool              `json:"execute_mode"` // true if -x was used
	DryRun      bool              `json:"dry_run"`
	Duration    time.Duration     `json:"duration"`
}

// EventType categorizes audit events
type EventType string

const (
	EventTypeSet   EventType = "set"
	EventTypeApply EventType = "apply"
	EventTypeReset EventType = "reset"
)

// Filter defines criteria for querying audit events
type Filter struct {
	Device      string
	User        string
	Operation   EventType
	Feature     string
	Property    string
	StartTime   time.Time
	EndTime     time.Time
	SuccessOnly bool
	FailureOnly bool
	Limit       int
	Offset      int
}

// NewEvent creates a new audit event
func NewEvent(user, device string, op EventType, feature, property string) *Event {
	return &Event{
		ID:        generateID(),
		Timestamp: time.Now(),
		User:      user,
		Device:    device,
		Operation: op,
		Feature:   feature,
		Property:  property,
	}
}

// WithPlatform sets the platform identifier the rule was resolved for.
func (e *Event) WithPlatform(platform string) *Event {
	e.Platform = platform
	return e
}

// WithArgs records the template arguments, rendered as strings.
func (e *Event) WithArgs(args map[string]any) *Event {
	if len(args) == 0 {
		return e
	}
	e.Args = make(map[string]string, len(args))
	for k, v := range args {
		if v == nil {
			e.Args[k] = ""
			continue
		}
		e.Args[k] = fmt.Sprint(v)
	}
	return e
}

// WithCommands sets the synthesized command lines.
func (e *Event) WithCommands(cmds []string) *Event {
	e.Commands = cmds
	return e
}

// WithSuccess marks the event as successful
func (e *Event) WithSuccess() *Event {
	e.Success = true
	return e
}

// WithError marks the event as failed
func (e *Event) WithError(err error) *Event {
	e.Success = false
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// WithDuration sets the operation duration
func (e *Event) WithDuration(d time.Duration) *Event {
	e.Duration = d
	return e
}

// WithExecuteMode marks if execute mode was used
func (e *Event) WithExecuteMode(execute bool) *Event {
	e.ExecuteMode = execute
	e.DryRun = !execute
	return e
}

// Matches reports whether the event satisfies every criterion of f.
func (e *Event) Matches(f Filter) bool {
	switch {
	case f.Device != "" && e.Device != f.Device,
		f.User != "" && e.User != f.User,
		f.Operation != "" && e.Operation != f.Operation,
		f.Feature != "" && e.Feature != f.Feature,
		f.Property != "" && e.Property != f.Property,
		!f.StartTime.IsZero() && e.Timestamp.Before(f.StartTime),
		!f.EndTime.IsZero() && e.Timestamp.After(f.EndTime),
		f.SuccessOnly && !e.Success,
		f.FailureOnly && e.Success:
		return false
	}
	return true
}

func generateID() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}
