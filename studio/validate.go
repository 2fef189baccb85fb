package studio

import (
	stderrors "errors"
	"slices"

	"github.com/kbukum/pipestudio/graph"
	"github.com/kbukum/pipestudio/validation"
)

// MessageType classifies a validation message.
type MessageType string

const (
	MessageSuccess           MessageType = "success"
	MessageMissingName       MessageType = "MISSING-NAME"
	MessageInvalidName       MessageType = "INVALID-NAME"
	MessageNoStages          MessageType = "NO-STAGES"
	MessageInvalidConnection MessageType = "INVALID-CONNECTION"
	MessageCycle             MessageType = "CYCLE"
)

// Message is one validation finding.
type Message struct {
	Type    MessageType `json:"type"`
	Content string      `json:"content"`
}

// ValidatePipeline returns the problems of p, none when it is valid.
func ValidatePipeline(p graph.Pipeline) []Message {
	msgs := nameMessages(p.Name)
	if len(p.Config.Stages) == 0 {
		msgs = append(msgs, Message{MessageNoStages, "Pipeline must contain at least one stage."})
		return msgs
	}
	if _, err := graph.Levels(&p.Config); err != nil {
		switch {
		case stderrors.Is(err, graph.ErrCycle):
			msgs = append(msgs, Message{MessageCycle, "Pipeline connections form a cycle."})
		default:
			msgs = append(msgs, Message{MessageInvalidConnection, err.Error()})
		}
	}
	return msgs
}

func nameMessages(name string) []Message {
	switch {
	case name == "":
		return []Message{{MessageMissingName, "Pipeline name is missing."}}
	case !validation.PipelineName(name):
		return []Message{{MessageInvalidName, "Pipeline name can only contain alphanumerics, '-' or '_'."}}
	default:
		return nil
	}
}

// hasNameError reports a MISSING-NAME or INVALID-NAME message.
func hasNameError(msgs []Message) bool {
	return slices.ContainsFunc(msgs, func(m Message) bool {
		return m.Type == MessageMissingName || m.Type == MessageInvalidName
	})
}

func successMessage(name string) Message {
	return Message{MessageSuccess, "Validation success! Pipeline " + name + " is valid."}
}
