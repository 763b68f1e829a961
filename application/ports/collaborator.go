package ports

import (
	"context"

	"specmap/domain/chat"
	"specmap/domain/spec"
	"specmap/domain/template"

	"specmap/application/suggestion"
)

// CollaboratorRequest carries one conversational turn to the AI
// collaborator: the user's message plus the project context it needs to
// propose relevant edits.
type CollaboratorRequest struct {
	Title        string
	Graph        spec.Snapshot
	Requirements []template.Requirement
	History      []chat.Message
	UserMessage  string
}

// CollaboratorResponse is the collaborator's reply: prose for the
// transcript plus an optional batch of proposed edits.
type CollaboratorResponse struct {
	Message       string
	Edits         []suggestion.ProposedEdit
	Impact        suggestion.Impact
	NeedsApproval bool
}

// Collaborator is the port to the AI service. Implementations must honor
// context cancellation; a cancelled call returns ctx.Err().
type Collaborator interface {
	Respond(ctx context.Context, req CollaboratorRequest) (*CollaboratorResponse, error)
}
