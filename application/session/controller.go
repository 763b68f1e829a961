// Package session drives the conversational editing loop: one controller
// owns a graph and its transcript, forwards turns to the AI collaborator,
// holds proposed edit batches for human approval, and keeps the whole
// thing persisted.
package session

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"specmap/application/ports"
	"specmap/application/scoring"
	"specmap/application/suggestion"
	"specmap/domain/chat"
	"specmap/domain/config"
	"specmap/domain/events"
	"specmap/domain/spec"
	"specmap/domain/template"
	"specmap/pkg/errors"
)

// State is the controller's lifecycle phase.
type State string

const (
	StateNoSession            State = "no_session"
	StateAwaitingFirstMessage State = "awaiting_first_message"
	StateActive               State = "active"
	StateStreaming            State = "streaming"
	StateAwaitingApproval     State = "awaiting_approval"
)

// Canned transcript strings.
const (
	WelcomeMessage = "👋 Hi! I'm your AI specification assistant. I can help you build out your mind map, suggest components, and answer questions about your project.\n\nWhat would you like to work on?"

	FallbackMessage = "Sorry, I encountered an error. Please try again."

	ResumeNudge = "💭 We've had quite a conversation! Would you like me to summarize what we've discussed so far, or shall we continue?"
)

const previewLength = 120

// Deps bundles the collaborators a controller needs.
type Deps struct {
	Config    *config.DomainConfig
	Logger    *zap.Logger
	Store     ports.SessionStore
	Collab    ports.Collaborator
	Publisher ports.EventPublisher
	Metrics   ports.MetricsRecorder
	Catalog   *template.Catalog
	Scorer    *scoring.Engine
	Suggester *suggestion.Engine
}

func (d *Deps) fillDefaults() {
	if d.Config == nil {
		d.Config = config.DefaultDomainConfig()
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Scorer == nil {
		d.Scorer = scoring.NewEngine(d.Config)
	}
	if d.Suggester == nil {
		d.Suggester = suggestion.NewEngine(d.Logger)
	}
}

// TurnResult reports what one conversational turn produced.
type TurnResult struct {
	Reply              string                    `json:"reply"`
	Edits              []suggestion.ProposedEdit `json:"suggestions,omitempty"`
	Impact             suggestion.Impact         `json:"impact"`
	NeedsApproval      bool                      `json:"needsApproval"`
	CollaboratorFailed bool                      `json:"collaboratorFailed,omitempty"`
	PersistFailed      bool                      `json:"persistFailed,omitempty"`
}

// Controller owns one editing session. All methods are safe for
// concurrent use; sends are serialized so at most one collaborator call
// is in flight.
type Controller struct {
	deps Deps

	mu         sync.Mutex
	state      State
	sessionID  string
	title      string
	folderID   string
	templateID string
	graph      *spec.Graph
	messages   []chat.Message
	nudge      *chat.Message
	pending    []suggestion.ProposedEdit
	impact     suggestion.Impact
	version    int64
	createdAt  time.Time
	persisted  bool
	nudgeShown bool
	saveTimer  *time.Timer
}

// NewController creates a controller with no session.
func NewController(deps Deps) *Controller {
	deps.fillDefaults()
	return &Controller{deps: deps, state: StateNoSession}
}

// StartNew begins a fresh session from a template. Nothing is persisted
// until the first message is sent.
func (c *Controller) StartNew(templateID, title, folderID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateStreaming {
		return errors.NewValidationError("a response is in progress")
	}

	if strings.TrimSpace(title) == "" {
		title = c.deps.Config.DefaultGraphTitle
	}
	id := uuid.NewString()

	var g *spec.Graph
	if tpl := c.lookupTemplate(templateID); tpl != nil {
		g = tpl.Instantiate(id, title)
	} else {
		templateID = template.BlankID
		g = spec.NewGraph(id, title)
	}

	c.state = StateAwaitingFirstMessage
	c.sessionID = id
	c.title = title
	c.folderID = folderID
	c.templateID = templateID
	c.graph = g
	c.messages = []chat.Message{chat.NewWelcomeMessage(WelcomeMessage)}
	c.nudge = nil
	c.pending = nil
	c.version = 0
	c.createdAt = time.Now()
	c.persisted = false
	c.nudgeShown = false

	c.deps.Logger.Info("started session",
		zap.String("session_id", id),
		zap.String("template", templateID),
	)
	return nil
}

func (c *Controller) lookupTemplate(id string) *template.Template {
	if c.deps.Catalog == nil || id == "" {
		return nil
	}
	return c.deps.Catalog.Get(id)
}

// Load resumes a persisted session. Long transcripts get a one-time nudge
// offering a summary; the nudge is display-only and never persisted.
func (c *Controller) Load(ctx context.Context, sessionID string) error {
	rec, err := c.deps.Store.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = StateActive
	c.sessionID = rec.ID
	c.title = rec.Title
	c.folderID = rec.FolderID
	c.templateID = rec.TemplateID
	c.graph = spec.ReconstructGraph(rec.ID, rec.Title, rec.Graph.Version, rec.Graph.Nodes, rec.Graph.Edges)
	c.messages = append([]chat.Message(nil), rec.Messages...)
	c.nudge = nil
	c.pending = nil
	c.version = rec.Version
	c.createdAt = rec.CreatedAt
	c.persisted = true
	c.nudgeShown = false

	if len(c.messages) >= c.deps.Config.ResumeNudgeAt && !c.nudgeShown {
		n := chat.NewAssistantMessage(ResumeNudge)
		c.nudge = &n
		c.nudgeShown = true
	}

	c.deps.Logger.Info("loaded session",
		zap.String("session_id", rec.ID),
		zap.Int("messages", len(rec.Messages)),
		zap.Int64("version", rec.Version),
	)
	return nil
}

// SendMessage runs one conversational turn: persist the user's message,
// ask the collaborator, reveal the reply through onToken, and hold any
// proposed edits for approval. A send while a previous turn is streaming
// is rejected; a send while a batch awaits approval quietly discards the
// batch first.
//
// Collaborator and persistence failures are absorbed into the transcript;
// SendMessage only returns an error for invalid input or state.
func (c *Controller) SendMessage(ctx context.Context, text string, onToken func(string)) (*TurnResult, error) {
	text = strings.TrimSpace(text)

	c.mu.Lock()
	switch {
	case text == "":
		c.mu.Unlock()
		return nil, errors.NewValidationError("message is empty")
	case len(text) > c.deps.Config.MaxMessageLength:
		c.mu.Unlock()
		return nil, errors.NewValidationError("message is too long")
	case c.state == StateNoSession:
		c.mu.Unlock()
		return nil, errors.NewValidationError("no active session")
	case c.state == StateStreaming:
		c.mu.Unlock()
		return nil, errors.NewValidationError("a response is in progress")
	}
	if c.state == StateAwaitingApproval {
		// A new message supersedes the pending batch.
		c.pending = nil
	}

	c.messages = append(c.messages, chat.NewUserMessage(text))

	result := &TurnResult{Impact: suggestion.ImpactMinor}

	if !c.persisted {
		if err := c.createRecord(ctx); err != nil {
			c.deps.Logger.Error("session create failed", zap.Error(err))
			c.recordFailure(ctx, "session.create_failed")
			c.messages = append(c.messages, chat.NewAssistantMessage(FallbackMessage))
			c.state = StateActive
			result.Reply = FallbackMessage
			result.CollaboratorFailed = true
			result.PersistFailed = true
			c.mu.Unlock()
			return result, nil
		}
		c.persisted = true
		c.publish(ctx, []events.DomainEvent{events.NewSessionCreated(c.sessionID, c.title, time.Now())})
	}

	req := ports.CollaboratorRequest{
		Title:       c.title,
		Graph:       c.graph.Snapshot(),
		History:     chat.HistoryWindow(c.messages, c.deps.Config.HistoryWindow),
		UserMessage: text,
	}
	if c.deps.Catalog != nil {
		req.Requirements = c.deps.Catalog.Requirements(c.templateID)
	}
	c.state = StateStreaming
	c.mu.Unlock()

	started := time.Now()
	resp, err := c.deps.Collab.Respond(ctx, req)
	elapsed := time.Since(started)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.deps.Metrics != nil {
		c.deps.Metrics.Duration(ctx, "collaborator.latency", elapsed, nil)
	}

	if err != nil {
		c.deps.Logger.Error("collaborator call failed", zap.Error(err))
		c.recordFailure(ctx, "collaborator.failed")
		c.messages = append(c.messages, chat.NewAssistantMessage(FallbackMessage))
		c.state = StateActive
		result.Reply = FallbackMessage
		result.CollaboratorFailed = true
		result.PersistFailed = c.persistLocked(ctx) != nil
		return result, nil
	}

	// Reveal is best-effort: cancellation stops the token stream early
	// but the full reply still lands in the transcript.
	reveal(ctx, resp.Message, onToken)

	msg := chat.NewAssistantMessage(resp.Message)
	msg.Suggestions = suggestion.MarshalEdits(resp.Edits)
	c.messages = append(c.messages, msg)

	result.Reply = resp.Message
	result.Edits = resp.Edits
	result.Impact = resp.Impact

	if len(resp.Edits) > 0 {
		// Every batch goes through a human, whatever the collaborator
		// claimed about approval.
		c.pending = resp.Edits
		c.impact = resp.Impact
		c.state = StateAwaitingApproval
		result.NeedsApproval = true
	} else {
		c.state = StateActive
	}

	result.PersistFailed = c.persistLocked(ctx) != nil
	return result, nil
}

// Approve applies the pending batch to the graph and appends a summary of
// what changed to the transcript.
func (c *Controller) Approve(ctx context.Context) (*suggestion.Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateAwaitingApproval || len(c.pending) == 0 {
		return nil, errors.NewValidationError("no suggestions awaiting approval")
	}

	out := c.deps.Suggester.Apply(c.graph, c.pending, func(title string) {
		c.title = title
		c.graph.Rename(title)
	})

	summary := "✅ Applied changes:\n\n" + out.Summary()
	if len(out.Skipped) > 0 {
		var lines []string
		for _, s := range out.Skipped {
			lines = append(lines, "• "+s.Reason)
		}
		summary += "\n\n⚠️ Skipped:\n" + strings.Join(lines, "\n")
	}
	c.messages = append(c.messages, chat.NewAssistantMessage(summary))

	evts := c.graph.UncommittedEvents()
	evts = append(evts, events.NewSuggestionBatchApplied(c.sessionID, len(out.Applied), len(out.Skipped), string(c.impact), time.Now()))
	if out.Renamed {
		evts = append(evts, events.NewGraphRenamed(c.sessionID, out.NewTitle, time.Now()))
	}
	c.publish(ctx, evts)
	c.graph.MarkEventsCommitted()

	c.pending = nil
	c.state = StateActive

	if err := c.persistLocked(ctx); err != nil {
		c.deps.Logger.Warn("persist after approval failed", zap.Error(err))
	}
	return &out, nil
}

// Reject discards the pending batch without touching the graph and
// acknowledges it in the transcript, one line per distinct edit kind.
func (c *Controller) Reject(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateAwaitingApproval || len(c.pending) == 0 {
		return errors.NewValidationError("no suggestions awaiting approval")
	}

	lines := c.deps.Suggester.Reject(c.pending)
	ack := "Got it — I've set those aside: " + strings.Join(lines, ", ") + ". Let me know what you'd like to do instead."
	c.messages = append(c.messages, chat.NewAssistantMessage(ack))

	c.publish(ctx, []events.DomainEvent{events.NewSuggestionBatchRejected(c.sessionID, len(c.pending), time.Now())})

	c.pending = nil
	c.state = StateActive

	if err := c.persistLocked(ctx); err != nil {
		c.deps.Logger.Warn("persist after rejection failed", zap.Error(err))
	}
	return nil
}

// MarkDirty schedules a debounced save. Bursts of edits within the
// debounce window collapse into one write.
func (c *Controller) MarkDirty() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.persisted {
		return
	}
	if c.saveTimer != nil {
		c.saveTimer.Stop()
	}
	c.saveTimer = time.AfterFunc(c.deps.Config.AutosaveDebounce, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if err := c.persistLocked(context.Background()); err != nil {
			c.deps.Logger.Warn("autosave failed", zap.Error(err))
		}
	})
}

// MoveNode repositions a node, e.g. after the user drags it, and
// schedules an autosave.
func (c *Controller) MoveNode(id string, pos spec.Position) error {
	c.mu.Lock()
	if c.graph == nil {
		c.mu.Unlock()
		return errors.NewValidationError("no active session")
	}
	err := c.graph.MoveNode(id, pos)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	c.MarkDirty()
	return nil
}

// UpdateDetails renames the session and/or moves it to another folder.
// Empty title keeps the current one; folder updates always apply, so an
// empty folderID moves the session back to the root.
func (c *Controller) UpdateDetails(ctx context.Context, title, folderID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateNoSession {
		return errors.NewValidationError("no active session")
	}
	if t := strings.TrimSpace(title); t != "" {
		c.title = t
		c.graph.Rename(t)
	}
	c.folderID = folderID
	if !c.persisted {
		return nil
	}
	return c.persistLocked(ctx)
}

// Close flushes any unsaved state and stops the autosave timer.
func (c *Controller) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.saveTimer != nil {
		c.saveTimer.Stop()
		c.saveTimer = nil
	}
	if !c.persisted {
		return nil
	}
	return c.persistLocked(ctx)
}

// State returns the controller's current phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SessionID returns the active session id, or empty when none.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Title returns the project title.
func (c *Controller) Title() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.title
}

// Snapshot returns a detached copy of the graph.
func (c *Controller) Snapshot() spec.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.graph == nil {
		return spec.Snapshot{}
	}
	return c.graph.Snapshot()
}

// Messages returns the transcript, including the resume nudge when one
// is showing.
func (c *Controller) Messages() []chat.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := append([]chat.Message(nil), c.messages...)
	if c.nudge != nil {
		out = append(out, *c.nudge)
	}
	return out
}

// Pending returns the batch awaiting approval, or nil.
func (c *Controller) Pending() []suggestion.ProposedEdit {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]suggestion.ProposedEdit(nil), c.pending...)
}

// Metrics scores the current graph against its template requirements.
func (c *Controller) Metrics() scoring.Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.graph == nil {
		return scoring.Metrics{MissingItems: []string{}, CategoryCounts: map[string]int{}}
	}
	var reqs []template.Requirement
	if c.deps.Catalog != nil {
		reqs = c.deps.Catalog.Requirements(c.templateID)
	}
	return c.deps.Scorer.Score(c.graph.Snapshot(), reqs)
}

// createRecord persists the session for the first time, user message
// included. Callers hold the lock.
func (c *Controller) createRecord(ctx context.Context) error {
	c.version++
	return c.deps.Store.Create(ctx, c.record())
}

// persistLocked writes the current state. Failures are recoverable: the
// in-memory session stays intact and the next save retries. Callers hold
// the lock.
func (c *Controller) persistLocked(ctx context.Context) error {
	if !c.persisted {
		return nil
	}
	c.version++
	if err := c.deps.Store.Save(ctx, c.record()); err != nil {
		c.recordFailure(ctx, "session.save_failed")
		return errors.NewPersistenceError("save session", err)
	}
	return nil
}

func (c *Controller) record() *ports.SessionRecord {
	return &ports.SessionRecord{
		ID:           c.sessionID,
		Title:        c.title,
		FolderID:     c.folderID,
		TemplateID:   c.templateID,
		Graph:        c.graph.Snapshot(),
		Messages:     append([]chat.Message(nil), c.messages...),
		MessageCount: len(c.messages),
		Preview:      c.preview(),
		Version:      c.version,
		CreatedAt:    c.createdAt,
		UpdatedAt:    time.Now(),
	}
}

// preview is the most recent user message, truncated for listings.
func (c *Controller) preview() string {
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Role != chat.RoleUser {
			continue
		}
		text := c.messages[i].Content
		if len(text) > previewLength {
			cut := previewLength
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			text = text[:cut]
		}
		return text
	}
	return ""
}

func (c *Controller) publish(ctx context.Context, evts []events.DomainEvent) {
	if c.deps.Publisher == nil || len(evts) == 0 {
		return
	}
	if err := c.deps.Publisher.Publish(ctx, evts); err != nil {
		c.deps.Logger.Warn("event publish failed", zap.Error(err), zap.Int("count", len(evts)))
	}
}

func (c *Controller) recordFailure(ctx context.Context, name string) {
	if c.deps.Metrics != nil {
		c.deps.Metrics.Count(ctx, name, 1, nil)
	}
}
