// Package orchestrator sequences one question through language detection,
// follow-up handling, interpretation, execution, and beautification.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/askdesk/askdesk/internal/conversation"
	"github.com/askdesk/askdesk/internal/dbexec"
	"github.com/askdesk/askdesk/internal/lang"
	"github.com/askdesk/askdesk/internal/observability"
	"github.com/askdesk/askdesk/internal/sqltext"
)

// ErrQueryRequired rejects requests with a missing or empty question. The only
// user-correctable error; everything else surfaces as an internal failure.
var ErrQueryRequired = errors.New("Query parameter is required.")

type Interpreter interface {
	Interpret(ctx context.Context, question string, history []conversation.Message) (string, error)
}

type FollowUpClassifier interface {
	IsFollowUp(ctx context.Context, prior conversation.QueryMetadata, question string) (bool, error)
}

type FollowUpAdapter interface {
	Adapt(ctx context.Context, prior conversation.QueryMetadata, question string) (string, error)
}

type Beautifier interface {
	Beautify(ctx context.Context, result dbexec.Result, question string, language lang.Language, state conversation.State) (string, error)
}

type Executor interface {
	Execute(ctx context.Context, sqlText string) (dbexec.Result, error)
}

type Orchestrator struct {
	store      conversation.Store
	interp     Interpreter
	classifier FollowUpClassifier
	adapter    FollowUpAdapter
	beautifier Beautifier
	executor   Executor
	logger     *slog.Logger

	// Serializes concurrent requests for the same user so state mutations do
	// not race. Entries are never evicted, matching the state map itself.
	userLocks sync.Map
}

type Dependencies struct {
	Store      conversation.Store
	Interp     Interpreter
	Classifier FollowUpClassifier
	Adapter    FollowUpAdapter
	Beautifier Beautifier
	Executor   Executor
	Logger     *slog.Logger
}

func New(deps Dependencies) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		store:      deps.Store,
		interp:     deps.Interp,
		classifier: deps.Classifier,
		adapter:    deps.Adapter,
		beautifier: deps.Beautifier,
		executor:   deps.Executor,
		logger:     logger,
	}
}

// Answer runs the full per-request flow and returns the text to send back to
// the user. userID falls back to the default identifier when empty.
func (o *Orchestrator) Answer(ctx context.Context, userID, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", ErrQueryRequired
	}
	if userID == "" {
		userID = conversation.DefaultUserID
	}

	unlock := o.lockUser(userID)
	defer unlock()

	state, err := o.store.Get(ctx, userID)
	if err != nil {
		return "", err
	}

	language := lang.Detect(question)

	if state.LastQuery != nil {
		followUp, err := o.classifier.IsFollowUp(ctx, *state.LastQuery, question)
		if err != nil {
			return "", err
		}
		if followUp {
			return o.answerFollowUp(ctx, userID, question, language, state)
		}
	}

	response, err := o.interp.Interpret(ctx, question, state.Messages)
	if err != nil {
		return "", err
	}

	if sqltext.IsStatement(response) {
		return o.answerWithSQL(ctx, userID, question, response, language, state)
	}

	// Direct answer: returned verbatim, and the exchange is the only branch
	// that grows the message history.
	observability.IncrementQueryBranch(observability.BranchAnswer)
	state.Messages = append(state.Messages,
		conversation.Message{Role: "user", Content: question},
		conversation.Message{Role: "assistant", Content: response},
	)
	if err := o.store.Put(ctx, userID, state); err != nil {
		return "", err
	}
	return response, nil
}

func (o *Orchestrator) answerFollowUp(ctx context.Context, userID, question string, language lang.Language, state conversation.State) (string, error) {
	adapted, err := o.adapter.Adapt(ctx, *state.LastQuery, question)
	if err != nil {
		return "", err
	}

	result, err := o.executor.Execute(ctx, adapted)
	if err != nil {
		return "", err
	}
	observability.IncrementQueryBranch(observability.BranchFollowUp)
	o.logger.InfoContext(ctx, "follow_up_query_executed",
		slog.String("user_id", userID),
		slog.String("sql", adapted),
		slog.Int("rows", len(result.Rows)),
	)

	// Metadata is replaced as soon as execution succeeds; a beautifier
	// failure afterwards does not roll it back.
	state.LastQuery = &conversation.QueryMetadata{SQL: adapted, Result: result}
	if err := o.store.Put(ctx, userID, state); err != nil {
		return "", err
	}

	return o.beautifier.Beautify(ctx, result, question, language, state)
}

func (o *Orchestrator) answerWithSQL(ctx context.Context, userID, question, sqlText string, language lang.Language, state conversation.State) (string, error) {
	// Interpreter output runs as-is; only the follow-up path sanitizes.
	result, err := o.executor.Execute(ctx, sqlText)
	if err != nil {
		return "", err
	}
	observability.IncrementQueryBranch(observability.BranchSQL)
	o.logger.InfoContext(ctx, "query_executed",
		slog.String("user_id", userID),
		slog.String("sql", sqlText),
		slog.Int("rows", len(result.Rows)),
	)

	state.LastQuery = &conversation.QueryMetadata{SQL: sqlText, Result: result}
	if err := o.store.Put(ctx, userID, state); err != nil {
		return "", err
	}

	return o.beautifier.Beautify(ctx, result, question, language, state)
}

func (o *Orchestrator) lockUser(userID string) func() {
	value, _ := o.userLocks.LoadOrStore(userID, &sync.Mutex{})
	mu, ok := value.(*sync.Mutex)
	if !ok {
		// unreachable; the map only ever stores mutexes
		panic(fmt.Sprintf("unexpected lock type %T", value))
	}
	mu.Lock()
	return mu.Unlock
}
