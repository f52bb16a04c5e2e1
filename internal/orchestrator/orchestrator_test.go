package orchestrator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/askdesk/askdesk/internal/conversation"
	"github.com/askdesk/askdesk/internal/dbexec"
	"github.com/askdesk/askdesk/internal/lang"
)

type fakeInterpreter struct {
	response string
	err      error
	history  []conversation.Message
}

func (f *fakeInterpreter) Interpret(_ context.Context, _ string, history []conversation.Message) (string, error) {
	f.history = history
	return f.response, f.err
}

type fakeClassifier struct {
	followUp bool
	err      error
	called   bool
}

func (f *fakeClassifier) IsFollowUp(_ context.Context, _ conversation.QueryMetadata, _ string) (bool, error) {
	f.called = true
	return f.followUp, f.err
}

type fakeAdapter struct {
	sql string
	err error
}

func (f *fakeAdapter) Adapt(_ context.Context, _ conversation.QueryMetadata, _ string) (string, error) {
	return f.sql, f.err
}

type fakeBeautifier struct {
	answer string
	err    error
	state  conversation.State
}

func (f *fakeBeautifier) Beautify(_ context.Context, _ dbexec.Result, _ string, _ lang.Language, state conversation.State) (string, error) {
	f.state = state
	return f.answer, f.err
}

type fakeExecutor struct {
	result   dbexec.Result
	err      error
	executed []string
}

func (f *fakeExecutor) Execute(_ context.Context, sqlText string) (dbexec.Result, error) {
	f.executed = append(f.executed, sqlText)
	if f.err != nil {
		return dbexec.Result{}, f.err
	}
	return f.result, nil
}

type fixture struct {
	orch       *Orchestrator
	store      *conversation.MemoryStore
	interp     *fakeInterpreter
	classifier *fakeClassifier
	adapter    *fakeAdapter
	beautifier *fakeBeautifier
	executor   *fakeExecutor
}

func newFixture() *fixture {
	f := &fixture{
		store:      conversation.NewMemoryStore(),
		interp:     &fakeInterpreter{},
		classifier: &fakeClassifier{},
		adapter:    &fakeAdapter{},
		beautifier: &fakeBeautifier{answer: "beautified"},
		executor: &fakeExecutor{result: dbexec.Result{
			Columns: []string{"FirstName"},
			Rows:    []dbexec.Row{{"FirstName": "Aisha"}},
		}},
	}
	f.orch = New(Dependencies{
		Store:      f.store,
		Interp:     f.interp,
		Classifier: f.classifier,
		Adapter:    f.adapter,
		Beautifier: f.beautifier,
		Executor:   f.executor,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return f
}

func TestAnswerRejectsEmptyQuestion(t *testing.T) {
	f := newFixture()
	for _, question := range []string{"", "   ", "\n\t"} {
		if _, err := f.orch.Answer(context.Background(), "alice", question); !errors.Is(err, ErrQueryRequired) {
			t.Fatalf("Answer(%q) error = %v, want ErrQueryRequired", question, err)
		}
	}
}

func TestAnswerSQLBranchStoresMetadata(t *testing.T) {
	f := newFixture()
	f.interp.response = "SELECT FirstName FROM Employees WHERE Department = 'Engineering';"

	got, err := f.orch.Answer(context.Background(), "alice", "List all employees in the Engineering department")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if got != "beautified" {
		t.Fatalf("Answer() = %q", got)
	}

	if len(f.executor.executed) != 1 || f.executor.executed[0] != f.interp.response {
		t.Fatalf("executed = %v, interpreter output must run unsanitized", f.executor.executed)
	}
	if f.classifier.called {
		t.Fatal("classifier must not run without prior metadata")
	}

	state, _ := f.store.Get(context.Background(), "alice")
	if state.LastQuery == nil || state.LastQuery.SQL != f.interp.response {
		t.Fatalf("LastQuery = %+v", state.LastQuery)
	}
	if len(state.Messages) != 0 {
		t.Fatalf("SQL turns must not grow messages, got %d", len(state.Messages))
	}
	// beautifier receives the whole state, metadata included
	if f.beautifier.state.LastQuery == nil {
		t.Fatal("beautifier did not receive updated state")
	}
}

func TestAnswerNaturalLanguageBranch(t *testing.T) {
	f := newFixture()
	f.interp.response = "CockroachDB is a distributed SQL database."

	got, err := f.orch.Answer(context.Background(), "alice", "What is CockroachDB?")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if got != f.interp.response {
		t.Fatalf("Answer() = %q, want interpreter output verbatim", got)
	}
	if len(f.executor.executed) != 0 {
		t.Fatal("nothing should be executed on the natural-language branch")
	}

	state, _ := f.store.Get(context.Background(), "alice")
	if state.LastQuery != nil {
		t.Fatalf("LastQuery = %+v, want nil", state.LastQuery)
	}
	if len(state.Messages) != 2 {
		t.Fatalf("messages = %d, want user+assistant turn", len(state.Messages))
	}
	if state.Messages[0].Role != "user" || state.Messages[1].Role != "assistant" {
		t.Fatalf("message roles = %v, %v", state.Messages[0].Role, state.Messages[1].Role)
	}
}

func TestAnswerFollowUpBranch(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	prior := conversation.State{LastQuery: &conversation.QueryMetadata{SQL: "SELECT FirstName FROM Employees;"}}
	if err := f.store.Put(ctx, "alice", prior); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	f.classifier.followUp = true
	f.adapter.sql = "SELECT FirstName, Email FROM Employees;"

	got, err := f.orch.Answer(ctx, "alice", "What about their emails?")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if got != "beautified" {
		t.Fatalf("Answer() = %q", got)
	}
	if len(f.executor.executed) != 1 || f.executor.executed[0] != f.adapter.sql {
		t.Fatalf("executed = %v", f.executor.executed)
	}

	state, _ := f.store.Get(ctx, "alice")
	if state.LastQuery.SQL != f.adapter.sql {
		t.Fatalf("LastQuery.SQL = %q, want adapted statement", state.LastQuery.SQL)
	}
}

func TestAnswerFallsThroughWhenNotFollowUp(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	prior := conversation.State{LastQuery: &conversation.QueryMetadata{SQL: "SELECT 1;"}}
	_ = f.store.Put(ctx, "alice", prior)
	f.classifier.followUp = false
	f.interp.response = "SELECT 2;"

	if _, err := f.orch.Answer(ctx, "alice", "something unrelated"); err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if !f.classifier.called {
		t.Fatal("classifier should run when prior metadata exists")
	}
	state, _ := f.store.Get(ctx, "alice")
	if state.LastQuery.SQL != "SELECT 2;" {
		t.Fatalf("LastQuery.SQL = %q", state.LastQuery.SQL)
	}
}

func TestAnswerFailedExecutionLeavesMetadataUntouched(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	prior := conversation.State{LastQuery: &conversation.QueryMetadata{SQL: "SELECT 1;"}}
	_ = f.store.Put(ctx, "alice", prior)
	f.classifier.followUp = true
	f.adapter.sql = "SELECT broken;"
	f.executor.err = &dbexec.Error{Err: errors.New("column does not exist")}

	if _, err := f.orch.Answer(ctx, "alice", "follow up"); err == nil {
		t.Fatal("expected execution error")
	}
	state, _ := f.store.Get(ctx, "alice")
	if state.LastQuery.SQL != "SELECT 1;" {
		t.Fatalf("LastQuery.SQL = %q, failed execution must not replace metadata", state.LastQuery.SQL)
	}
}

func TestAnswerBeautifierFailureKeepsNewMetadata(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.interp.response = "SELECT FirstName FROM Employees;"
	f.beautifier.err = errors.New("llm down")

	if _, err := f.orch.Answer(ctx, "alice", "list employees"); err == nil {
		t.Fatal("expected beautifier error")
	}
	state, _ := f.store.Get(ctx, "alice")
	if state.LastQuery == nil || state.LastQuery.SQL != f.interp.response {
		t.Fatalf("LastQuery = %+v, metadata is persisted before beautification", state.LastQuery)
	}
}

func TestAnswerIsolatesUsers(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.interp.response = "SELECT 1;"
	if _, err := f.orch.Answer(ctx, "alice", "list something"); err != nil {
		t.Fatalf("Answer() error = %v", err)
	}

	bob, _ := f.store.Get(ctx, "bob")
	if bob.LastQuery != nil || len(bob.Messages) != 0 {
		t.Fatalf("bob's state = %+v, want empty", bob)
	}
}

func TestAnswerDefaultsUserID(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.interp.response = "SELECT 1;"
	if _, err := f.orch.Answer(ctx, "", "list something"); err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	state, _ := f.store.Get(ctx, conversation.DefaultUserID)
	if state.LastQuery == nil {
		t.Fatal("state not stored under the default user id")
	}
}

func TestAnswerForwardsHistoryToInterpreter(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	prior := conversation.State{Messages: []conversation.Message{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	}}
	_ = f.store.Put(ctx, "alice", prior)
	f.interp.response = "a direct answer"

	if _, err := f.orch.Answer(ctx, "alice", "another question"); err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if len(f.interp.history) != 2 {
		t.Fatalf("history = %d messages, want 2", len(f.interp.history))
	}
}
