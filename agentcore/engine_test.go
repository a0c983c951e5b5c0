package agentcore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dossierlab/dossier/llmclient"
	"github.com/dossierlab/dossier/llmclient/llmtest"
)

func testConfig(a *llmtest.ScriptedAdapter, tools ...Tool) Config {
	return Config{
		Client:       llmtest.Client(a),
		Model:        "test-model",
		Provider:     a.Name(),
		SystemPrompt: "You are Echo.",
		UserPrompt:   "hi",
		Tools:        tools,
		MaxTurns:     5,
		RetryDelay:   time.Millisecond,
	}
}

func TestRunTextOnlyFirstTurn(t *testing.T) {
	adapter := llmtest.NewScripted(llmtest.Text("hello there"))
	res := NewEngine(testConfig(adapter)).Run(context.Background())

	if res.FinalResponse == nil || *res.FinalResponse != "hello there" {
		t.Fatalf("FinalResponse = %v, want hello there", res.FinalResponse)
	}
	if res.TurnsUsed != 1 {
		t.Errorf("TurnsUsed = %d, want 1", res.TurnsUsed)
	}
	if len(res.ToolOutputs) != 0 {
		t.Errorf("ToolOutputs = %v, want empty", res.ToolOutputs)
	}

	// Empty tool set: no tool_choice may reach the provider even though
	// auto_after_first resolves to required on turn 0.
	reqs := adapter.Requests()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	if reqs[0].ToolChoice != "" || len(reqs[0].Tools) != 0 {
		t.Errorf("tool fields sent without tools: choice=%q tools=%d", reqs[0].ToolChoice, len(reqs[0].Tools))
	}
}

func TestRunEchoThenFinish(t *testing.T) {
	adapter := llmtest.NewScripted(
		llmtest.ToolCalls(llmtest.Call{Name: "echo", Args: map[string]any{"text": "hi"}}),
		llmtest.ToolCalls(llmtest.Call{Name: "finish"}),
	)
	cfg := testConfig(adapter, echoTool(nil), finishTool())
	cfg.FinishToolName = "finish"

	res := NewEngine(cfg).Run(context.Background())

	if res.FinalResponse != nil {
		t.Errorf("FinalResponse = %q, want nil", *res.FinalResponse)
	}
	if res.TurnsUsed != 2 {
		t.Errorf("TurnsUsed = %d, want 2", res.TurnsUsed)
	}
	echoCalls := res.ToolOutputs["echo"]
	if len(echoCalls) != 1 || echoCalls[0]["text"] != "hi" {
		t.Errorf("echo outputs = %v", echoCalls)
	}
	finishCalls, ok := res.ToolOutputs["finish"]
	if !ok || len(finishCalls) != 0 {
		t.Errorf("finish outputs = %v (present=%v), want empty slice", finishCalls, ok)
	}
}

func TestRunFinishAlongsideOtherToolsExecutesAll(t *testing.T) {
	var invoked []string
	mk := func(name string) Tool {
		return Tool{Name: name, Handler: func(context.Context, map[string]any) (string, error) {
			invoked = append(invoked, name)
			return "done", nil
		}}
	}

	adapter := llmtest.NewScripted(llmtest.ToolCalls(
		llmtest.Call{Name: "alpha"},
		llmtest.Call{Name: "finish"},
		llmtest.Call{Name: "beta"},
	))
	cfg := testConfig(adapter, mk("alpha"), mk("finish"), mk("beta"))
	cfg.FinishToolName = "finish"

	res := NewEngine(cfg).Run(context.Background())

	want := []string{"alpha", "finish", "beta"}
	if len(invoked) != len(want) {
		t.Fatalf("invoked %v, want %v", invoked, want)
	}
	for i := range want {
		if invoked[i] != want[i] {
			t.Fatalf("invoked %v, want %v", invoked, want)
		}
	}
	if res.TurnsUsed != 1 {
		t.Errorf("TurnsUsed = %d, want 1", res.TurnsUsed)
	}
	if res.FinalResponse != nil {
		t.Error("finish termination must not carry a final response")
	}
}

func TestRunMaxTurnsExhaustion(t *testing.T) {
	adapter := llmtest.NewScripted(llmtest.ToolCalls(llmtest.Call{Name: "missing"}))
	cfg := testConfig(adapter)
	cfg.Tools = []Tool{echoTool(nil)} // "missing" is never registered
	cfg.MaxTurns = 3

	res := NewEngine(cfg).Run(context.Background())

	if res.FinalResponse != nil {
		t.Errorf("FinalResponse = %q, want nil", *res.FinalResponse)
	}
	if res.TurnsUsed != 3 {
		t.Errorf("TurnsUsed = %d, want 3", res.TurnsUsed)
	}
	if len(res.ToolOutputs) != 0 {
		t.Errorf("unknown tool recorded: %v", res.ToolOutputs)
	}
}

func TestRunFailingHandlerStillTerminates(t *testing.T) {
	broken := Tool{Name: "broken", Handler: func(context.Context, map[string]any) (string, error) {
		return "", errors.New("always fails")
	}}
	adapter := llmtest.NewScripted(llmtest.ToolCalls(llmtest.Call{Name: "broken", Args: map[string]any{"x": 1.0}}))
	cfg := testConfig(adapter, broken)
	cfg.MaxTurns = 3

	res := NewEngine(cfg).Run(context.Background())

	if res.TurnsUsed != 3 {
		t.Errorf("TurnsUsed = %d, want 3", res.TurnsUsed)
	}
	if _, ok := res.ToolOutputs["broken"]; ok {
		t.Errorf("failed handler recorded in audit map: %v", res.ToolOutputs)
	}
}

func TestRunRetriesTransientFailures(t *testing.T) {
	adapter := llmtest.NewScripted(
		llmtest.Fail(errors.New("connection reset")),
		llmtest.NoChoices(),
		llmtest.Text("third time lucky"),
	)
	res := NewEngine(testConfig(adapter)).Run(context.Background())

	if res.FinalResponse == nil || *res.FinalResponse != "third time lucky" {
		t.Fatalf("FinalResponse = %v", res.FinalResponse)
	}
	if res.TurnsUsed != 1 {
		t.Errorf("TurnsUsed = %d, want 1 (retries happen within a turn)", res.TurnsUsed)
	}
	if got := len(adapter.Requests()); got != 3 {
		t.Errorf("provider called %d times, want 3", got)
	}
}

func TestRunMalformedFunctionCallRetried(t *testing.T) {
	adapter := llmtest.NewScripted(
		llmtest.MalformedFunctionCall(),
		llmtest.Text("recovered"),
	)
	res := NewEngine(testConfig(adapter)).Run(context.Background())

	if res.FinalResponse == nil || *res.FinalResponse != "recovered" {
		t.Fatalf("FinalResponse = %v", res.FinalResponse)
	}
}

func TestRunFallbackProducesJSON(t *testing.T) {
	adapter := llmtest.NewScripted(
		llmtest.Fail(errors.New("down")),
		llmtest.Fail(errors.New("down")),
		llmtest.Fail(errors.New("down")),
		llmtest.Text(`{"summary":"best effort","findings":[]}`),
	)
	res := NewEngine(testConfig(adapter)).Run(context.Background())

	if !res.FellBack {
		t.Fatal("expected fallback path")
	}
	if res.FinalResponse == nil || *res.FinalResponse != `{"summary":"best effort","findings":[]}` {
		t.Fatalf("FinalResponse = %v", res.FinalResponse)
	}
	if res.TurnsUsed != 1 {
		t.Errorf("TurnsUsed = %d, want 1", res.TurnsUsed)
	}

	// The fallback request must be tool-free and JSON-constrained.
	reqs := adapter.Requests()
	last := reqs[len(reqs)-1]
	if len(last.Tools) != 0 || last.ToolChoice != "" {
		t.Error("fallback request still carries tools")
	}
	if last.ResponseFormat == nil || last.ResponseFormat.Type != "json_object" {
		t.Errorf("fallback response format = %v", last.ResponseFormat)
	}
}

func TestRunFallbackStripsToolTraffic(t *testing.T) {
	adapter := llmtest.NewScripted(
		llmtest.ToolCalls(llmtest.Call{Name: "echo", Args: map[string]any{"text": "hi"}}),
		llmtest.Fail(errors.New("down")),
		llmtest.Fail(errors.New("down")),
		llmtest.Fail(errors.New("down")),
		llmtest.Text(`{"summary":"s","findings":[]}`),
	)
	res := NewEngine(testConfig(adapter, echoTool(nil))).Run(context.Background())

	if !res.FellBack || res.FinalResponse == nil {
		t.Fatalf("expected successful fallback, got %+v", res)
	}
	if res.TurnsUsed != 2 {
		t.Errorf("TurnsUsed = %d, want 2", res.TurnsUsed)
	}

	reqs := adapter.Requests()
	last := reqs[len(reqs)-1]
	for _, m := range last.Messages {
		if m.Role == llmclient.RoleTool {
			t.Error("tool message survived fallback stripping")
		}
		if len(m.ToolCalls) != 0 {
			t.Error("tool_calls survived fallback stripping")
		}
	}
}

func TestRunTotalExhaustion(t *testing.T) {
	adapter := llmtest.NewScripted(llmtest.Fail(errors.New("hard down")))
	res := NewEngine(testConfig(adapter)).Run(context.Background())

	if res.FinalResponse != nil {
		t.Errorf("FinalResponse = %q, want nil", *res.FinalResponse)
	}
	if !res.FellBack {
		t.Error("expected FellBack on total exhaustion")
	}
	// 3 attempts for the turn, 3 for the fallback.
	if got := len(adapter.Requests()); got != 6 {
		t.Errorf("provider called %d times, want 6", got)
	}
}

func TestRunAccumulatesUsage(t *testing.T) {
	adapter := llmtest.NewScripted(
		llmtest.ToolCalls(llmtest.Call{Name: "echo", Args: map[string]any{"text": "a"}}),
		llmtest.Text("done"),
	)
	res := NewEngine(testConfig(adapter, echoTool(nil))).Run(context.Background())

	if res.Usage.TotalTokens != 30 {
		t.Errorf("TotalTokens = %d, want 30 (two scripted calls)", res.Usage.TotalTokens)
	}
}

func TestRunToolChoiceResolvedPerTurn(t *testing.T) {
	adapter := llmtest.NewScripted(
		llmtest.ToolCalls(llmtest.Call{Name: "echo", Args: map[string]any{"text": "a"}}),
		llmtest.Text("done"),
	)
	cfg := testConfig(adapter, echoTool(nil))
	cfg.ToolChoiceStrategy = StrategyAutoAfterFirst

	NewEngine(cfg).Run(context.Background())

	reqs := adapter.Requests()
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(reqs))
	}
	if reqs[0].ToolChoice != llmclient.ToolChoiceRequired {
		t.Errorf("turn 0 tool choice = %q, want required", reqs[0].ToolChoice)
	}
	if reqs[1].ToolChoice != llmclient.ToolChoiceAuto {
		t.Errorf("turn 1 tool choice = %q, want auto", reqs[1].ToolChoice)
	}
}

func finishTool() Tool {
	return Tool{
		Name:        "finish",
		Description: "Signal that the task is complete.",
		Handler:     func(context.Context, map[string]any) (string, error) { return "", nil },
	}
}
