package rpc

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/antigravity-dev/codegraph/internal/tools"
)

func newTestRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	reg := tools.NewRegistry()
	reg.MustRegister(&tools.Tool{
		Name:     "echo",
		Category: tools.CategoryGeneral,
		Schema: tools.ToolSchema{
			Required:   []string{"message"},
			Properties: map[string]tools.Property{"message": {Type: "string"}},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			msg, _ := args["message"].(string)
			return "echo: " + msg, nil
		},
	})
	return reg
}

func responses(t *testing.T, out *bytes.Buffer) []Response {
	t.Helper()
	var resps []Response
	scanner := bufio.NewScanner(out)
	for scanner.Scan() {
		if len(bytes.TrimSpace(scanner.Bytes())) == 0 {
			continue
		}
		var r Response
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
		resps = append(resps, r)
	}
	return resps
}

func TestServeHandlesInitializeAndToolsList(t *testing.T) {
	server := NewServer(newTestRegistry(t), "codegraph", "0.1.0")

	in := strings.NewReader(
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}` + "\n" +
			`{"jsonrpc":"2.0","id":2,"method":"tools/list"}` + "\n",
	)
	var out bytes.Buffer

	if err := server.Serve(context.Background(), in, &out); err != nil {
		t.Fatalf("Serve: %v", err)
	}

	resps := responses(t, &out)
	if len(resps) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(resps))
	}
	if resps[0].Error != nil {
		t.Errorf("initialize returned error: %v", resps[0].Error)
	}
	if resps[1].Error != nil {
		t.Errorf("tools/list returned error: %v", resps[1].Error)
	}
}

func TestServeDispatchesToolsCall(t *testing.T) {
	server := NewServer(newTestRegistry(t), "codegraph", "0.1.0")

	in := strings.NewReader(
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"echo","arguments":{"message":"hi"}}}` + "\n",
	)
	var out bytes.Buffer

	if err := server.Serve(context.Background(), in, &out); err != nil {
		t.Fatalf("Serve: %v", err)
	}

	resps := responses(t, &out)
	if len(resps) != 1 {
		t.Fatalf("expected 1 response, got %d", len(resps))
	}
	if resps[0].Error != nil {
		t.Fatalf("unexpected error: %v", resps[0].Error)
	}

	var result toolsCallResult
	raw, _ := json.Marshal(resps[0].Result)
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if len(result.Content) != 1 || result.Content[0].Text != "echo: hi" {
		t.Errorf("unexpected content: %+v", result.Content)
	}
}

func TestServeUnknownMethodReturnsMethodNotFound(t *testing.T) {
	server := NewServer(newTestRegistry(t), "codegraph", "0.1.0")

	in := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"bogus"}` + "\n")
	var out bytes.Buffer

	if err := server.Serve(context.Background(), in, &out); err != nil {
		t.Fatalf("Serve: %v", err)
	}

	resps := responses(t, &out)
	if len(resps) != 1 || resps[0].Error == nil {
		t.Fatalf("expected a method-not-found error response, got %+v", resps)
	}
	if resps[0].Error.Code != CodeMethodNotFound {
		t.Errorf("Code = %d, want %d", resps[0].Error.Code, CodeMethodNotFound)
	}
}

func TestServeNotificationProducesNoResponse(t *testing.T) {
	server := NewServer(newTestRegistry(t), "codegraph", "0.1.0")

	in := strings.NewReader(
		`{"jsonrpc":"2.0","method":"notifications/initialized"}` + "\n" +
			`{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n",
	)
	var out bytes.Buffer

	if err := server.Serve(context.Background(), in, &out); err != nil {
		t.Fatalf("Serve: %v", err)
	}

	resps := responses(t, &out)
	if len(resps) != 1 {
		t.Fatalf("expected exactly 1 response (notification silent), got %d", len(resps))
	}
}

func TestServeMissingToolNameIsInvalidParams(t *testing.T) {
	server := NewServer(newTestRegistry(t), "codegraph", "0.1.0")

	in := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"arguments":{}}}` + "\n")
	var out bytes.Buffer

	if err := server.Serve(context.Background(), in, &out); err != nil {
		t.Fatalf("Serve: %v", err)
	}

	resps := responses(t, &out)
	if len(resps) != 1 || resps[0].Error == nil {
		t.Fatalf("expected invalid-params error, got %+v", resps)
	}
	if resps[0].Error.Code != CodeInvalidParams {
		t.Errorf("Code = %d, want %d", resps[0].Error.Code, CodeInvalidParams)
	}
}
