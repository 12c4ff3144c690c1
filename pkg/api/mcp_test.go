package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

type rpcResult struct {
	Result struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	} `json:"result"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func call(t *testing.T, method, params string) rpcResult {
	t.Helper()
	srv := NewMCPServer(testSession(t), nil)
	msg := fmt.Sprintf(`{"jsonrpc":"2.0","id":1,"method":%q,"params":%s}`, method, params)
	resp := srv.HandleMessage(context.Background(), json.RawMessage(msg))

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	var out rpcResult
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	if out.Error != nil {
		t.Fatalf("rpc error: %s", out.Error.Message)
	}
	return out
}

func TestMCP_ListTools(t *testing.T) {
	out := call(t, "tools/list", `{}`)
	names := map[string]bool{}
	for _, tool := range out.Result.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"region_stats", "verify_data", "list_regions"} {
		if !names[want] {
			t.Errorf("missing tool %s in %v", want, names)
		}
	}
}

func TestMCP_RegionStats(t *testing.T) {
	out := call(t, "tools/call", `{"name":"region_stats","arguments":{"name":"Batticaloa","level":"district"}}`)
	if out.Result.IsError || len(out.Result.Content) != 1 {
		t.Fatalf("result = %+v", out.Result)
	}
	var stats struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal([]byte(out.Result.Content[0].Text), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Total != 3 {
		t.Errorf("total = %d, want 3", stats.Total)
	}
}

func TestMCP_RegionStats_NoData(t *testing.T) {
	out := call(t, "tools/call", `{"name":"region_stats","arguments":{"name":"Ampara"}}`)
	if !out.Result.IsError {
		t.Fatal("expected tool error for a region without data")
	}
	if !strings.Contains(out.Result.Content[0].Text, "Ampara") {
		t.Errorf("error text = %q", out.Result.Content[0].Text)
	}
}

func TestMCP_VerifyAndList(t *testing.T) {
	out := call(t, "tools/call", `{"name":"verify_data","arguments":{}}`)
	if !strings.Contains(out.Result.Content[0].Text, `"ok":false`) {
		t.Errorf("verify_data = %s", out.Result.Content[0].Text)
	}

	out = call(t, "tools/call", `{"name":"list_regions","arguments":{"level":"subdistrict"}}`)
	if !strings.Contains(out.Result.Content[0].Text, `"name":"Kinniya"`) {
		t.Errorf("list_regions = %s", out.Result.Content[0].Text)
	}
}
