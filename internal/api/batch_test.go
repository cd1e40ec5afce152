package api

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	apierrors "github.com/dmribeiro/geminiweb/internal/errors"
)

// batchBody renders a batchexecute response for one RPC, with the
// anti-hijacking prefix and the data JSON embedded as a string.
func batchBody(t *testing.T, rpcID, identifier string, data interface{}) []byte {
	t.Helper()
	dataJSON, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("failed to marshal rpc data: %v", err)
	}
	part := []interface{}{"wrb.fr", rpcID, string(dataJSON), nil, nil, nil, identifier}
	line, err := json.Marshal([]interface{}{part})
	if err != nil {
		t.Fatalf("failed to marshal batch line: %v", err)
	}
	return []byte(")]}'\n\n" + string(line))
}

func TestRPCDataSerialize(t *testing.T) {
	rpc := RPCData{RPCID: "XqA3Ic", Payload: `[null,"hi"]`, Identifier: "generic"}
	got := rpc.Serialize()

	if len(got) != 4 {
		t.Fatalf("Serialize() length = %d, want 4", len(got))
	}
	if got[0] != "XqA3Ic" || got[1] != `[null,"hi"]` || got[2] != nil || got[3] != "generic" {
		t.Errorf("Serialize() = %v", got)
	}
}

func TestBatchExecute(t *testing.T) {
	t.Run("no requests", func(t *testing.T) {
		client := newTestClient(t, &MockHttpClient{})
		if _, err := client.BatchExecute(nil); err == nil {
			t.Error("BatchExecute() expected error for empty request list")
		}
	})

	t.Run("closed client", func(t *testing.T) {
		client := newTestClient(t, &MockHttpClient{})
		client.Close()
		requests := []RPCData{{RPCID: "XqA3Ic", Identifier: "generic"}}
		if _, err := client.BatchExecute(requests); err == nil {
			t.Error("BatchExecute() expected error on closed client")
		}
	})

	t.Run("successful round trip", func(t *testing.T) {
		body := batchBody(t, "XqA3Ic", "generic", []interface{}{"result-data"})
		client := newTestClient(t, NewMockHttpClient(body, 200))

		responses, err := client.BatchExecute([]RPCData{
			{RPCID: "XqA3Ic", Payload: "[]", Identifier: "generic"},
		})
		if err != nil {
			t.Fatalf("BatchExecute() unexpected error: %v", err)
		}
		if len(responses) != 1 {
			t.Fatalf("len(responses) = %d, want 1", len(responses))
		}
		if !strings.Contains(responses[0].Data, "result-data") {
			t.Errorf("Data = %q, want to contain result-data", responses[0].Data)
		}
	})

	t.Run("non-200 status", func(t *testing.T) {
		client := newTestClient(t, NewMockHttpClient([]byte("error"), 500))
		requests := []RPCData{{RPCID: "XqA3Ic", Identifier: "generic"}}
		if _, err := client.BatchExecute(requests); err == nil {
			t.Error("BatchExecute() expected error for status 500")
		}
	})
}

func TestParseBatchResponse(t *testing.T) {
	requests := []RPCData{
		{RPCID: "XqA3Ic", Identifier: "first"},
		{RPCID: "fuVx7", Identifier: "second"},
	}

	t.Run("matches parts by identifier", func(t *testing.T) {
		body := []byte(")]}'\n\n" +
			`[["wrb.fr","XqA3Ic","[\"audio\"]",null,null,null,"first"],` +
			`["wrb.fr","fuVx7","[\"share\"]",null,null,null,"second"]]`)

		responses, err := parseBatchResponse(body, requests)
		if err != nil {
			t.Fatalf("parseBatchResponse() unexpected error: %v", err)
		}
		if responses[0].Data != `["audio"]` {
			t.Errorf("responses[0].Data = %q", responses[0].Data)
		}
		if responses[1].Data != `["share"]` {
			t.Errorf("responses[1].Data = %q", responses[1].Data)
		}
	})

	t.Run("unmatched identifiers leave data empty", func(t *testing.T) {
		body := []byte(`[["wrb.fr","XqA3Ic","[\"audio\"]",null,null,null,"unknown"]]`)

		responses, err := parseBatchResponse(body, requests)
		if err != nil {
			t.Fatalf("parseBatchResponse() unexpected error: %v", err)
		}
		if responses[0].Data != "" || responses[1].Data != "" {
			t.Errorf("responses = %v, want empty data", responses)
		}
	})

	t.Run("no valid json is a parse error", func(t *testing.T) {
		_, err := parseBatchResponse([]byte(")]}'\n\ngarbage"), requests)
		if err == nil {
			t.Fatal("parseBatchResponse() expected error")
		}
		if !apierrors.IsParseError(err) {
			t.Errorf("error = %T, want ParseError", err)
		}
	})
}

func TestSpeech(t *testing.T) {
	t.Run("decodes base64 audio", func(t *testing.T) {
		audio := []byte("ogg-audio-bytes")
		encoded := base64.StdEncoding.EncodeToString(audio)
		body := batchBody(t, "XqA3Ic", "generic", []interface{}{encoded})
		client := newTestClient(t, NewMockHttpClient(body, 200))

		got, err := client.Speech("read this aloud", "")
		if err != nil {
			t.Fatalf("Speech() unexpected error: %v", err)
		}
		if string(got) != string(audio) {
			t.Errorf("Speech() = %q, want %q", got, audio)
		}
	})

	t.Run("empty text", func(t *testing.T) {
		client := newTestClient(t, &MockHttpClient{})
		if _, err := client.Speech("", "en-US"); err == nil {
			t.Error("Speech() expected error for empty text")
		}
	})

	t.Run("missing audio data", func(t *testing.T) {
		body := batchBody(t, "XqA3Ic", "generic", []interface{}{})
		client := newTestClient(t, NewMockHttpClient(body, 200))

		if _, err := client.Speech("text", "en-US"); err == nil {
			t.Error("Speech() expected error for empty result")
		}
	})
}

func TestShareConversation(t *testing.T) {
	metadata := []string{"c_1", "r_1", "rc_1"}

	t.Run("builds share url from response id", func(t *testing.T) {
		body := batchBody(t, "fuVx7", "generic", []interface{}{nil, nil, "abc123xyz"})
		client := newTestClient(t, NewMockHttpClient(body, 200))

		url, err := client.ShareConversation(metadata, "My conversation")
		if err != nil {
			t.Fatalf("ShareConversation() unexpected error: %v", err)
		}
		if url != "https://g.co/gemini/share/abc123xyz" {
			t.Errorf("url = %q", url)
		}
	})

	t.Run("incomplete metadata", func(t *testing.T) {
		client := newTestClient(t, &MockHttpClient{})
		if _, err := client.ShareConversation([]string{"c_1"}, ""); err == nil {
			t.Error("ShareConversation() expected error for incomplete metadata")
		}
	})

	t.Run("missing share id", func(t *testing.T) {
		body := batchBody(t, "fuVx7", "generic", []interface{}{})
		client := newTestClient(t, NewMockHttpClient(body, 200))

		if _, err := client.ShareConversation(metadata, ""); err == nil {
			t.Error("ShareConversation() expected error for empty result")
		}
	})
}

func TestBuildSharePayload(t *testing.T) {
	payload, err := buildSharePayload("c_1", "r_1", "rc_1", "Title")
	if err != nil {
		t.Fatalf("buildSharePayload() error: %v", err)
	}

	var decoded []interface{}
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	for _, want := range []string{"c_1", "r_1", "rc_1", "Title"} {
		if !strings.Contains(payload, want) {
			t.Errorf("payload missing %q: %s", want, payload)
		}
	}
}
