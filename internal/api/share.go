package api

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	apierrors "github.com/dmribeiro/geminiweb/internal/errors"
	"github.com/dmribeiro/geminiweb/internal/models"
)

// ShareConversation publishes a conversation turn through the share RPC
// and returns its public URL. metadata is the [cid, rid, rcid] triple of
// the turn to share; title is optional.
func (c *GeminiClient) ShareConversation(metadata []string, title string) (string, error) {
	if len(metadata) < 3 || metadata[0] == "" {
		return "", fmt.Errorf("conversation metadata [cid, rid, rcid] is required")
	}

	payload, err := buildSharePayload(metadata[0], metadata[1], metadata[2], title)
	if err != nil {
		return "", fmt.Errorf("failed to marshal share payload: %w", err)
	}

	responses, err := c.BatchExecute([]RPCData{{
		RPCID:      models.RPCShare,
		Payload:    payload,
		Identifier: "generic",
	}})
	if err != nil {
		return "", err
	}
	if len(responses) == 0 || responses[0].Data == "" {
		return "", apierrors.NewParseError("empty share response", "")
	}

	shareID := gjson.Parse(responses[0].Data).Get("2").String()
	if shareID == "" {
		return "", apierrors.NewParseError("no share id in response", "2")
	}

	return "https://g.co/gemini/share/" + shareID, nil
}

// buildSharePayload renders the share RPC body. The turn is addressed
// by its conversation, reply and candidate ids; the trailing pair
// carries the share mode and the display title.
func buildSharePayload(cid, rid, rcid, title string) (string, error) {
	inner := []interface{}{
		[]interface{}{
			nil,
			[]interface{}{
				[]interface{}{
					[]interface{}{cid, rid},
					nil,
					nil,
					[]interface{}{
						[]interface{}{}, []interface{}{}, []interface{}{},
						rcid,
						[]interface{}{},
					},
				},
			},
			[]interface{}{0, title},
		},
	}

	payload, err := json.Marshal(inner)
	if err != nil {
		return "", err
	}
	return string(payload), nil
}
