package api

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	apierrors "github.com/dmribeiro/geminiweb/internal/errors"
	"github.com/dmribeiro/geminiweb/internal/models"
)

// Speech synthesizes text to audio through the speech RPC and returns
// the raw audio bytes (OGG). lang defaults to en-US when empty.
func (c *GeminiClient) Speech(text, lang string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}
	if lang == "" {
		lang = "en-US"
	}

	// RPC payload: [null, text, lang, null, 2]
	payload, err := json.Marshal([]interface{}{nil, text, lang, nil, 2})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal speech payload: %w", err)
	}

	responses, err := c.BatchExecute([]RPCData{{
		RPCID:      models.RPCSpeech,
		Payload:    string(payload),
		Identifier: "generic",
	}})
	if err != nil {
		return nil, err
	}
	if len(responses) == 0 || responses[0].Data == "" {
		return nil, apierrors.NewParseError("empty speech response", "")
	}

	// Result is a JSON array whose first element is base64 audio
	audioB64 := gjson.Parse(responses[0].Data).Get("0").String()
	if audioB64 == "" {
		return nil, apierrors.NewParseError("no audio data in speech response", "0")
	}

	audio, err := base64.StdEncoding.DecodeString(audioB64)
	if err != nil {
		return nil, apierrors.NewParseError("failed to decode audio data: "+err.Error(), "0")
	}

	return audio, nil
}
