package discord

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Interaction type codes we handle.
const (
	InteractionPing      = 1
	InteractionComponent = 3
)

// Interaction callback response type codes.
const (
	ResponsePong                 = 1
	ResponseChannelMessage       = 4
	ResponseEphemeralMessageFlag = 1 << 6
)

// Interaction is the subset of Discord's interaction payload we read.
type Interaction struct {
	Type      int              `json:"type"`
	ID        string           `json:"id"`
	ChannelID string           `json:"channel_id"`
	Message   *InteractionMsg  `json:"message,omitempty"`
	Data      *InteractionData `json:"data,omitempty"`
}

// InteractionMsg identifies the message the component lives in.
type InteractionMsg struct {
	ID string `json:"id"`
}

// InteractionData carries the pressed component's custom id.
type InteractionData struct {
	CustomID      string `json:"custom_id"`
	ComponentType int    `json:"component_type"`
}

// InteractionResponse is the body returned to Discord's callback POST.
type InteractionResponse struct {
	Type int                      `json:"type"`
	Data *InteractionResponseData `json:"data,omitempty"`
}

// InteractionResponseData holds the visible reply for component presses.
type InteractionResponseData struct {
	Content string `json:"content"`
	Flags   int    `json:"flags,omitempty"`
}

// Verifier checks interaction request signatures against the
// application's Ed25519 public key.
type Verifier struct {
	key ed25519.PublicKey
}

// NewVerifier parses a hex-encoded application public key.
func NewVerifier(hexKey string) (*Verifier, error) {
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decoding public key: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(raw))
	}
	return &Verifier{key: ed25519.PublicKey(raw)}, nil
}

// Verify reports whether signature (hex) is valid for timestamp+body.
func (v *Verifier) Verify(timestamp string, body []byte, signature string) bool {
	sig, err := hex.DecodeString(signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}
	msg := make([]byte, 0, len(timestamp)+len(body))
	msg = append(msg, timestamp...)
	msg = append(msg, body...)
	return ed25519.Verify(v.key, msg, sig)
}

// ParseInteraction decodes an interaction request body.
func ParseInteraction(body []byte) (*Interaction, error) {
	var in Interaction
	if err := json.Unmarshal(body, &in); err != nil {
		return nil, fmt.Errorf("parsing interaction: %w", err)
	}
	return &in, nil
}

// Pong is the fixed response to Discord's url-verification ping.
func Pong() *InteractionResponse {
	return &InteractionResponse{Type: ResponsePong}
}

// EphemeralReply builds a private text reply to a component press.
func EphemeralReply(content string) *InteractionResponse {
	return &InteractionResponse{
		Type: ResponseChannelMessage,
		Data: &InteractionResponseData{
			Content: content,
			Flags:   ResponseEphemeralMessageFlag,
		},
	}
}
