package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/gymcore/license-server/pkg/types"
)

// Signer wraps public API payloads in a keyed-hash envelope so clients can
// detect local or in-transit rewrites of the response body.
type Signer struct {
	secret []byte
}

func New(secret string) (*Signer, error) {
	if secret == "" {
		return nil, fmt.Errorf("response signing secret is required")
	}
	return &Signer{secret: []byte(secret)}, nil
}

// Envelope marshals the payload exactly once and MACs those bytes together
// with the timestamp. The marshaled bytes are embedded verbatim in the
// envelope, so the signature always covers the byte sequence the client
// receives on the wire.
func (s *Signer) Envelope(payload any, now time.Time) (*types.SignedEnvelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	ts := now.Unix()
	return &types.SignedEnvelope{
		Payload:   raw,
		Timestamp: ts,
		Signature: s.sign(raw, ts),
	}, nil
}

// Verify recomputes the MAC over the envelope's raw payload bytes and
// timestamp. It is used by tests and mirrors what clients do.
func (s *Signer) Verify(env *types.SignedEnvelope) bool {
	if env == nil {
		return false
	}
	expected := s.sign(env.Payload, env.Timestamp)
	return hmac.Equal([]byte(expected), []byte(env.Signature))
}

func (s *Signer) sign(payload []byte, timestamp int64) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(payload)
	mac.Write([]byte("."))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}
