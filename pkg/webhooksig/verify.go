// Package webhooksig verifies processor webhook signatures.
//
// The signature header has the form
//
//	t=<unix-timestamp>,v1=<hex-hmac>[,v1=<hex-hmac>...]
//
// where each v1 value is HMAC-SHA256(secret, "<timestamp>.<raw body>").
// Multiple v1 entries appear while the processor rotates signing secrets;
// the request is valid if any candidate matches.
package webhooksig

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// Verify reports whether the raw body carries a valid signature produced
// within maxSkew of now. It is pure: no state is touched before or after.
func Verify(rawBody []byte, signatureHeader string, signingSecret []byte, now time.Time, maxSkew time.Duration) bool {
	timestamp, candidates, ok := parseHeader(signatureHeader)
	if !ok {
		return false
	}

	// Replay defense: a stale timestamp fails even with a valid signature.
	if now.Sub(time.Unix(timestamp, 0)) > maxSkew {
		return false
	}

	mac := hmac.New(sha256.New, signingSecret)
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(rawBody)
	expected := mac.Sum(nil)

	for _, candidate := range candidates {
		sig, err := hex.DecodeString(candidate)
		if err != nil {
			continue
		}
		if hmac.Equal(sig, expected) {
			return true
		}
	}
	return false
}

// parseHeader splits "t=...,v1=...,v1=..." into the timestamp and the
// candidate signatures. Unknown schemes (v0 etc.) are ignored.
func parseHeader(header string) (int64, []string, bool) {
	var (
		timestamp  int64
		hasTime    bool
		candidates []string
	)

	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return 0, nil, false
			}
			timestamp = ts
			hasTime = true
		case "v1":
			candidates = append(candidates, kv[1])
		}
	}

	if !hasTime || len(candidates) == 0 {
		return 0, nil, false
	}
	return timestamp, candidates, true
}
