package slack

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"
)

// signature version prefix defined by the Slack events API
const signatureVersion = "v0"

// maximum clock skew before a signed request is considered a replay
const signatureMaxAge = 5 * time.Minute

var (
	ErrStaleTimestamp   = errors.New("request timestamp outside tolerance")
	ErrBadSignature     = errors.New("request signature mismatch")
	ErrMissingSignature = errors.New("request signature headers missing")
)

// VerifySignature checks the X-Slack-Signature header against an HMAC
// of "v0:<timestamp>:<body>" keyed with the signing secret, rejecting
// requests older than five minutes.
func VerifySignature(signingSecret, timestamp, signature string, body []byte) error {
	return verifySignatureAt(signingSecret, timestamp, signature, body, time.Now())
}

func verifySignatureAt(signingSecret, timestamp, signature string, body []byte, now time.Time) error {
	if timestamp == "" || signature == "" {
		return ErrMissingSignature
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrStaleTimestamp
	}
	age := now.Sub(time.Unix(ts, 0))
	if age > signatureMaxAge || age < -signatureMaxAge {
		return ErrStaleTimestamp
	}

	mac := hmac.New(sha256.New, []byte(signingSecret))
	mac.Write([]byte(signatureVersion + ":" + timestamp + ":"))
	mac.Write(body)
	expected := signatureVersion + "=" + hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrBadSignature
	}
	return nil
}
