package slack

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"testing"
	"time"
)

func signBody(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("v0:" + timestamp + ":"))
	mac.Write(body)
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	secret := "8f742231b10e8888abcd99yyyzzz85a5"
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	body := []byte(`{"type":"event_callback"}`)
	ts := strconv.FormatInt(now.Unix(), 10)

	t.Run("valid", func(t *testing.T) {
		sig := signBody(secret, ts, body)
		if err := verifySignatureAt(secret, ts, sig, body, now); err != nil {
			t.Fatalf("verify failed: %v", err)
		}
	})

	t.Run("tampered body", func(t *testing.T) {
		sig := signBody(secret, ts, body)
		err := verifySignatureAt(secret, ts, sig, []byte(`{"type":"tampered"}`), now)
		if !errors.Is(err, ErrBadSignature) {
			t.Fatalf("error = %v, want ErrBadSignature", err)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		sig := signBody("other-secret", ts, body)
		err := verifySignatureAt(secret, ts, sig, body, now)
		if !errors.Is(err, ErrBadSignature) {
			t.Fatalf("error = %v, want ErrBadSignature", err)
		}
	})

	t.Run("stale timestamp", func(t *testing.T) {
		old := strconv.FormatInt(now.Add(-6*time.Minute).Unix(), 10)
		sig := signBody(secret, old, body)
		err := verifySignatureAt(secret, old, sig, body, now)
		if !errors.Is(err, ErrStaleTimestamp) {
			t.Fatalf("error = %v, want ErrStaleTimestamp", err)
		}
	})

	t.Run("future timestamp", func(t *testing.T) {
		future := strconv.FormatInt(now.Add(10*time.Minute).Unix(), 10)
		sig := signBody(secret, future, body)
		err := verifySignatureAt(secret, future, sig, body, now)
		if !errors.Is(err, ErrStaleTimestamp) {
			t.Fatalf("error = %v, want ErrStaleTimestamp", err)
		}
	})

	t.Run("missing headers", func(t *testing.T) {
		err := verifySignatureAt(secret, "", "", body, now)
		if !errors.Is(err, ErrMissingSignature) {
			t.Fatalf("error = %v, want ErrMissingSignature", err)
		}
	})

	t.Run("non numeric timestamp", func(t *testing.T) {
		err := verifySignatureAt(secret, "not-a-number", "v0=abc", body, now)
		if !errors.Is(err, ErrStaleTimestamp) {
			t.Fatalf("error = %v, want ErrStaleTimestamp", err)
		}
	})
}
