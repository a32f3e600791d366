package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrTokenInvalid = errors.New("auth: token invalid")
	ErrTokenExpired = errors.New("auth: token expired")
)

// tokenCodec issues and verifies HMAC-SHA256 signed access tokens of the
// form base64(username.expiryUnix).base64(signature).
type tokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func newTokenCodec(secret []byte, ttl time.Duration) *tokenCodec {
	return &tokenCodec{secret: secret, ttl: ttl, now: time.Now}
}

func (c *tokenCodec) Issue(username string) (string, time.Time) {
	expires := c.now().Add(c.ttl)
	payload := fmt.Sprintf("%s.%d", username, expires.Unix())
	sig := c.sign(payload)
	token := base64.RawURLEncoding.EncodeToString([]byte(payload)) + "." +
		base64.RawURLEncoding.EncodeToString(sig)
	return token, expires
}

func (c *tokenCodec) Verify(token string) (string, error) {
	dot := strings.LastIndexByte(token, '.')
	if dot < 0 {
		return "", ErrTokenInvalid
	}
	payloadRaw, err := base64.RawURLEncoding.DecodeString(token[:dot])
	if err != nil {
		return "", ErrTokenInvalid
	}
	sig, err := base64.RawURLEncoding.DecodeString(token[dot+1:])
	if err != nil {
		return "", ErrTokenInvalid
	}
	if !hmac.Equal(sig, c.sign(string(payloadRaw))) {
		return "", ErrTokenInvalid
	}

	payload := string(payloadRaw)
	sep := strings.LastIndexByte(payload, '.')
	if sep < 0 {
		return "", ErrTokenInvalid
	}
	expiry, err := strconv.ParseInt(payload[sep+1:], 10, 64)
	if err != nil {
		return "", ErrTokenInvalid
	}
	if c.now().Unix() >= expiry {
		return "", ErrTokenExpired
	}
	return payload[:sep], nil
}

func (c *tokenCodec) sign(payload string) []byte {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(payload))
	return mac.Sum(nil)
}
