// Package auth computes the Authorization header for the recognition
// service handshake: either a static bearer token or an HMAC-SHA256
// signature over the canonicalized connection request.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// Type selects the authentication scheme.
type Type uint8

const (
	TypeToken Type = iota + 1
	TypeSignature
)

// DefaultUserAgent is sent on the handshake and included in the signed
// material. The transport must send exactly this value when the
// authenticator signed with it.
const DefaultUserAgent = "volcasr/1.0"

// Authenticator produces the Authorization header value for one session.
type Authenticator struct {
	Type      Type
	Token     string
	SecretKey string
	UserAgent string
}

// Header computes the header value. For signature auth the full-request
// frame must already be fully built, compressed body included: its bytes are
// part of the signed material, and signing before the frame is final breaks
// every server-side check.
func (a Authenticator) Header(resourcePath string, fullRequest []byte) string {
	if a.Type == TypeSignature {
		return a.signature(resourcePath, fullRequest)
	}
	return "Bearer; " + a.Token
}

var base64URLSafe = strings.NewReplacer("+", "-", "/", "_")

func (a Authenticator) signature(resourcePath string, fullRequest []byte) string {
	ua := a.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}

	var canonical strings.Builder
	canonical.WriteString("GET ")
	canonical.WriteString(resourcePath)
	canonical.WriteString(" HTTP/1.1\n")
	canonical.WriteString(ua)
	canonical.WriteString("\n")
	canonical.Write(fullRequest)

	mac := hmac.New(sha256.New, []byte(a.SecretKey))
	mac.Write([]byte(canonical.String()))
	digest := base64URLSafe.Replace(base64.StdEncoding.EncodeToString(mac.Sum(nil)))

	var b strings.Builder
	b.WriteString(`HMAC256; access_token="`)
	b.WriteString(a.Token)
	b.WriteString(`"; mac="`)
	b.WriteString(digest)
	b.WriteString(`"; h="User-Agent"`)
	return b.String()
}
