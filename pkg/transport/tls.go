package transport

import (
	"crypto/tls"
	"errors"
)

// newTLSConfig builds the certificate policy for the recognition endpoint.
// The peer chain is verified against the system roots and the leaf must
// carry the endpoint hostname among its SAN/CN names; a mismatch aborts the
// handshake. InsecureSkipVerify exists for test endpoints only.
func newTLSConfig(hostname string, insecure bool) *tls.Config {
	if insecure {
		return &tls.Config{InsecureSkipVerify: true} // #nosec G402 -- test endpoints only
	}
	return &tls.Config{
		ServerName: hostname,
		MinVersion: tls.VersionTLS12,
		VerifyConnection: func(cs tls.ConnectionState) error {
			if len(cs.PeerCertificates) == 0 {
				return errors.New("no peer certificate presented")
			}
			return cs.PeerCertificates[0].VerifyHostname(hostname)
		},
	}
}
