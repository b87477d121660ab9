package token

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultCertsURL serves the identity provider's current token-signing
// certificates as a JSON map of key id to PEM certificate.
const DefaultCertsURL = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken%40system.gserviceaccount.com"

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrUnknownKey   = errors.New("token signed with unknown key")
)

// Claims carries the verified caller identity extracted from an ID token.
type Claims struct {
	Subject string
	Email   string
}

type idTokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// KeySource resolves a signing key id to the provider's RSA public key.
type KeySource interface {
	KeyFor(kid string) (*rsa.PublicKey, error)
}

// Verifier validates RS256 ID tokens issued for a single project by an
// external identity provider.
type Verifier struct {
	projectID string
	keys      KeySource
	issuer    string
}

func NewVerifier(projectID string, keys KeySource) *Verifier {
	return &Verifier{
		projectID: projectID,
		keys:      keys,
		issuer:    "https://securetoken.google.com/" + projectID,
	}
}

// Verify checks the token signature against the provider certificates and
// validates the standard ID token claims. The returned error carries the
// provider-side detail so callers can surface it.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &idTokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		kid, ok := t.Header["kid"].(string)
		if !ok || kid == "" {
			return nil, errors.New("token has no key id")
		}
		return v.keys.KeyFor(kid)
	},
		jwt.WithAudience(v.projectID),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*idTokenClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}

	return &Claims{Subject: claims.Subject, Email: claims.Email}, nil
}

// ParseCertificates decodes a JSON map of key id to PEM certificate into
// usable RSA public keys. This is the format the provider serves remotely
// and the format expected in a local certificate file.
func ParseCertificates(data []byte) (map[string]*rsa.PublicKey, error) {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("malformed certificate data: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("certificate data contains no keys")
	}

	keys := make(map[string]*rsa.PublicKey, len(raw))
	for kid, certPEM := range raw {
		block, _ := pem.Decode([]byte(certPEM))
		if block == nil {
			return nil, fmt.Errorf("key %s: not PEM encoded", kid)
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", kid, err)
		}
		rsaKey, ok := cert.PublicKey.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("key %s: not an RSA key", kid)
		}
		keys[kid] = rsaKey
	}
	return keys, nil
}

// expiresFromMaxAge turns a Cache-Control max-age into an absolute deadline.
func expiresFromMaxAge(maxAge int) time.Time {
	if maxAge <= 0 {
		maxAge = 300
	}
	return time.Now().Add(time.Duration(maxAge) * time.Second)
}
