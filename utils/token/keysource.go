package token

import (
	"crypto/rsa"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"sync"
	"time"
)

// StaticKeySource serves keys loaded once from local key material.
type StaticKeySource struct {
	keys map[string]*rsa.PublicKey
}

// NewStaticKeySource reads a JSON certificate file from disk.
func NewStaticKeySource(path string) (*StaticKeySource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read certificate file: %w", err)
	}
	keys, err := ParseCertificates(data)
	if err != nil {
		return nil, err
	}
	return &StaticKeySource{keys: keys}, nil
}

func (s *StaticKeySource) KeyFor(kid string) (*rsa.PublicKey, error) {
	key, ok := s.keys[kid]
	if !ok {
		return nil, ErrUnknownKey
	}
	return key, nil
}

var maxAgePattern = regexp.MustCompile(`max-age=(\d+)`)

// RemoteKeySource fetches provider certificates over HTTP and caches them
// until the Cache-Control max-age deadline. Signing keys rotate, so an
// unknown kid after expiry triggers a refetch.
type RemoteKeySource struct {
	url    string
	client *http.Client

	mu      sync.Mutex
	keys    map[string]*rsa.PublicKey
	expires time.Time
}

// NewRemoteKeySource performs an initial fetch so that an unreachable
// provider is detected at construction time rather than on first request.
func NewRemoteKeySource(url string, timeout time.Duration) (*RemoteKeySource, error) {
	if url == "" {
		url = DefaultCertsURL
	}
	src := &RemoteKeySource{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
	if err := src.refresh(); err != nil {
		return nil, err
	}
	return src, nil
}

func (r *RemoteKeySource) KeyFor(kid string) (*rsa.PublicKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if time.Now().After(r.expires) {
		if err := r.refreshLocked(); err != nil {
			return nil, err
		}
	}
	key, ok := r.keys[kid]
	if !ok {
		return nil, ErrUnknownKey
	}
	return key, nil
}

func (r *RemoteKeySource) refresh() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refreshLocked()
}

func (r *RemoteKeySource) refreshLocked() error {
	resp, err := r.client.Get(r.url)
	if err != nil {
		return fmt.Errorf("failed to fetch provider certificates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("certificate endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read certificate response: %w", err)
	}

	keys, err := ParseCertificates(body)
	if err != nil {
		return err
	}

	maxAge := 0
	if m := maxAgePattern.FindStringSubmatch(resp.Header.Get("Cache-Control")); m != nil {
		maxAge, _ = strconv.Atoi(m[1])
	}

	r.keys = keys
	r.expires = expiresFromMaxAge(maxAge)
	return nil
}
