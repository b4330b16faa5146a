// Package probes resolves where probes send their queries: victims built in-process from a
// seed, or a victim server reached over HTTP.
package probes

import (
	"context"
	"net/http"
	"time"

	"github.com/samber/oops"

	"blockprobe/internal/attack"
	"blockprobe/internal/crypto"
	"blockprobe/internal/oracle"
	"blockprobe/pkg/logx"
)

// Verifier accepts or rejects a forged ciphertext.
type Verifier interface {
	Verify(ctx context.Context, ciphertext []byte) (bool, error)
}

// PaddingVictim hands out challenges and answers padding queries.
type PaddingVictim interface {
	attack.PaddingOracle
	Challenge(ctx context.Context) (ciphertext, iv []byte, err error)
}

// Target is either Local or a remote BaseURL.
type Target struct {
	Local   *oracle.Victims
	BaseURL string
	Client  *http.Client
}

// NewTarget returns a remote target for a non-empty baseURL, otherwise fresh local victims.
// A seed makes local victims reproducible; without one they use crypto/rand.
func NewTarget(baseURL, seed string) (*Target, error) {
	if baseURL != "" {
		// attacks issue many small sequential requests; keep enough idle connections for every worker
		tr := &http.Transport{Proxy: http.ProxyFromEnvironment, MaxIdleConnsPerHost: 64}
		return &Target{BaseURL: baseURL, Client: &http.Client{Timeout: 30 * time.Second, Transport: tr}}, nil
	}
	var src = crypto.NewSource(nil)
	if seed != "" {
		k, err := crypto.Derive([]byte(seed), nil, []byte("blockprobe/victims"), 32)
		if err != nil { return nil, err }
		src = crypto.NewSource(k)
	}
	v, err := oracle.NewVictims(src)
	if err != nil { return nil, err }
	logx.Debugf("using in-process victims (seeded=%t)", seed != "")
	return &Target{Local: v}, nil
}

// Label names the target in reports.
func (t *Target) Label() string {
	if t.Local != nil { return "local" }
	return t.BaseURL
}

func (t *Target) remote(name string) *oracle.Remote {
	return &oracle.Remote{BaseURL: t.BaseURL, Name: name, Client: t.Client}
}

// Encrypter returns the named oracle's encryption capability.
func (t *Target) Encrypter(name string) attack.Oracle {
	if t.Local == nil { return t.remote(name) }
	switch name {
	case oracle.NameSuffix: return t.Local.Suffix
	case oracle.NameCoinToss: return t.Local.CoinToss
	case oracle.NameCookie: return t.Local.Cookie
	case oracle.NameProfile: return t.Local.Profile
	}
	return missing(name)
}

// Verifier returns the named oracle's acceptance check.
func (t *Target) Verifier(name string) Verifier {
	if t.Local == nil { return t.remote(name) }
	switch name {
	case oracle.NameCookie: return t.Local.Cookie
	case oracle.NameProfile: return t.Local.Profile
	}
	return missing(name)
}

func (t *Target) Padding() PaddingVictim {
	if t.Local == nil { return t.remote(oracle.NamePadding) }
	return t.Local.Padding
}

// missingOracle fails every call, for names the local victims do not serve.
type missingOracle string

func missing(name string) missingOracle { return missingOracle(name) }

func (m missingOracle) err() error {
	return oops.In("probes").With("name", string(m)).Wrap(oracle.ErrUnknownOracle)
}

func (m missingOracle) Encrypt(context.Context, []byte) ([]byte, error) { return nil, m.err() }
func (m missingOracle) Verify(context.Context, []byte) (bool, error) { return false, m.err() }
