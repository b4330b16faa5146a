package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/samber/oops"
)

// Remote talks to a victim served by NewServer. It satisfies the same capabilities as the
// in-process victims, so attacks run unchanged against it.
type Remote struct {
	BaseURL string
	Name    string
	Client  *http.Client
}

func (r *Remote) client() *http.Client {
	if r.Client != nil {
		return r.Client
	}
	return http.DefaultClient
}

func (r *Remote) endpoint(op string) string {
	return strings.TrimRight(r.BaseURL, "/") + "/oracles/" + url.PathEscape(r.Name) + "/" + op
}

func (r *Remote) do(ctx context.Context, method, op, contentType string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, r.endpoint(op), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := r.client().Do(req)
	if err != nil {
		return nil, oops.In("oracle").With("oracle", r.Name, "op", op).Wrap(err)
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, oops.In("oracle").With("oracle", r.Name, "op", op, "status", resp.StatusCode).
			Errorf("remote oracle: %s", strings.TrimSpace(string(out)))
	}
	return out, nil
}

func (r *Remote) Encrypt(ctx context.Context, input []byte) ([]byte, error) {
	return r.do(ctx, http.MethodPost, "encrypt", "application/octet-stream", input)
}

func (r *Remote) Verify(ctx context.Context, ciphertext []byte) (bool, error) {
	out, err := r.do(ctx, http.MethodPost, "verify", "application/octet-stream", ciphertext)
	if err != nil {
		return false, err
	}
	var resp struct {
		Accepted bool `json:"accepted"`
	}
	if err := json.Unmarshal(out, &resp); err != nil {
		return false, fmt.Errorf("decode verify response: %w", err)
	}
	return resp.Accepted, nil
}

func (r *Remote) Challenge(ctx context.Context) (ciphertext, iv []byte, err error) {
	out, err := r.do(ctx, http.MethodGet, "challenge", "", nil)
	if err != nil {
		return nil, nil, err
	}
	var c PaddingChallenge
	if err := json.Unmarshal(out, &c); err != nil {
		return nil, nil, fmt.Errorf("decode challenge: %w", err)
	}
	return c.Ciphertext, c.IV, nil
}

func (r *Remote) ValidPadding(ctx context.Context, ciphertext, iv []byte) (bool, error) {
	body, err := json.Marshal(PaddingChallenge{Ciphertext: ciphertext, IV: iv})
	if err != nil {
		return false, err
	}
	out, err := r.do(ctx, http.MethodPost, "check", "application/json", body)
	if err != nil {
		return false, err
	}
	var resp struct {
		Valid bool `json:"valid"`
	}
	if err := json.Unmarshal(out, &resp); err != nil {
		return false, fmt.Errorf("decode check response: %w", err)
	}
	return resp.Valid, nil
}
