package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"blockprobe/internal/crypto"
)

func newTestServer(t *testing.T) (*Victims, *httptest.Server) {
	t.Helper()
	v, err := NewVictims(crypto.NewSource([]byte("server")))
	if err != nil { t.Fatal(err) }
	srv := httptest.NewServer(NewServer(v))
	t.Cleanup(srv.Close)
	return v, srv
}

func TestRemoteEncryptMatchesLocal(t *testing.T) {
	v, srv := newTestServer(t)
	ctx := context.Background()
	r := &Remote{BaseURL: srv.URL + "/", Name: NameSuffix, Client: srv.Client()}
	in := []byte("YELLOW SUBMARINE")
	got, err := r.Encrypt(ctx, in)
	if err != nil { t.Fatal(err) }
	want, _ := v.Suffix.Encrypt(ctx, in)
	if !bytes.Equal(got, want) { t.Fatal("remote ciphertext differs from local") }
}

func TestRemoteVerify(t *testing.T) {
	v, srv := newTestServer(t)
	ctx := context.Background()
	r := &Remote{BaseURL: srv.URL, Name: NameProfile, Client: srv.Client()}
	ct, err := r.Encrypt(ctx, []byte("foo@bar.com"))
	if err != nil { t.Fatal(err) }
	ok, err := r.Verify(ctx, ct)
	if err != nil || ok { t.Fatalf("accepted=%v err=%v", ok, err) }
	if kv, err := v.Profile.Decode(ct); err != nil || kv["email"] != "foo@bar.com" { t.Fatalf("got %v, %v", kv, err) }
}

func TestRemoteErrors(t *testing.T) {
	_, srv := newTestServer(t)
	ctx := context.Background()
	if _, err := (&Remote{BaseURL: srv.URL, Name: "nope", Client: srv.Client()}).Encrypt(ctx, nil); err == nil { t.Fatal("expected unknown oracle error") }
	if _, err := (&Remote{BaseURL: srv.URL, Name: NameProfile, Client: srv.Client()}).Encrypt(ctx, []byte("a&role=admin")); err == nil { t.Fatal("expected metacharacter error") }
	if _, err := (&Remote{BaseURL: srv.URL, Name: NameCookie, Client: srv.Client()}).Verify(ctx, []byte("short")); err == nil { t.Fatal("expected length error") }
	if _, err := (&Remote{BaseURL: srv.URL, Name: NameSuffix, Client: srv.Client()}).Verify(ctx, make([]byte, 16)); err == nil { t.Fatal("suffix oracle has no verify") }
}

func TestRemotePadding(t *testing.T) {
	_, srv := newTestServer(t)
	ctx := context.Background()
	r := &Remote{BaseURL: srv.URL, Name: NamePadding, Client: srv.Client()}
	ct, iv, err := r.Challenge(ctx)
	if err != nil { t.Fatal(err) }
	if len(iv) != 16 || len(ct)%16 != 0 { t.Fatalf("iv %d bytes, ciphertext %d bytes", len(iv), len(ct)) }
	ok, err := r.ValidPadding(ctx, ct, iv)
	if err != nil || !ok { t.Fatalf("valid=%v err=%v", ok, err) }
	if _, err := r.ValidPadding(ctx, ct[:5], iv); err == nil { t.Fatal("expected length error") }
}

func TestListOracles(t *testing.T) {
	_, srv := newTestServer(t)
	resp, err := srv.Client().Get(srv.URL + "/oracles")
	if err != nil { t.Fatal(err) }
	defer resp.Body.Close()
	var body struct{ Oracles []string `json:"oracles"` }
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil { t.Fatal(err) }
	want := []string{NameCoinToss, NameCookie, NamePadding, NameProfile, NameSuffix}
	if len(body.Oracles) != len(want) { t.Fatalf("got %v", body.Oracles) }
	for i := range want {
		if body.Oracles[i] != want[i] { t.Fatalf("got %v, want %v", body.Oracles, want) }
	}
}

func TestEncryptRejectsWrongMethod(t *testing.T) {
	_, srv := newTestServer(t)
	resp, err := srv.Client().Get(srv.URL + "/oracles/suffix/encrypt")
	if err != nil { t.Fatal(err) }
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed { t.Fatalf("status %d", resp.StatusCode) }
}
