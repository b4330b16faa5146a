package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/mux"

	"blockprobe/internal/crypto"
	"blockprobe/pkg/logx"
)

const maxBody = 1 << 20

type encrypter interface {
	Encrypt(ctx context.Context, input []byte) ([]byte, error)
}

type verifier interface {
	Verify(ctx context.Context, ciphertext []byte) (bool, error)
}

// PaddingChallenge is the wire form of a padding victim challenge and check request.
type PaddingChallenge struct {
	Ciphertext []byte `json:"ciphertext"`
	IV         []byte `json:"iv"`
}

type server struct {
	enc     map[string]encrypter
	verify  map[string]verifier
	padding map[string]*Padding
}

// NewServer exposes v over HTTP:
//
//	GET  /oracles                    list of names
//	POST /oracles/{name}/encrypt     raw input -> raw ciphertext
//	POST /oracles/{name}/verify      raw ciphertext -> {"accepted":bool}
//	GET  /oracles/{name}/challenge   -> {"ciphertext","iv"}
//	POST /oracles/{name}/check       {"ciphertext","iv"} -> {"valid":bool}
func NewServer(v *Victims) http.Handler {
	s := &server{
		enc: map[string]encrypter{
			NameSuffix:   v.Suffix,
			NameCoinToss: v.CoinToss,
			NameCookie:   v.Cookie,
			NameProfile:  v.Profile,
		},
		verify: map[string]verifier{
			NameCookie:  v.Cookie,
			NameProfile: v.Profile,
		},
		padding: map[string]*Padding{NamePadding: v.Padding},
	}
	r := mux.NewRouter()
	r.Use(logRequests)
	r.HandleFunc("/oracles", s.handleList).Methods("GET")
	r.HandleFunc("/oracles/{name}/encrypt", s.handleEncrypt).Methods("POST")
	r.HandleFunc("/oracles/{name}/verify", s.handleVerify).Methods("POST")
	r.HandleFunc("/oracles/{name}/challenge", s.handleChallenge).Methods("GET")
	r.HandleFunc("/oracles/{name}/check", s.handleCheck).Methods("POST")
	return r
}

// Serve listens on addr until the listener fails.
func Serve(addr string, v *Victims) error {
	logx.Infof("oracle server listening on %s", addr)
	srv := &http.Server{Addr: addr, Handler: NewServer(v), ReadHeaderTimeout: 10 * time.Second}
	return srv.ListenAndServe()
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logx.WithFields(map[string]any{
			"method":   r.Method,
			"path":     r.URL.Path,
			"bytes_in": r.ContentLength,
			"took":     time.Since(start).String(),
		}).Debug("oracle request")
	})
}

func (s *server) handleList(w http.ResponseWriter, r *http.Request) {
	names := []string{}
	for n := range s.enc {
		names = append(names, n)
	}
	for n := range s.padding {
		names = append(names, n)
	}
	sort.Strings(names)
	writeJSON(w, map[string]any{"oracles": names})
}

func (s *server) handleEncrypt(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	o, ok := s.enc[name]
	if !ok {
		http.Error(w, unknown(name).Error(), http.StatusNotFound)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ct, err := o.Encrypt(r.Context(), body)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(ct)
}

func (s *server) handleVerify(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	o, ok := s.verify[name]
	if !ok {
		http.Error(w, unknown(name).Error(), http.StatusNotFound)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	accepted, err := o.Verify(r.Context(), body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"accepted": accepted})
}

func (s *server) handleChallenge(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	p, ok := s.padding[name]
	if !ok {
		http.Error(w, unknown(name).Error(), http.StatusNotFound)
		return
	}
	ct, iv, err := p.Challenge(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, PaddingChallenge{Ciphertext: ct, IV: iv})
}

func (s *server) handleCheck(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	p, ok := s.padding[name]
	if !ok {
		http.Error(w, unknown(name).Error(), http.StatusNotFound)
		return
	}
	var req PaddingChallenge
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	valid, err := p.ValidPadding(r.Context(), req.Ciphertext, req.IV)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"valid": valid})
}

// writeError maps victim input errors to 400 and everything else to 500.
func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	if errors.Is(err, crypto.ErrInvalidLength) || errors.Is(err, ErrMetacharacter) {
		code = http.StatusBadRequest
	}
	http.Error(w, err.Error(), code)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Warnf("encode response: %v", err)
	}
}
