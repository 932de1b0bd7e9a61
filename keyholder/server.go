// Package keyholder exposes the secret key holder as an HTTP service. The
// computing party posts ciphertexts to be refreshed or decrypted.
package keyholder

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/tuneinsight/lattigo/v6/core/rlwe"
	"github.com/tuneinsight/lattigo/v6/schemes/ckks"

	"helr/core/ckkswrapper"
	"helr/utils"
)

// MaxRequestSize bounds the body of a request.
const MaxRequestSize = 32 << 20

// CiphertextRequest is the body of both POST endpoints.
type CiphertextRequest struct {
	Ciphertext *utils.CiphertextData `json:"ciphertext"`
}

// RefreshResponse carries the re-encrypted ciphertext.
type RefreshResponse struct {
	Ciphertext *utils.CiphertextData `json:"ciphertext"`
}

// DecryptResponse carries the decoded slot values.
type DecryptResponse struct {
	Values []float64 `json:"values"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	MaxLevel  int    `json:"maxLevel"`
	Slots     int    `json:"slots"`
	Timestamp int64  `json:"timestamp"`
}

type server struct {
	keys   ckkswrapper.KeyHolder
	params ckks.Parameters
}

// NewRouter routes /health, /refresh and /decrypt to keys.
func NewRouter(keys ckkswrapper.KeyHolder, params ckks.Parameters) *mux.Router {
	s := &server{keys: keys, params: params}
	router := mux.NewRouter()
	router.HandleFunc("/health", s.healthHandler).Methods("GET")
	router.HandleFunc("/refresh", s.refreshHandler).Methods("POST")
	router.HandleFunc("/decrypt", s.decryptHandler).Methods("POST")
	return router
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}

func (s *server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, HealthResponse{
		Status:    "healthy",
		MaxLevel:  s.params.MaxLevel(),
		Slots:     s.params.MaxSlots(),
		Timestamp: time.Now().Unix(),
	})
}

// readCiphertext decodes the request body, answering the client itself on
// failure.
func (s *server) readCiphertext(w http.ResponseWriter, r *http.Request) (*rlwe.Ciphertext, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestSize)
	var req CiphertextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return nil, false
	}
	if req.Ciphertext == nil {
		http.Error(w, "Missing ciphertext", http.StatusBadRequest)
		return nil, false
	}
	ct, err := utils.DecodeCiphertext(req.Ciphertext, s.params.MaxLevel())
	if err != nil {
		log.Printf("rejected ciphertext: %v", err)
		http.Error(w, fmt.Sprintf("Invalid ciphertext: %v", err), http.StatusBadRequest)
		return nil, false
	}
	return ct, true
}

func (s *server) refreshHandler(w http.ResponseWriter, r *http.Request) {
	ct, ok := s.readCiphertext(w, r)
	if !ok {
		return
	}
	fresh, err := s.keys.Refresh(ct)
	if err != nil {
		log.Printf("refresh failed: %v", err)
		http.Error(w, fmt.Sprintf("Refresh failed: %v", err), http.StatusInternalServerError)
		return
	}
	data, err := utils.EncodeCiphertext(fresh)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to marshal result: %v", err), http.StatusInternalServerError)
		return
	}
	log.Printf("refreshed ciphertext from level %d to %d", ct.Level(), fresh.Level())
	writeJSON(w, RefreshResponse{Ciphertext: data})
}

func (s *server) decryptHandler(w http.ResponseWriter, r *http.Request) {
	ct, ok := s.readCiphertext(w, r)
	if !ok {
		return
	}
	values, err := s.keys.Decrypt(ct)
	if err != nil {
		log.Printf("decrypt failed: %v", err)
		http.Error(w, fmt.Sprintf("Decrypt failed: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, DecryptResponse{Values: values})
}
