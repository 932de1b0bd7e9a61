package keyholder

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tuneinsight/lattigo/v6/core/rlwe"
	"github.com/tuneinsight/lattigo/v6/schemes/ckks"

	"helr/core/ckkswrapper"
	"helr/utils"
)

// Client calls a key holder service.
type Client struct {
	baseURL string
	params  ckks.Parameters
	http    *http.Client
}

var _ ckkswrapper.KeyHolder = (*Client)(nil)

// NewClient targets baseURL. A nil httpClient uses http.DefaultClient.
func NewClient(baseURL string, params ckks.Parameters, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), params: params, http: httpClient}
}

func (c *Client) post(path string, ct *rlwe.Ciphertext, out interface{}) error {
	data, err := utils.EncodeCiphertext(ct)
	if err != nil {
		return err
	}
	body, err := json.Marshal(CiphertextRequest{Ciphertext: data})
	if err != nil {
		return err
	}

	resp, err := c.http.Post(c.baseURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("POST %s: %s: %s", path, resp.Status, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("POST %s: decode response: %w", path, err)
	}
	return nil
}

func (c *Client) Refresh(ct *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	var resp RefreshResponse
	if err := c.post("/refresh", ct, &resp); err != nil {
		return nil, err
	}
	if resp.Ciphertext == nil {
		return nil, fmt.Errorf("refresh response without ciphertext")
	}
	return utils.DecodeCiphertext(resp.Ciphertext, c.params.MaxLevel())
}

func (c *Client) Decrypt(ct *rlwe.Ciphertext) ([]float64, error) {
	var resp DecryptResponse
	if err := c.post("/decrypt", ct, &resp); err != nil {
		return nil, err
	}
	return resp.Values, nil
}

// Health fetches the service status.
func (c *Client) Health() (*HealthResponse, error) {
	resp, err := c.http.Get(c.baseURL + "/health")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET /health: %s", resp.Status)
	}
	var h HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return nil, err
	}
	return &h, nil
}
