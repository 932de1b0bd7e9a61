package keyholder

import (
	"bytes"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helr/advisor"
	"helr/core/ckkswrapper"
	"helr/dataset"
	"helr/lr"
	"helr/utils"
)

func init() {
	log.SetOutput(io.Discard)
	utils.Verbose = false
}

func newService(t *testing.T, depth int) (*ckkswrapper.HeContext, *Client) {
	t.Helper()
	h, err := ckkswrapper.NewHeContextWithOptions(ckkswrapper.OptionsWithDepth(12, depth))
	require.NoError(t, err)
	srv := httptest.NewServer(NewRouter(h, h.Params))
	t.Cleanup(srv.Close)
	return h, NewClient(srv.URL+"/", h.Params, srv.Client())
}

func TestHealth(t *testing.T) {
	h, c := newService(t, 2)
	resp, err := c.Health()
	require.NoError(t, err)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, h.Params.MaxLevel(), resp.MaxLevel)
	assert.Equal(t, h.Params.MaxSlots(), resp.Slots)
}

func TestRefreshAndDecrypt(t *testing.T) {
	h, c := newService(t, 2)
	kit := h.GenServerKit(nil)

	ct, err := h.EncryptValues([]float64{0.5, -0.75})
	require.NoError(t, err)
	low, err := ckkswrapper.MulRelinRescale(kit, ct, ct)
	require.NoError(t, err)

	fresh, err := c.Refresh(low)
	require.NoError(t, err)
	assert.Equal(t, h.Params.MaxLevel(), fresh.Level())

	values, err := c.Decrypt(fresh)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, values[0], 1e-4)
	assert.InDelta(t, 0.5625, values[1], 1e-4)
}

func TestRejectsBadRequests(t *testing.T) {
	h, _ := newService(t, 1)
	srv := httptest.NewServer(NewRouter(h, h.Params))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/refresh", "application/json", bytes.NewBufferString("{"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/decrypt", "application/json", bytes.NewBufferString(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/decrypt", "application/json",
		bytes.NewBufferString(`{"ciphertext":{"level":0,"scale":1,"data":"AAAA"}}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/refresh")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestClientRejectsHigherLevelThanItsParameters(t *testing.T) {
	// The service runs a longer chain than the client expects.
	h, remote := newService(t, 3)
	short, err := ckkswrapper.NewHeContextWithOptions(ckkswrapper.OptionsWithDepth(12, 2))
	require.NoError(t, err)
	c := NewClient(remote.baseURL, short.Params, nil)

	ct, err := h.EncryptValues([]float64{1})
	require.NoError(t, err)
	_, err = c.Refresh(ct)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds maximum")
}

func TestTrainerOverHTTP(t *testing.T) {
	const rows, features = 8, 2
	h, c := newService(t, 7)
	kit := h.GenServerKit(advisor.TrainingRotations(rows, features))

	d, err := dataset.Synthetic(rows, []float64{1, -1}, 0.25, 9)
	require.NoError(t, err)

	cfg := lr.DefaultConfig()
	cfg.Iterations = 1
	cfg.ReportEvery = 1
	cfg.InitWeights = []float64{0.2, 0.1}

	tr, err := lr.NewTrainer(cfg, kit, c)
	require.NoError(t, err)
	require.NoError(t, tr.Load(d))
	_, err = tr.Run()
	require.NoError(t, err)

	act, err := lr.Surrogate(cfg)
	require.NoError(t, err)
	want, err := lr.TrainPlain(d, cfg.InitWeights, cfg, act)
	require.NoError(t, err)
	require.Len(t, tr.Snapshots(), 1)
	assert.InDeltaSlice(t, want[0], tr.Snapshots()[0].Weights, 1e-3)
}
