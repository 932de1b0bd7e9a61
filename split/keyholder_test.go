package split

import (
	"math"
	"net"
	"testing"

	"helr/core/ckkswrapper"
)

// startKeyHolder serves h on one end of an in-memory connection and returns
// a protocol for the other end plus a channel reporting Serve's result.
func startKeyHolder(t *testing.T, h *ckkswrapper.HeContext) (*Protocol, <-chan error) {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})

	done := make(chan error, 1)
	go func() {
		done <- Serve(NewProtocol(server, server), h, h.Params)
	}()
	return NewProtocol(client, client), done
}

func TestRemoteKeyHolderRefresh(t *testing.T) {
	h, err := ckkswrapper.NewHeContextWithOptions(ckkswrapper.OptionsWithDepth(12, 2))
	if err != nil {
		t.Fatalf("NewHeContextWithOptions failed: %v", err)
	}
	kit := h.GenServerKit(nil)
	p, done := startKeyHolder(t, h)
	remote := NewRemoteKeyHolder(p, h.Params)

	ct, err := h.EncryptValues([]float64{0.5, -0.25})
	if err != nil {
		t.Fatalf("EncryptValues failed: %v", err)
	}
	sq, err := ckkswrapper.MulRelinRescale(kit, ct, ct)
	if err != nil {
		t.Fatalf("MulRelinRescale failed: %v", err)
	}

	fresh, err := remote.Refresh(sq)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if fresh.Level() != h.Params.MaxLevel() {
		t.Errorf("Level = %d, want %d", fresh.Level(), h.Params.MaxLevel())
	}

	values, err := remote.Decrypt(fresh)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	for i, want := range []float64{0.25, 0.0625} {
		if math.Abs(values[i]-want) > 1e-4 {
			t.Errorf("slot %d = %f, want %f", i, values[i], want)
		}
	}

	if err := remote.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := <-done; err != nil {
		t.Errorf("Serve returned %v", err)
	}
}

func TestServeReportsBadRequests(t *testing.T) {
	h, err := ckkswrapper.NewHeContextWithOptions(ckkswrapper.OptionsWithDepth(12, 1))
	if err != nil {
		t.Fatalf("NewHeContextWithOptions failed: %v", err)
	}
	p, done := startKeyHolder(t, h)

	ct, err := h.EncryptValues([]float64{1})
	if err != nil {
		t.Fatalf("EncryptValues failed: %v", err)
	}
	// A response type is not a request.
	if err := p.SendCiphertext(MsgRefreshResponse, 1, ct); err != nil {
		t.Fatalf("SendCiphertext failed: %v", err)
	}
	if _, err := p.ReceiveCiphertext(MsgRefreshResponse); err == nil {
		t.Errorf("Expected remote error for a misdirected message")
	}

	// The loop keeps serving after an error.
	remote := NewRemoteKeyHolder(p, h.Params)
	if _, err := remote.Decrypt(ct); err != nil {
		t.Fatalf("Decrypt after error failed: %v", err)
	}
	if err := remote.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := <-done; err != nil {
		t.Errorf("Serve returned %v", err)
	}
}
