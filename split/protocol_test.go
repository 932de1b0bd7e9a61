package split

import (
	"bytes"
	"io"
	"testing"

	"helr/core/ckkswrapper"
)

func TestProtocolCiphertextRoundTrip(t *testing.T) {
	h, err := ckkswrapper.NewHeContextWithOptions(ckkswrapper.OptionsWithDepth(12, 2))
	if err != nil {
		t.Fatalf("NewHeContextWithOptions failed: %v", err)
	}
	ct, err := h.EncryptValues([]float64{0.25, -0.5})
	if err != nil {
		t.Fatalf("EncryptValues failed: %v", err)
	}

	var buf bytes.Buffer
	writer := NewProtocol(nil, &buf)
	if err := writer.SendCiphertext(MsgRefreshRequest, 7, ct); err != nil {
		t.Fatalf("SendCiphertext failed: %v", err)
	}

	reader := NewProtocol(&buf, nil)
	payload, err := reader.ReceiveCiphertext(MsgRefreshRequest)
	if err != nil {
		t.Fatalf("ReceiveCiphertext failed: %v", err)
	}
	if payload.RequestID != 7 {
		t.Errorf("RequestID = %d, want 7", payload.RequestID)
	}
	if payload.Level != ct.Level() {
		t.Errorf("Level = %d, want %d", payload.Level, ct.Level())
	}
	if payload.ScaleFloat != ct.Scale.Float64() {
		t.Errorf("ScaleFloat = %f, want %f", payload.ScaleFloat, ct.Scale.Float64())
	}

	got, err := payload.Decode(h.Params.MaxLevel())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !got.Equal(ct) {
		t.Errorf("decoded ciphertext differs from the original")
	}
	if _, err := payload.Decode(ct.Level() - 1); err == nil {
		t.Errorf("Expected error decoding above the maximum level")
	}

	payload.Level++
	if _, err := payload.Decode(h.Params.MaxLevel() + 1); err == nil {
		t.Errorf("Expected error on a mismatched declared level")
	}
}

func TestProtocolValues(t *testing.T) {
	var buf bytes.Buffer
	writer := NewProtocol(nil, &buf)

	if err := writer.SendValues(42, []float64{1.5, -2}); err != nil {
		t.Fatalf("SendValues failed: %v", err)
	}

	reader := NewProtocol(&buf, nil)
	payload, err := reader.ReceiveValues()
	if err != nil {
		t.Fatalf("ReceiveValues failed: %v", err)
	}
	if payload.RequestID != 42 {
		t.Errorf("RequestID = %d, want 42", payload.RequestID)
	}
	if len(payload.Values) != 2 || payload.Values[0] != 1.5 || payload.Values[1] != -2 {
		t.Errorf("Values = %v, want [1.5 -2]", payload.Values)
	}
}

func TestProtocolDone(t *testing.T) {
	var buf bytes.Buffer
	writer := NewProtocol(nil, &buf)

	if err := writer.SendDone(); err != nil {
		t.Fatalf("SendDone failed: %v", err)
	}

	reader := NewProtocol(&buf, nil)
	_, err := reader.ReceiveValues()
	if err != io.EOF {
		t.Errorf("Expected io.EOF after done, got %v", err)
	}
}

func TestProtocolError(t *testing.T) {
	var buf bytes.Buffer
	writer := NewProtocol(nil, &buf)

	if err := writer.SendError(io.ErrUnexpectedEOF); err != nil {
		t.Fatalf("SendError failed: %v", err)
	}

	reader := NewProtocol(&buf, nil)
	if _, err := reader.ReceiveCiphertext(MsgRefreshResponse); err == nil {
		t.Errorf("Expected error after SendError")
	}
}

func TestProtocolUnexpectedType(t *testing.T) {
	var buf bytes.Buffer
	writer := NewProtocol(nil, &buf)

	if err := writer.SendValues(1, nil); err != nil {
		t.Fatalf("SendValues failed: %v", err)
	}

	reader := NewProtocol(&buf, nil)
	if _, err := reader.ReceiveCiphertext(MsgRefreshResponse); err == nil {
		t.Errorf("Expected error on a decrypt response")
	}
}

func TestMessageTypes(t *testing.T) {
	if MsgRefreshRequest != 0 {
		t.Errorf("MsgRefreshRequest = %d, want 0", MsgRefreshRequest)
	}
	if MsgDone != 4 {
		t.Errorf("MsgDone = %d, want 4", MsgDone)
	}
	if MsgError != 5 {
		t.Errorf("MsgError = %d, want 5", MsgError)
	}
	if MsgDecryptResponse.String() != "decrypt-response" {
		t.Errorf("String() = %q", MsgDecryptResponse.String())
	}
}
