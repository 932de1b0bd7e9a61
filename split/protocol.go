// Package split carries refresh and decrypt requests between the computing
// party and the key holder over a gob encoded stream.
package split

import (
	"encoding/gob"
	"fmt"
	"io"

	"github.com/tuneinsight/lattigo/v6/core/rlwe"
)

func init() {
	// Register types for gob encoding
	gob.Register(CiphertextPayload{})
	gob.Register(ValuesPayload{})
}

// MessageType defines message types for the key holder protocol
type MessageType int

const (
	MsgRefreshRequest MessageType = iota
	MsgRefreshResponse
	MsgDecryptRequest
	MsgDecryptResponse
	MsgDone
	MsgError
)

func (t MessageType) String() string {
	switch t {
	case MsgRefreshRequest:
		return "refresh-request"
	case MsgRefreshResponse:
		return "refresh-response"
	case MsgDecryptRequest:
		return "decrypt-request"
	case MsgDecryptResponse:
		return "decrypt-response"
	case MsgDone:
		return "done"
	case MsgError:
		return "error"
	}
	return fmt.Sprintf("MessageType(%d)", int(t))
}

// Message represents a message in the key holder protocol
type Message struct {
	Type    MessageType
	Payload interface{}
}

// CiphertextPayload carries a serialized ciphertext
type CiphertextPayload struct {
	RequestID  int
	Ciphertext []byte
	Level      int
	ScaleFloat float64
}

// ValuesPayload carries decrypted slot values
type ValuesPayload struct {
	RequestID int
	Values    []float64
}

// NewCiphertextPayload serializes ct under request id.
func NewCiphertextPayload(id int, ct *rlwe.Ciphertext) (CiphertextPayload, error) {
	raw, err := ct.MarshalBinary()
	if err != nil {
		return CiphertextPayload{}, fmt.Errorf("marshal ciphertext: %w", err)
	}
	return CiphertextPayload{
		RequestID:  id,
		Ciphertext: raw,
		Level:      ct.Level(),
		ScaleFloat: ct.Scale.Float64(),
	}, nil
}

// Decode restores the ciphertext and checks it against the declared level
// and the receiver's maximum level.
func (p CiphertextPayload) Decode(maxLevel int) (*rlwe.Ciphertext, error) {
	ct := new(rlwe.Ciphertext)
	if err := ct.UnmarshalBinary(p.Ciphertext); err != nil {
		return nil, fmt.Errorf("unmarshal ciphertext: %w", err)
	}
	if ct.Level() != p.Level {
		return nil, fmt.Errorf("ciphertext level %d does not match declared level %d", ct.Level(), p.Level)
	}
	if ct.Level() > maxLevel {
		return nil, fmt.Errorf("ciphertext level %d exceeds maximum %d", ct.Level(), maxLevel)
	}
	return ct, nil
}

// Protocol handles key holder communication
type Protocol struct {
	encoder *gob.Encoder
	decoder *gob.Decoder
}

// NewProtocol creates a new protocol handler
func NewProtocol(r io.Reader, w io.Writer) *Protocol {
	return &Protocol{
		encoder: gob.NewEncoder(w),
		decoder: gob.NewDecoder(r),
	}
}

// Send sends a message
func (p *Protocol) Send(msg *Message) error {
	return p.encoder.Encode(msg)
}

// Receive receives a message
func (p *Protocol) Receive() (*Message, error) {
	var msg Message
	if err := p.decoder.Decode(&msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SendCiphertext sends ct as a request or response of type t
func (p *Protocol) SendCiphertext(t MessageType, id int, ct *rlwe.Ciphertext) error {
	payload, err := NewCiphertextPayload(id, ct)
	if err != nil {
		return err
	}
	return p.Send(&Message{Type: t, Payload: payload})
}

// SendValues sends decrypted values
func (p *Protocol) SendValues(id int, values []float64) error {
	return p.Send(&Message{
		Type:    MsgDecryptResponse,
		Payload: ValuesPayload{RequestID: id, Values: values},
	})
}

// SendDone signals completion
func (p *Protocol) SendDone() error {
	return p.Send(&Message{Type: MsgDone})
}

// SendError sends an error message
func (p *Protocol) SendError(err error) error {
	return p.Send(&Message{
		Type:    MsgError,
		Payload: err.Error(),
	})
}

// receiveExpected receives one message of type want. A remote error is
// returned as an error and Done as io.EOF.
func (p *Protocol) receiveExpected(want MessageType) (*Message, error) {
	msg, err := p.Receive()
	if err != nil {
		return nil, err
	}
	switch msg.Type {
	case MsgError:
		return nil, fmt.Errorf("remote error: %v", msg.Payload)
	case MsgDone:
		return nil, io.EOF
	case want:
		return msg, nil
	}
	return nil, fmt.Errorf("expected %s message, got %s", want, msg.Type)
}

// ReceiveCiphertext receives a ciphertext message of type want
func (p *Protocol) ReceiveCiphertext(want MessageType) (*CiphertextPayload, error) {
	msg, err := p.receiveExpected(want)
	if err != nil {
		return nil, err
	}
	payload, ok := msg.Payload.(CiphertextPayload)
	if !ok {
		return nil, fmt.Errorf("invalid ciphertext payload type")
	}
	return &payload, nil
}

// ReceiveValues receives decrypted values
func (p *Protocol) ReceiveValues() (*ValuesPayload, error) {
	msg, err := p.receiveExpected(MsgDecryptResponse)
	if err != nil {
		return nil, err
	}
	payload, ok := msg.Payload.(ValuesPayload)
	if !ok {
		return nil, fmt.Errorf("invalid values payload type")
	}
	return &payload, nil
}
