package split

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/tuneinsight/lattigo/v6/core/rlwe"
	"github.com/tuneinsight/lattigo/v6/schemes/ckks"

	"helr/core/ckkswrapper"
)

// Serve answers refresh and decrypt requests with keys until the peer sends
// Done or closes the stream. A request that fails is answered with an error
// message and serving continues.
func Serve(p *Protocol, keys ckkswrapper.KeyHolder, params ckks.Parameters) error {
	for {
		msg, err := p.Receive()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("receive request: %w", err)
		}

		switch msg.Type {
		case MsgDone:
			return nil
		case MsgRefreshRequest, MsgDecryptRequest:
		default:
			if err := p.SendError(fmt.Errorf("unexpected %s message", msg.Type)); err != nil {
				return err
			}
			continue
		}

		payload, ok := msg.Payload.(CiphertextPayload)
		if !ok {
			if err := p.SendError(fmt.Errorf("invalid ciphertext payload type")); err != nil {
				return err
			}
			continue
		}
		if err := answer(p, keys, params, msg.Type, payload); err != nil {
			if err := p.SendError(err); err != nil {
				return err
			}
		}
	}
}

func answer(p *Protocol, keys ckkswrapper.KeyHolder, params ckks.Parameters, t MessageType, payload CiphertextPayload) error {
	ct, err := payload.Decode(params.MaxLevel())
	if err != nil {
		return err
	}
	if t == MsgDecryptRequest {
		values, err := keys.Decrypt(ct)
		if err != nil {
			return err
		}
		return p.SendValues(payload.RequestID, values)
	}
	fresh, err := keys.Refresh(ct)
	if err != nil {
		return err
	}
	return p.SendCiphertext(MsgRefreshResponse, payload.RequestID, fresh)
}

// RemoteKeyHolder forwards KeyHolder calls to a Serve loop. Calls are
// serialized over the single stream.
type RemoteKeyHolder struct {
	p      *Protocol
	params ckks.Parameters

	mu     sync.Mutex
	nextID int
}

var _ ckkswrapper.KeyHolder = (*RemoteKeyHolder)(nil)

func NewRemoteKeyHolder(p *Protocol, params ckks.Parameters) *RemoteKeyHolder {
	return &RemoteKeyHolder{p: p, params: params}
}

func (r *RemoteKeyHolder) request(t MessageType, ct *rlwe.Ciphertext) (int, error) {
	r.nextID++
	if err := r.p.SendCiphertext(t, r.nextID, ct); err != nil {
		return 0, fmt.Errorf("send %s: %w", t, err)
	}
	return r.nextID, nil
}

func checkID(want, got int) error {
	if want != got {
		return fmt.Errorf("response to request %d, expected %d", got, want)
	}
	return nil
}

func (r *RemoteKeyHolder) Refresh(ct *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := r.request(MsgRefreshRequest, ct)
	if err != nil {
		return nil, err
	}
	payload, err := r.p.ReceiveCiphertext(MsgRefreshResponse)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	if err := checkID(id, payload.RequestID); err != nil {
		return nil, err
	}
	return payload.Decode(r.params.MaxLevel())
}

func (r *RemoteKeyHolder) Decrypt(ct *rlwe.Ciphertext) ([]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := r.request(MsgDecryptRequest, ct)
	if err != nil {
		return nil, err
	}
	payload, err := r.p.ReceiveValues()
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	if err := checkID(id, payload.RequestID); err != nil {
		return nil, err
	}
	return payload.Values, nil
}

// Close tells the key holder that training is over.
func (r *RemoteKeyHolder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.p.SendDone()
}
