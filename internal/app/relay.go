package app

import (
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/CodeRoom/internal/domain"
)

// Signaling payloads. Session descriptions and ICE candidates are
// relayed unexamined; the pion types only give the envelope a shape.

type SignalOffer struct {
	To  string                    `json:"to"`
	SDP webrtc.SessionDescription `json:"sdp"`
}

type SignalAnswer struct {
	To  string                    `json:"to"`
	SDP webrtc.SessionDescription `json:"sdp"`
}

type SignalCandidate struct {
	To        string                  `json:"to"`
	Candidate webrtc.ICECandidateInit `json:"candidate"`
}

type SignalOfferOut struct {
	Type string                    `json:"type"`
	From domain.ConnID             `json:"from"`
	SDP  webrtc.SessionDescription `json:"sdp"`
}

type SignalAnswerOut struct {
	Type string                    `json:"type"`
	From domain.ConnID             `json:"from"`
	SDP  webrtc.SessionDescription `json:"sdp"`
}

type SignalCandidateOut struct {
	Type      string                  `json:"type"`
	From      domain.ConnID           `json:"from"`
	Candidate webrtc.ICECandidateInit `json:"candidate"`
}

// Relay is the store-and-forward broker for peer connection setup.
// It is stateless and never buffers: a candidate that arrives before
// the receiver's remote description is set is the receiver's problem
// to queue. Mesh construction is entirely client-side; the relay only
// needs to know that the target connection is still around and shares
// the sender's room, which presence answers.
type Relay struct {
	presence *Presence
}

func NewRelay(presence *Presence) *Relay {
	return &Relay{presence: presence}
}

func (r *Relay) Offer(from domain.ConnID, ev SignalOffer) []Delivery {
	return r.forward(from, domain.ConnID(ev.To), SignalOfferOut{Type: EvSignalOffer, From: from, SDP: ev.SDP})
}

func (r *Relay) Answer(from domain.ConnID, ev SignalAnswer) []Delivery {
	return r.forward(from, domain.ConnID(ev.To), SignalAnswerOut{Type: EvSignalAnswer, From: from, SDP: ev.SDP})
}

func (r *Relay) Candidate(from domain.ConnID, ev SignalCandidate) []Delivery {
	return r.forward(from, domain.ConnID(ev.To), SignalCandidateOut{Type: EvSignalCandidate, From: from, Candidate: ev.Candidate})
}

// forward addresses by connection id. The target must be bound to the
// sender's own room; a signal never crosses a room boundary. An
// unreachable target is a local failure for the initiator, never a
// room-wide event.
func (r *Relay) forward(from, to domain.ConnID, out any) []Delivery {
	fromRoom, _, ok := r.presence.Lookup(from)
	if !ok {
		log.Debug().Str("module", "app.relay").Str("from", string(from)).Msg("signal from unbound connection")
		return errorTo(from, domain.ErrNotInRoom.Error())
	}
	toRoom, _, ok := r.presence.Lookup(to)
	if to == "" || !ok || toRoom != fromRoom {
		log.Debug().Str("module", "app.relay").Str("from", string(from)).Str("to", string(to)).Msg("signal target unreachable")
		return errorTo(from, domain.ErrPeerUnreachable.Error())
	}
	return []Delivery{{To: to, Event: out}}
}
