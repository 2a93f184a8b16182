// Package rtc implements core.MediaNegotiator on a pion
// PeerConnection. Media itself flows between the browser-less peer
// and the gateway; this layer only produces and applies descriptions.
package rtc

import (
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/dialstack/sipvr/internal/core"
)

type Negotiator struct {
	pc   *webrtc.PeerConnection
	kind string
}

func DefaultWebRTCConfig() webrtc.Configuration {
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{
				URLs: []string{"stun:stun.l.google.com:19302"},
			},
		},
	}
}

func NewNegotiator(cfg webrtc.Configuration, kind string) (*Negotiator, error) {
	pc, err := webrtc.NewPeerConnection(cfg)
	if err != nil {
		return nil, err
	}
	n := &Negotiator{pc: pc, kind: kind}

	pc.OnICEConnectionStateChange(func(s webrtc.ICEConnectionState) {
		log.Info().Str("module", "rtc").Str("kind", kind).Str("ice_state", s.String()).Msg("ICE state")
	})
	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		log.Info().Str("module", "rtc").Str("kind", kind).Str("peer_state", s.String()).Msg("peer state")
	})
	return n, nil
}

// Factory adapts NewNegotiator to core.NegotiatorFactory.
func Factory(cfg webrtc.Configuration) core.NegotiatorFactory {
	return func(kind string) (core.MediaNegotiator, error) {
		return NewNegotiator(cfg, kind)
	}
}

func direction(send, recv bool) webrtc.RTPTransceiverDirection {
	switch {
	case send && recv:
		return webrtc.RTPTransceiverDirectionSendrecv
	case send:
		return webrtc.RTPTransceiverDirectionSendonly
	case recv:
		return webrtc.RTPTransceiverDirectionRecvonly
	default:
		return webrtc.RTPTransceiverDirectionInactive
	}
}

// CreateOffer builds a local offer with one transceiver per requested
// media kind and waits for candidate gathering before returning, so
// the description can go out in a single frame.
func (n *Negotiator) CreateOffer(mc core.MediaConstraints) (*webrtc.SessionDescription, error) {
	if mc.AudioSend || mc.AudioRecv {
		init := webrtc.RTPTransceiverInit{Direction: direction(mc.AudioSend, mc.AudioRecv)}
		if _, err := n.pc.AddTransceiverFromKind(webrtc.RTPCodecTypeAudio, init); err != nil {
			return nil, err
		}
	}
	if mc.VideoSend || mc.VideoRecv {
		init := webrtc.RTPTransceiverInit{Direction: direction(mc.VideoSend, mc.VideoRecv)}
		if _, err := n.pc.AddTransceiverFromKind(webrtc.RTPCodecTypeVideo, init); err != nil {
			return nil, err
		}
	}

	offer, err := n.pc.CreateOffer(nil)
	if err != nil {
		return nil, err
	}
	gatherComplete := webrtc.GatheringCompletePromise(n.pc)
	if err := n.pc.SetLocalDescription(offer); err != nil {
		return nil, err
	}
	<-gatherComplete
	return n.pc.LocalDescription(), nil
}

// CreateAnswer applies the remote offer and answers it, candidates
// gathered. The constraints only matter for logging here: with no
// local tracks attached, the answer comes out receive-only anyway.
func (n *Negotiator) CreateAnswer(remote *webrtc.SessionDescription, mc core.MediaConstraints) (*webrtc.SessionDescription, error) {
	if err := n.pc.SetRemoteDescription(*remote); err != nil {
		return nil, err
	}
	answer, err := n.pc.CreateAnswer(nil)
	if err != nil {
		return nil, err
	}
	gatherComplete := webrtc.GatheringCompletePromise(n.pc)
	if err := n.pc.SetLocalDescription(answer); err != nil {
		return nil, err
	}
	<-gatherComplete
	log.Debug().Str("module", "rtc").Str("kind", n.kind).
		Bool("audio", mc.AudioSend || mc.AudioRecv).
		Bool("video", mc.VideoSend || mc.VideoRecv).
		Msg("answer created")
	return n.pc.LocalDescription(), nil
}

func (n *Negotiator) ApplyRemoteDescription(remote *webrtc.SessionDescription) error {
	return n.pc.SetRemoteDescription(*remote)
}

func (n *Negotiator) Close() {
	if err := n.pc.Close(); err != nil {
		log.Error().Err(err).Str("module", "rtc").Str("kind", n.kind).Msg("close error")
	} else {
		log.Info().Str("module", "rtc").Str("kind", n.kind).Msg("closed")
	}
}

var _ core.MediaNegotiator = (*Negotiator)(nil)
