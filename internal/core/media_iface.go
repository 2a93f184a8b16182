package core

import "github.com/pion/webrtc/v4"

// MediaFlags records which media kinds a session description carries.
type MediaFlags struct {
	Audio bool
	Video bool
}

// MediaConstraints mirrors the send/receive switches of a negotiation
// request, one pair per media kind.
type MediaConstraints struct {
	AudioSend bool
	AudioRecv bool
	VideoSend bool
	VideoRecv bool
}

// AudioCall is a bidirectional audio-only negotiation.
func AudioCall() MediaConstraints {
	return MediaConstraints{AudioSend: true, AudioRecv: true}
}

// PublishOnly is the sendonly video profile a room publisher offers.
func PublishOnly() MediaConstraints {
	return MediaConstraints{VideoSend: true}
}

// RecvOnly is the profile a room subscriber answers with.
func RecvOnly() MediaConstraints {
	return MediaConstraints{AudioRecv: true, VideoRecv: true}
}

// FromFlags converts media presence into symmetric constraints, used
// when auto-accepting a renegotiation.
func FromFlags(f MediaFlags) MediaConstraints {
	return MediaConstraints{
		AudioSend: f.Audio, AudioRecv: f.Audio,
		VideoSend: f.Video, VideoRecv: f.Video,
	}
}

// MediaNegotiator abstracts one PeerConnection worth of offer/answer
// negotiation. Calls are synchronous; a returned description already
// includes gathered candidates.
type MediaNegotiator interface {
	CreateOffer(mc MediaConstraints) (*webrtc.SessionDescription, error)
	CreateAnswer(remote *webrtc.SessionDescription, mc MediaConstraints) (*webrtc.SessionDescription, error)
	ApplyRemoteDescription(remote *webrtc.SessionDescription) error
	Close()
}

// NegotiatorFactory builds one MediaNegotiator per session leg.
type NegotiatorFactory func(kind string) (MediaNegotiator, error)
