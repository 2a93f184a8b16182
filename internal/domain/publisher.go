package domain

// Publisher is one remote feed announced by the video room.
type Publisher struct {
	ID         uint64 `json:"id"`
	Display    string `json:"display"`
	AudioCodec string `json:"audio_codec"`
	VideoCodec string `json:"video_codec"`
}
