package app

import (
	"strings"

	"github.com/pion/webrtc/v4"

	"github.com/dialstack/sipvr/internal/core"
)

// FlagsFromDescription reports which media kinds a description offers,
// by the presence of its audio/video media sections. Falls back to a
// line scan when the SDP does not parse cleanly.
func FlagsFromDescription(desc *webrtc.SessionDescription) core.MediaFlags {
	if desc == nil {
		return core.MediaFlags{}
	}
	parsed, err := desc.Unmarshal()
	if err != nil {
		return core.MediaFlags{
			Audio: strings.Contains(desc.SDP, "m=audio "),
			Video: strings.Contains(desc.SDP, "m=video "),
		}
	}
	var f core.MediaFlags
	for _, m := range parsed.MediaDescriptions {
		switch m.MediaName.Media {
		case "audio":
			f.Audio = true
		case "video":
			f.Video = true
		}
	}
	return f
}
