package feedback

import (
	"io"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

// EncodePCM drains s into interleaved little-endian signed PCM in the
// given format. Mobile hosts play the result directly.
func EncodePCM(s beep.Streamer, format beep.Format) []byte {
	var (
		out     []byte
		samples [512][2]float64
	)
	frame := make([]byte, format.Width())
	for {
		n, ok := s.Stream(samples[:])
		for i := 0; i < n; i++ {
			format.EncodeSigned(frame, samples[i])
			out = append(out, frame...)
		}
		if !ok {
			break
		}
	}
	return out
}

// WriteWAV encodes the clip for sound as a WAV file.
func (e *Engine) WriteWAV(w io.WriteSeeker, sound AudioFeedback) error {
	clip := e.Clip(sound)
	if clip == nil {
		return nil
	}
	return wav.Encode(w, clip.Streamer(0, clip.Len()), clip.Format())
}
