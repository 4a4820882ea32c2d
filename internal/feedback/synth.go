package feedback

import (
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
)

type waveform int

const (
	waveSine waveform = iota
	waveSquare
	waveTriangle
)

// oscillator streams a fixed number of samples of a periodic wave.
type oscillator struct {
	freq     float64
	phase    float64
	duration int
	position int
	wave     waveform
	rate     beep.SampleRate
}

func newOscillator(freq float64, duration time.Duration, wave waveform, rate beep.SampleRate) beep.Streamer {
	return &oscillator{
		freq:     freq,
		duration: rate.N(duration),
		wave:     wave,
		rate:     rate,
	}
}

func (o *oscillator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if o.position >= o.duration {
			return i, i > 0
		}

		var val float64
		switch o.wave {
		case waveSine:
			val = math.Sin(2 * math.Pi * o.phase)
		case waveSquare:
			if o.phase < 0.5 {
				val = 1
			} else {
				val = -1
			}
		case waveTriangle:
			val = 4*math.Abs(o.phase-0.5) - 1
		}

		samples[i][0] = val
		samples[i][1] = val

		o.phase += o.freq / float64(o.rate)
		o.phase -= math.Floor(o.phase)
		o.position++
	}
	return len(samples), true
}

func (o *oscillator) Err() error { return nil }

// envelope shapes a stream with a linear attack and release.
type envelope struct {
	streamer beep.Streamer
	position int
	attack   int
	release  int
	total    int
}

func newEnvelope(s beep.Streamer, duration, attack, release time.Duration, rate beep.SampleRate) beep.Streamer {
	return &envelope{
		streamer: s,
		attack:   rate.N(attack),
		release:  rate.N(release),
		total:    rate.N(duration),
	}
}

func (e *envelope) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = e.streamer.Stream(samples)

	releaseStart := e.total - e.release
	for i := 0; i < n; i++ {
		if e.position >= e.total {
			return i, i > 0
		}

		vol := 1.0
		if e.attack > 0 && e.position < e.attack {
			vol = float64(e.position) / float64(e.attack)
		}
		if e.release > 0 && e.position >= releaseStart {
			vol = math.Max(0, float64(e.total-e.position)/float64(e.release))
		}

		samples[i][0] *= vol
		samples[i][1] *= vol
		e.position++
	}
	return n, ok
}

func (e *envelope) Err() error { return e.streamer.Err() }

// withVolume scales s linearly. A non-positive volume silences it.
func withVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}

// Click durations.
const (
	inputDuration  = 25 * time.Millisecond
	deleteDuration = 30 * time.Millisecond
	systemDuration = 40 * time.Millisecond
	clickAttack    = time.Millisecond
)

// clickStreamer builds the unity-gain streamer for a sound.
func clickStreamer(sound AudioFeedback, rate beep.SampleRate) beep.Streamer {
	switch sound {
	case AudioInput:
		tone, err := generators.SineTone(rate, 1400)
		if err != nil {
			tone = newOscillator(1400, inputDuration, waveSine, rate)
		}
		return newEnvelope(beep.Take(rate.N(inputDuration), tone), inputDuration, clickAttack, 20*time.Millisecond, rate)

	case AudioDelete:
		osc := newOscillator(650, deleteDuration, waveSquare, rate)
		return withVolume(newEnvelope(osc, deleteDuration, clickAttack, 25*time.Millisecond, rate), 0.5)

	case AudioSystem:
		low := newEnvelope(newOscillator(900, systemDuration, waveTriangle, rate), systemDuration, clickAttack, 30*time.Millisecond, rate)
		high := newEnvelope(newOscillator(1800, systemDuration, waveSine, rate), systemDuration, clickAttack, 15*time.Millisecond, rate)
		return beep.Mix(withVolume(low, 0.7), withVolume(high, 0.3))

	default:
		return nil
	}
}

// renderClip renders a sound into a buffer at the given volume.
func renderClip(sound AudioFeedback, format beep.Format, volume float64) *beep.Buffer {
	s := clickStreamer(sound, format.SampleRate)
	if s == nil {
		return nil
	}
	buf := beep.NewBuffer(format)
	buf.Append(withVolume(s, volume))
	return buf
}
