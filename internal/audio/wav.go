package audio

import (
	"fmt"
	"io"
	"math"
	"os"
	"time"

	gaud "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// DefaultSampleRate matches the Kokoro output rate.
const DefaultSampleRate = 24000

// GapDuration is the silence inserted between narrated chunks.
const GapDuration = 300 * time.Millisecond

// Clip is a mono 16-bit PCM buffer.
type Clip struct {
	Samples []int16
	Rate    int
}

func (c Clip) Duration() time.Duration {
	if c.Rate <= 0 {
		return 0
	}
	return time.Duration(float64(len(c.Samples)) / float64(c.Rate) * float64(time.Second))
}

// Silence returns a clip of zero samples for the given duration.
func Silence(rate int, d time.Duration) Clip {
	n := int(float64(rate) * d.Seconds())
	return Clip{
		Samples: make([]int16, n),
		Rate:    rate,
	}
}

// Concat joins clips into one, inserting gap silence between consecutive
// clips. Clips with a zero rate are assumed to be silence at rate.
func Concat(clips []Clip, rate int, gap time.Duration) Clip {
	silence := Silence(rate, gap)
	total := 0
	for i, c := range clips {
		if i > 0 {
			total += len(silence.Samples)
		}
		total += len(c.Samples)
	}

	out := make([]int16, 0, total)
	for i, c := range clips {
		if i > 0 {
			out = append(out, silence.Samples...)
		}
		out = append(out, c.Samples...)
	}
	return Clip{Samples: out, Rate: rate}
}

// DecodePCM16 interprets raw little-endian 16-bit PCM bytes as samples. A
// trailing odd byte is dropped.
func DecodePCM16(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(uint16(data[2*i]) | uint16(data[2*i+1])<<8)
	}
	return samples
}

// WriteWAV encodes a clip as a mono 16-bit WAV stream.
func WriteWAV(w io.WriteSeeker, clip Clip) error {
	rate := clip.Rate
	if rate <= 0 {
		rate = DefaultSampleRate
	}

	enc := wav.NewEncoder(w, rate, 16, 1, 1)
	buf := &gaud.IntBuffer{
		Format: &gaud.Format{
			NumChannels: 1,
			SampleRate:  rate,
		},
		SourceBitDepth: 16,
		Data:           make([]int, len(clip.Samples)),
	}
	for i, s := range clip.Samples {
		buf.Data[i] = int(s)
	}

	if err := enc.Write(buf); err != nil {
		enc.Close()
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close wav: %w", err)
	}
	return nil
}

// WriteWAVFile writes a clip to path as a WAV file.
func WriteWAVFile(path string, clip Clip) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteWAV(f, clip); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// EncodeWAVBytes renders a clip to in-memory WAV bytes. The encoder needs
// a seekable writer to patch the header, so this goes through a temp file.
func EncodeWAVBytes(clip Clip) ([]byte, error) {
	tmp, err := os.CreateTemp("", "docvoice-wav-*.wav")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := WriteWAV(tmp, clip); err != nil {
		tmp.Close()
		return nil, err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}
	data, err := io.ReadAll(tmp)
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("read temp file: %w", err)
	}
	return data, nil
}

// FormatDuration renders a duration for progress output: "42s", "1m 30s",
// "1h 01m".
func FormatDuration(d time.Duration) string {
	seconds := d.Seconds()
	if seconds < 60 {
		return fmt.Sprintf("%ds", int(math.Round(seconds)))
	}
	total := int(math.Round(seconds))
	if seconds < 3600 {
		return fmt.Sprintf("%dm %02ds", total/60, total%60)
	}
	return fmt.Sprintf("%dh %02dm", total/3600, (total%3600)/60)
}
