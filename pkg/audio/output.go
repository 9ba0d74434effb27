package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/oisee/polysynth/pkg/score"
)

// AudioReader implements io.Reader over a Player as 16-bit LE mono PCM
type AudioReader struct {
	player *Player
	buffer []float64
}

// NewAudioReader creates an io.Reader that renders audio on demand
func (p *Player) NewAudioReader() *AudioReader {
	return &AudioReader{
		player: p,
		buffer: make([]float64, BlockSize),
	}
}

// Read implements io.Reader - generates audio samples
func (ar *AudioReader) Read(buf []byte) (int, error) {
	samples := len(buf) / 2 // 16-bit = 2 bytes per sample
	n := 0
	for samples > 0 {
		chunk := min(samples, len(ar.buffer))
		ar.player.GenerateSamples(ar.buffer[:chunk])
		for _, s := range ar.buffer[:chunk] {
			binary.LittleEndian.PutUint16(buf[n:], uint16(toPCM16(s)))
			n += 2
		}
		samples -= chunk
	}
	return n, nil
}

// WAVWriter writes audio to WAV format
type WAVWriter struct {
	writer      io.Writer
	sampleRate  int
	channels    int
	dataWritten int
	pcm         []byte
}

// NewWAVWriter creates a WAV writer
func NewWAVWriter(w io.Writer, sampleRate, channels int) *WAVWriter {
	return &WAVWriter{
		writer:     w,
		sampleRate: sampleRate,
		channels:   channels,
	}
}

// WriteHeader writes the WAV header for dataSize bytes of PCM
func (w *WAVWriter) WriteHeader(dataSize int) error {
	byteRate := w.sampleRate * w.channels * 2
	blockAlign := w.channels * 2

	fields := []any{
		[4]byte{'R', 'I', 'F', 'F'},
		uint32(dataSize + 36),
		[4]byte{'W', 'A', 'V', 'E'},
		[4]byte{'f', 'm', 't', ' '},
		uint32(16),           // Chunk size
		uint16(1),            // PCM format
		uint16(w.channels),   // Channels
		uint32(w.sampleRate), // Sample rate
		uint32(byteRate),     // Byte rate
		uint16(blockAlign),   // Block align
		uint16(16),           // Bits per sample
		[4]byte{'d', 'a', 't', 'a'},
		uint32(dataSize),
	}
	for _, f := range fields {
		if err := binary.Write(w.writer, binary.LittleEndian, f); err != nil {
			return fmt.Errorf("writing wav header: %w", err)
		}
	}
	return nil
}

// WriteSamples writes float samples as 16-bit PCM
func (w *WAVWriter) WriteSamples(samples []float64) error {
	if cap(w.pcm) < 2*len(samples) {
		w.pcm = make([]byte, 2*len(samples))
	}
	buf := w.pcm[:2*len(samples)]
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(toPCM16(s)))
	}
	if _, err := w.writer.Write(buf); err != nil {
		return fmt.Errorf("writing wav samples: %w", err)
	}
	w.dataWritten += len(buf)
	return nil
}

// DataWritten returns the number of PCM bytes written so far
func (w *WAVWriter) DataWritten() int {
	return w.dataWritten
}

// ErrWAVTooLong is returned when the PCM data would not fit a WAV header
var ErrWAVTooLong = errors.New("audio too long for a WAV file")

// maxWAVData is the largest PCM payload whose RIFF size still fits 32 bits
const maxWAVData = math.MaxUint32 - 36

// ExportWAV renders durationSeconds of audio to writer, applying the events
// of cursor to sink as the player's clock reaches them. cursor may be nil.
func ExportWAV(player *Player, cursor *score.Cursor, sink score.Sink, writer io.Writer, durationSeconds float64) error {
	if durationSeconds <= 0 {
		return errors.New("export duration must be positive")
	}
	if cursor != nil && sink == nil {
		return errors.New("a score needs a sink to play into")
	}

	sampleRate := player.SampleRate
	if durationSeconds*float64(sampleRate)*2 > maxWAVData {
		return fmt.Errorf("%w: %.0fs at %d Hz", ErrWAVTooLong, durationSeconds, sampleRate)
	}
	totalSamples := int(durationSeconds * float64(sampleRate))
	dataSize := totalSamples * 2 // 16-bit mono

	wavWriter := NewWAVWriter(writer, sampleRate, 1)
	if err := wavWriter.WriteHeader(dataSize); err != nil {
		return err
	}

	// Events are applied between samples, so render one sample at a time
	// while a score is pending and in chunks afterwards
	chunkSize := 4096
	buffer := make([]float64, chunkSize)
	for written := 0; written < totalSamples; {
		n := min(chunkSize, totalSamples-written)
		if cursor != nil && !cursor.Done() {
			if _, err := cursor.Advance(player.Now(), sink); err != nil {
				return err
			}
			n = 1
		}
		player.GenerateSamples(buffer[:n])
		if err := wavWriter.WriteSamples(buffer[:n]); err != nil {
			return err
		}
		written += n
	}
	return nil
}
