//go:build headless

package audio

import (
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RealtimeOutput renders a Player at real-time pace without a device, so
// the render clock advances exactly as it would with audio hardware
type RealtimeOutput struct {
	player    *Player
	done      chan struct{}
	closeOnce sync.Once
	log       *zap.Logger
}

// NewRealtimeOutput starts draining the player one block per block period
func NewRealtimeOutput(player *Player, log *zap.Logger) (*RealtimeOutput, error) {
	rt := &RealtimeOutput{
		player: player,
		done:   make(chan struct{}),
		log:    log,
	}

	period := time.Duration(BlockSize) * time.Second / time.Duration(player.SampleRate)
	go drain(rt.done, player.NewAudioReader(), period)

	log.Info("headless audio output started", zap.Int("sampleRate", player.SampleRate))
	return rt, nil
}

// drain reads one block from r every period until done is closed. A block
// in progress when done closes is the last one read.
func drain(done <-chan struct{}, r io.Reader, period time.Duration) {
	buf := make([]byte, BlockSize*2)
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
		}
		select {
		case <-done:
			return
		default:
		}
		_, _ = r.Read(buf)
	}
}

// Close stops the output. It is safe to call more than once.
func (rt *RealtimeOutput) Close() error {
	rt.closeOnce.Do(func() {
		close(rt.done)
		rt.log.Info("headless audio output stopped", zap.Float64("time", rt.player.Now()))
	})
	return nil
}
