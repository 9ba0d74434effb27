//go:build !headless

package audio

import (
	"time"

	"github.com/ebitengine/oto/v3"
	"go.uber.org/zap"
)

// RealtimeOutput plays a Player through the system audio device
type RealtimeOutput struct {
	player    *Player
	otoCtx    *oto.Context
	otoPlayer *oto.Player
	log       *zap.Logger
}

// NewRealtimeOutput opens the default device as 16-bit mono at the
// player's sample rate and starts pulling samples
func NewRealtimeOutput(player *Player, log *zap.Logger) (*RealtimeOutput, error) {
	op := &oto.NewContextOptions{
		SampleRate:   player.SampleRate,
		ChannelCount: 1, // Mono
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   time.Duration(BlockSize) * time.Second / time.Duration(player.SampleRate),
	}

	otoCtx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	rt := &RealtimeOutput{
		player: player,
		otoCtx: otoCtx,
		log:    log,
	}

	rt.otoPlayer = otoCtx.NewPlayer(player.NewAudioReader())
	rt.otoPlayer.SetBufferSize(BlockSize * 2) // 16-bit = 2 bytes per sample
	rt.otoPlayer.Play()

	log.Info("audio output started",
		zap.Int("sampleRate", player.SampleRate),
		zap.Int("blockSize", BlockSize))
	return rt, nil
}

// Close stops the audio output
func (rt *RealtimeOutput) Close() error {
	if rt.otoPlayer == nil {
		return nil
	}
	rt.otoPlayer.Pause()
	rt.otoPlayer = nil
	err := rt.otoCtx.Suspend()
	rt.log.Info("audio output stopped", zap.Float64("time", rt.player.Now()))
	return err
}
