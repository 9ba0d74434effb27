package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/oisee/polysynth/internal/logger"
	"github.com/oisee/polysynth/pkg/audio"
	"github.com/oisee/polysynth/pkg/midiin"
	"github.com/oisee/polysynth/pkg/score"
	"github.com/oisee/polysynth/pkg/synth"
	"github.com/oisee/polysynth/pkg/tui"
)

// followInterval is how often a score is checked against the clock in real time
const followInterval = 5 * time.Millisecond

type config struct {
	instrument string
	base       float64
	gain       float64
	voices     int
	hold       time.Duration
	scorePath  string
	wavPath    string
	duration   float64
	rate       int
	midi       int
	logPath    string
	logLevel   string
}

func main() {
	var cfg config
	flag.StringVar(&cfg.instrument, "instrument", "piano", "Starting instrument (piano, bell, harmonica)")
	flag.Float64Var(&cfg.base, "base", synth.DefaultTuning.Base, "Frequency of scale degree 0 in Hz")
	flag.Float64Var(&cfg.gain, "gain", synth.MasterGain, "Master gain applied to the mix")
	flag.IntVar(&cfg.voices, "voices", 0, "Maximum simultaneous notes (0 = unlimited)")
	flag.DurationVar(&cfg.hold, "hold", tui.DefaultHoldTimeout, "Release a key after this long without auto-repeat")
	flag.StringVar(&cfg.scorePath, "score", "", "Score file to play")
	flag.StringVar(&cfg.wavPath, "wav", "", "Render to this WAV file instead of the sound card")
	flag.Float64Var(&cfg.duration, "duration", 0, "Seconds to render with -wav (default: score length + 2s)")
	flag.IntVar(&cfg.rate, "rate", audio.SampleRate, "Sample rate in Hz")
	flag.IntVar(&cfg.midi, "midi", -1, "MIDI input device index (-1 = none)")
	flag.StringVar(&cfg.logPath, "log", "", "Log file (\"stderr\" for standard error, empty disables logging)")
	flag.StringVar(&cfg.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config) error {
	log, err := logger.New(cfg.logPath, cfg.logLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	reg, err := newRegistry(cfg, log)
	if err != nil {
		return err
	}

	var song *score.Score
	if cfg.scorePath != "" {
		if song, err = loadScore(cfg.scorePath); err != nil {
			return err
		}
		log.Info("score loaded", zap.String("path", cfg.scorePath), zap.Int("events", len(song.Events)))
	}

	if cfg.rate <= 0 {
		return fmt.Errorf("invalid sample rate %d", cfg.rate)
	}
	player := audio.NewPlayer(reg, cfg.rate)

	if cfg.wavPath != "" {
		return renderWAV(cfg, player, reg, song, log)
	}
	return playLive(cfg, player, reg, song, log)
}

func newRegistry(cfg config, log *zap.Logger) (*synth.Registry, error) {
	if cfg.base <= 0 {
		return nil, fmt.Errorf("invalid base frequency %g", cfg.base)
	}
	ch, err := synth.ParseChannel(cfg.instrument)
	if err != nil {
		return nil, err
	}
	return synth.NewRegistry(
		synth.WithBank(synth.DefaultBank(synth.Tuning{Base: cfg.base})),
		synth.WithGain(cfg.gain),
		synth.WithMaxVoices(cfg.voices),
		synth.WithChannel(ch),
		synth.WithLogger(log),
	)
}

func loadScore(path string) (*score.Score, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening score: %w", err)
	}
	defer f.Close()

	s, err := score.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return s, nil
}

func renderWAV(cfg config, player *audio.Player, reg *synth.Registry, song *score.Score, log *zap.Logger) error {
	seconds := cfg.duration
	var cursor *score.Cursor
	if song != nil {
		cursor = song.Cursor()
		if seconds <= 0 {
			seconds = song.Duration() + 2
		}
	}
	if seconds <= 0 {
		return errors.New("-wav needs -duration or -score")
	}

	f, err := os.Create(cfg.wavPath)
	if err != nil {
		return fmt.Errorf("creating wav: %w", err)
	}
	w := bufio.NewWriter(f)

	start := time.Now()
	if err := audio.ExportWAV(player, cursor, reg, w, seconds); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("writing wav: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing wav: %w", err)
	}

	log.Info("wav exported",
		zap.String("path", cfg.wavPath),
		zap.Float64("seconds", seconds),
		zap.Duration("elapsed", time.Since(start)))
	fmt.Printf("Exported %.1fs to %s\n", seconds, cfg.wavPath)
	return nil
}

func playLive(cfg config, player *audio.Player, reg *synth.Registry, song *score.Score, log *zap.Logger) error {
	out, err := audio.NewRealtimeOutput(player, log)
	if err != nil {
		return err
	}
	defer out.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.midi >= 0 {
		client, err := startMIDI(ctx, cfg.midi, player, reg, log)
		if err != nil {
			return err
		}
		defer client.Stop()
	}

	if song != nil {
		go func() {
			err := song.Cursor().Follow(ctx, player.Now, reg, followInterval)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Error("score playback stopped", zap.Error(err))
			}
		}()
	}

	p := tea.NewProgram(tui.NewModel(reg, player.Now, cfg.hold, log))
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func startMIDI(ctx context.Context, device int, player *audio.Player, reg *synth.Registry, log *zap.Logger) (midiin.Client, error) {
	client, err := midiin.NewClient("polysynth", log)
	if err != nil {
		return nil, err
	}
	if err := client.SelectDevice(device); err != nil {
		if devices, lerr := client.ListDevices(); lerr == nil {
			for i, d := range devices {
				fmt.Fprintf(os.Stderr, "  %d: %s (%s)\n", i, d.Name, d.Manufacturer)
			}
		}
		return nil, err
	}

	msgs := make(chan midiin.Message, 64)
	if err := client.StartCapture(msgs); err != nil {
		return nil, err
	}
	go midiin.Bridge(ctx, msgs, reg, player.Now, log)
	return client, nil
}
