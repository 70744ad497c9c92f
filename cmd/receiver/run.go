package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gordonklaus/portaudio"

	"bken/receiver/internal/audio"
	"bken/receiver/internal/codec"
	"bken/receiver/internal/config"
	"bken/receiver/internal/pipeline"
	"bken/receiver/internal/rlog"
	"bken/receiver/internal/sndio"
)

func applyLogLevel(level string) {
	switch level {
	case "debug":
		rlog.SetLevel(log.DebugLevel)
	case "warn":
		rlog.SetLevel(log.WarnLevel)
	case "error":
		rlog.SetLevel(log.ErrorLevel)
	default:
		rlog.SetLevel(log.InfoLevel)
	}
}

// Run wires the full receiver pipeline: a ReceiverLoop with one slot and
// source/repair endpoints, a QUIC datagram ingress per endpoint, and a
// PortAudio output sink — then blocks until interrupted.
func Run(cfg config.ReceiverConfig) error {
	runID := uuid.New()
	rlog.Area("main").Infof("run %s starting", runID)

	spec := audio.SampleSpec{
		Rate:         cfg.SampleRate,
		ChannelCount: cfg.ChannelCount,
		ChannelMask:  channelMask(cfg.ChannelCount),
	}

	defaults := pipeline.SessionDefaults{
		Spec:      spec,
		FECScheme: cfg.FECScheme(),
		FECMaxAge: cfg.FECBlockMaxAge,
		Watchdog:  cfg.WatchdogConfig(),
		NewDecoder: func(payloadType uint8) (interface {
			Decode(payload []byte, out []float32) (int, error)
			FrameSamples() int
		}, error) {
			return codec.New(payloadType, spec.Rate, spec.ChannelCount)
		},
	}

	loop := pipeline.NewReceiverLoop(spec, defaults)
	slotID := loop.CreateSlot()

	sourceWriter, err := loop.CreateEndpoint(slotID, pipeline.IfaceAudioSource)
	if err != nil {
		return err
	}
	repairWriter, err := loop.CreateEndpoint(slotID, pipeline.IfaceAudioRepair)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ingress, err := NewIngress(cfg, sourceWriter, repairWriter)
	if err != nil {
		return err
	}

	if err := portaudio.Initialize(); err != nil {
		return err
	}
	defer portaudio.Terminate()

	reader := sndio.NewFrameReader(loop)
	sink, err := sndio.NewPortAudioSink(reader)
	if err != nil {
		return err
	}
	if err := sink.Start(); err != nil {
		return err
	}
	defer sink.Stop()

	return ingress.Run(ctx)
}

func channelMask(channels int) uint32 {
	return uint32(1)<<uint(channels) - 1
}
