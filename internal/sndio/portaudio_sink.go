package sndio

import (
	"time"

	"github.com/gordonklaus/portaudio"

	"bken/receiver/internal/audio"
	"bken/receiver/internal/rlog"
)

// PortAudioSink drives a Source at the output device's own pace, mirroring
// the blocking portaudio output stream fed by a jitter buffer in
// client/audio.go. Here the pipeline's Source plays the jitter buffer's
// role: every stream callback pulls exactly one frame from it and hands it
// to PortAudio's output buffer.
type PortAudioSink struct {
	src    Source
	stream *portaudio.Stream
}

// NewPortAudioSink opens a default output device at src's sample spec and
// returns a sink ready to Start. Must be called after portaudio.Initialize.
func NewPortAudioSink(src Source) (*PortAudioSink, error) {
	spec := src.SampleSpec()
	sink := &PortAudioSink{src: src}

	stream, err := portaudio.OpenDefaultStream(
		0, spec.ChannelCount, float64(spec.Rate), 0, sink.callback,
	)
	if err != nil {
		return nil, err
	}
	sink.stream = stream
	return sink, nil
}

// callback is PortAudio's pull: it never blocks on the network, only on
// whatever the pipeline's ticker-paced Read already bounds.
func (s *PortAudioSink) callback(out []float32) {
	var frame audio.Frame
	if !s.src.Read(&frame) {
		for i := range out {
			out[i] = 0
		}
		return
	}
	n := copy(out, frame.Samples)
	for i := n; i < len(out); i++ {
		out[i] = 0
	}
	s.src.Reclock(time.Now())
}

// Start begins playback.
func (s *PortAudioSink) Start() error {
	rlog.Area("sndio").Infof("starting portaudio sink at %d Hz", s.src.SampleSpec().Rate)
	return s.stream.Start()
}

// Stop halts playback and closes the underlying stream.
func (s *PortAudioSink) Stop() error {
	if err := s.stream.Stop(); err != nil {
		return err
	}
	return s.stream.Close()
}
