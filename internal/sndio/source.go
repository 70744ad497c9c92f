// Package sndio defines the sound-output collaborator interface the
// pipeline's ReceiverSource satisfies, grounded on original_source/isource.h, plus a
// concrete PortAudio-backed sink that drives it.
package sndio

import (
	"time"

	"bken/receiver/internal/audio"
	"bken/receiver/internal/pipeline"
)

// Source is the frame-reader contract a sound-output collaborator pulls
// from. *pipeline.ReceiverLoop satisfies it via its Source()/ReadFrame
// methods plus the small adapter in NewFrameReader below.
type Source interface {
	SampleSpec() audio.SampleSpec
	HasClock() bool
	State() pipeline.State
	Pause()
	Resume() bool
	Restart() bool
	Reclock(at time.Time)
	Read(frame *audio.Frame) bool
}

// FrameReader adapts a *pipeline.ReceiverLoop to the Source interface,
// routing Read through the loop (so every frame pull also drains a task
// quantum) while delegating the rest of the contract straight to the
// underlying *pipeline.Source.
type FrameReader struct {
	loop *pipeline.ReceiverLoop
}

// NewFrameReader wraps loop.
func NewFrameReader(loop *pipeline.ReceiverLoop) *FrameReader {
	return &FrameReader{loop: loop}
}

func (f *FrameReader) SampleSpec() audio.SampleSpec { return f.loop.Source().SampleSpec() }
func (f *FrameReader) HasClock() bool               { return f.loop.Source().HasClock() }
func (f *FrameReader) State() pipeline.State         { return f.loop.Source().State() }
func (f *FrameReader) Pause()                        { f.loop.Source().Pause() }
func (f *FrameReader) Resume() bool                  { return f.loop.Source().Resume() }
func (f *FrameReader) Restart() bool                 { return f.loop.Source().Restart() }
func (f *FrameReader) Reclock(at time.Time)           { f.loop.Source().Reclock(at) }

func (f *FrameReader) Read(frame *audio.Frame) bool {
	return f.loop.ReadFrame(frame)
}
