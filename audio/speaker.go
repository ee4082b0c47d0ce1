//
// Date: 2025-12-22
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Plays clips on the default sound device with beep.
//

package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
	log "github.com/sirupsen/logrus"

	"github.com/cloudmanic/spotify-auth-kit/media"
)

// SampleRate is the rate the speaker runs at. Clips are resampled to it.
const SampleRate = beep.SampleRate(44100)

var (
	speakerOnce sync.Once
	speakerErr  error
)

// initSpeaker opens the sound device once per process.
func initSpeaker() error {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(SampleRate, SampleRate.N(time.Second/10))
	})
	return speakerErr
}

// memFile lets in memory bytes be decoded with seeking.
type memFile struct {
	*bytes.Reader
}

// Close implements io.Closer.
func (memFile) Close() error { return nil }

// clip is a decoded source.
type clip struct {
	streamer beep.StreamSeekCloser
	format   beep.Format
	file     io.Closer
}

// close releases the decoder and file.
func (c *clip) close() {
	c.streamer.Close()
	if c.file != nil {
		c.file.Close()
	}
}

// open decodes src. Preview bytes are mp3. Files are decoded by extension.
func open(src media.Source) (*clip, error) {
	if len(src.Data) > 0 {
		streamer, format, err := mp3.Decode(memFile{bytes.NewReader(src.Data)})
		if err != nil {
			return nil, fmt.Errorf("failed to decode preview: %w", err)
		}
		return &clip{streamer: streamer, format: format}, nil
	}

	if src.Path == "" {
		return nil, errors.New("nothing to play")
	}

	ext := strings.ToLower(filepath.Ext(src.Path))
	if ext != ".mp3" && ext != ".flac" && ext != ".wav" {
		return nil, fmt.Errorf("unsupported format: %s", ext)
	}

	f, err := os.Open(src.Path)
	if err != nil {
		return nil, err
	}

	var streamer beep.StreamSeekCloser
	var format beep.Format

	switch ext {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(src.Path), err)
	}

	return &clip{streamer: streamer, format: format, file: f}, nil
}

// Speaker implements media.Output.
type Speaker struct {
	mu   sync.Mutex
	clip *clip
	ctrl *beep.Ctrl
}

var _ media.Output = (*Speaker)(nil)

// New returns an idle speaker. The device opens on the first Play.
func New() *Speaker {
	return &Speaker{}
}

// Play stops whatever is playing and starts src. onDone runs on its own
// goroutine when the clip ends.
func (s *Speaker) Play(src media.Source, onDone func(err error)) error {
	s.Stop()

	c, err := open(src)
	if err != nil {
		return err
	}

	if err := initSpeaker(); err != nil {
		c.close()
		return fmt.Errorf("failed to open sound device: %w", err)
	}

	var stream beep.Streamer = c.streamer
	if c.format.SampleRate != SampleRate {
		stream = beep.Resample(4, c.format.SampleRate, SampleRate, c.streamer)
	}

	ctrl := &beep.Ctrl{Streamer: stream, Paused: false}

	s.mu.Lock()
	s.clip = c
	s.ctrl = ctrl
	s.mu.Unlock()

	speaker.Play(beep.Seq(ctrl, beep.Callback(func() {
		if onDone != nil {
			go onDone(c.streamer.Err())
		}
	})))

	log.Debugf("[Audio] Playing %s clip", c.format.SampleRate.D(c.streamer.Len()))
	return nil
}

// Pause halts output.
func (s *Speaker) Pause() {
	s.setPaused(true)
}

// Resume continues output.
func (s *Speaker) Resume() {
	s.setPaused(false)
}

func (s *Speaker) setPaused(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctrl == nil {
		return
	}
	speaker.Lock()
	s.ctrl.Paused = paused
	speaker.Unlock()
}

// Stop clears the device and releases the clip.
func (s *Speaker) Stop() {
	s.mu.Lock()
	c := s.clip
	s.clip = nil
	s.ctrl = nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	speaker.Clear()
	c.close()
}

// Position returns how far into the clip playback is.
func (s *Speaker) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clip == nil {
		return 0
	}
	speaker.Lock()
	pos := s.clip.format.SampleRate.D(s.clip.streamer.Position())
	speaker.Unlock()
	return pos
}

// Duration returns the clip length.
func (s *Speaker) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clip == nil {
		return 0
	}
	return s.clip.format.SampleRate.D(s.clip.streamer.Len())
}
