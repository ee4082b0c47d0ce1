//
// Date: 2025-12-21
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Plays one track at a time, caching its preview first when
// needed, and reports status and progress.
//

package media

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/cloudmanic/spotify-auth-kit/catalog"
	"github.com/cloudmanic/spotify-auth-kit/dispatch"
)

const (
	// DefaultDuration is reported before a clip is loaded.
	DefaultDuration = 30 * time.Second

	// DefaultTickInterval is how often playback progress is reported.
	DefaultTickInterval = 100 * time.Millisecond
)

// ErrNoTrack is returned by Play when no track is set.
var ErrNoTrack = errors.New("media: no track set")

// Status is the player state.
type Status int

const (
	StatusStopped Status = iota
	StatusCaching
	StatusPlaying
	StatusPaused
)

// String returns the name of the status.
func (s Status) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusCaching:
		return "caching"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Playback is a progress report.
type Playback struct {
	Track    *catalog.Track
	Position time.Duration
	Duration time.Duration
	Progress float64
}

// Source is what an Output plays. Exactly one of Data and Path is set.
type Source struct {
	Data []byte
	Path string
}

// Output is the audio device. onDone is called once when a clip ends or
// fails to decode, and never after Stop.
type Output interface {
	Play(src Source, onDone func(err error)) error
	Pause()
	Resume()
	Stop()
	Position() time.Duration
	Duration() time.Duration
}

// PlayerObserver receives status changes and progress.
type PlayerObserver interface {
	DidUpdateStatus(p *Player, status Status, track *catalog.Track)
	DidUpdatePlayback(p *Player, playback Playback)
}

// PlayerHooks implements PlayerObserver with optional functions.
type PlayerHooks struct {
	OnStatus   func(p *Player, status Status, track *catalog.Track)
	OnPlayback func(p *Player, playback Playback)
}

// DidUpdateStatus implements PlayerObserver.
func (h PlayerHooks) DidUpdateStatus(p *Player, status Status, track *catalog.Track) {
	if h.OnStatus != nil {
		h.OnStatus(p, status, track)
	}
}

// DidUpdatePlayback implements PlayerObserver.
func (h PlayerHooks) DidUpdatePlayback(p *Player, playback Playback) {
	if h.OnPlayback != nil {
		h.OnPlayback(p, playback)
	}
}

// Player drives an Output for the current track.
type Player struct {
	out        Output
	cache      *Cache
	observer   PlayerObserver
	dispatcher dispatch.Dispatcher
	interval   time.Duration

	mu       sync.Mutex
	track    *catalog.Track
	status   Status
	loaded   bool
	clip     int
	stopTick chan struct{}
}

// PlayerOption configures a Player.
type PlayerOption func(*Player)

// WithPlayerDispatcher sets where observer callbacks run. Defaults to inline.
func WithPlayerDispatcher(d dispatch.Dispatcher) PlayerOption {
	return func(p *Player) {
		p.dispatcher = d
	}
}

// WithTickInterval sets how often progress is reported.
func WithTickInterval(d time.Duration) PlayerOption {
	return func(p *Player) {
		p.interval = d
	}
}

// NewPlayer returns a stopped player. A nil cache gets a default one.
func NewPlayer(out Output, cache *Cache, observer PlayerObserver, opts ...PlayerOption) *Player {
	if cache == nil {
		cache = NewCache()
	}
	if observer == nil {
		observer = PlayerHooks{}
	}
	p := &Player{
		out:        out,
		cache:      cache,
		observer:   observer,
		dispatcher: dispatch.Inline{},
		interval:   DefaultTickInterval,
		status:     StatusStopped,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Status returns the current status.
func (p *Player) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Track returns the current track.
func (p *Player) Track() *catalog.Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.track
}

// SetTrack stops playback and makes track current.
func (p *Player) SetTrack(track *catalog.Track) {
	p.Stop()

	p.mu.Lock()
	p.track = track
	p.mu.Unlock()
}

// setStatusLocked records s and queues a notification when it changes.
func (p *Player) setStatusLocked(s Status) func() {
	if p.status == s {
		return nil
	}
	p.status = s
	track := p.track
	return func() {
		p.dispatcher.Dispatch(func() { p.observer.DidUpdateStatus(p, s, track) })
	}
}

// send runs a queued notification.
func send(fn func()) {
	if fn != nil {
		fn()
	}
}

// Play starts or resumes the current track. An uncached preview is
// downloaded first and starts when the download finishes.
func (p *Player) Play(ctx context.Context) error {
	p.mu.Lock()
	track := p.track
	if track == nil {
		p.mu.Unlock()
		return ErrNoTrack
	}

	switch p.status {
	case StatusPlaying, StatusCaching:
		p.mu.Unlock()
		return nil
	case StatusPaused:
		if p.loaded {
			p.out.Resume()
			p.startTickerLocked()
			n := p.setStatusLocked(StatusPlaying)
			p.mu.Unlock()
			send(n)
			return nil
		}
	}

	if track.HasSoundData() || track.SoundSource == catalog.SourceLibrary {
		n, err := p.startLocked()
		p.mu.Unlock()
		send(n)
		return err
	}

	n := p.setStatusLocked(StatusCaching)
	p.mu.Unlock()
	send(n)

	p.cache.CacheSound(ctx, track, p)
	return nil
}

// startLocked hands the current track to the output.
func (p *Player) startLocked() (func(), error) {
	src := Source{Data: p.track.SoundData()}
	if p.track.SoundSource == catalog.SourceLibrary {
		src = Source{Path: p.track.AssetPath}
	}

	p.clip++
	clip := p.clip
	err := p.out.Play(src, func(err error) {
		p.dispatcher.Dispatch(func() { p.finished(clip, err) })
	})
	if err != nil {
		log.WithError(err).Warnf("[Player] Unable to play track %q", p.track.Name)
		return p.setStatusLocked(StatusStopped), fmt.Errorf("failed to play track: %w", err)
	}

	log.Infof("[Player] Playing %q", p.track.Name)
	p.loaded = true
	p.startTickerLocked()
	return p.setStatusLocked(StatusPlaying), nil
}

// finished handles the end of a clip.
func (p *Player) finished(clip int, err error) {
	p.mu.Lock()
	if clip != p.clip || !p.loaded {
		p.mu.Unlock()
		return
	}
	if err != nil {
		log.WithError(err).Warn("[Player] Playback failed")
	}
	p.loaded = false
	p.stopTickerLocked()
	n := p.setStatusLocked(StatusStopped)
	p.mu.Unlock()
	send(n)
}

// Pause halts playback and progress reports. Pausing while the preview
// downloads keeps the download going but does not start the clip when it
// arrives; the next Play starts it.
func (p *Player) Pause() {
	p.mu.Lock()
	switch p.status {
	case StatusPlaying:
		p.out.Pause()
		p.stopTickerLocked()
	case StatusCaching:
	default:
		p.mu.Unlock()
		return
	}
	n := p.setStatusLocked(StatusPaused)
	p.mu.Unlock()
	send(n)
}

// Stop halts playback. A download in flight continues but will not start playback.
func (p *Player) Stop() {
	p.mu.Lock()
	if p.loaded {
		p.out.Stop()
		p.loaded = false
	}
	p.clip++
	p.stopTickerLocked()
	n := p.setStatusLocked(StatusStopped)
	p.mu.Unlock()
	send(n)
}

// DidBeginCaching implements CacheObserver.
func (p *Player) DidBeginCaching(track *catalog.Track) {}

// DidFinishCaching implements CacheObserver.
func (p *Player) DidFinishCaching(track *catalog.Track) {
	p.mu.Lock()
	if track != p.track || p.status != StatusCaching {
		p.mu.Unlock()
		return
	}
	n, _ := p.startLocked()
	p.mu.Unlock()
	send(n)
}

// DidFailCaching implements CacheObserver.
func (p *Player) DidFailCaching(track *catalog.Track, err error) {
	p.mu.Lock()
	pending := p.status == StatusCaching || (p.status == StatusPaused && !p.loaded)
	if track != p.track || !pending {
		p.mu.Unlock()
		return
	}
	n := p.setStatusLocked(StatusStopped)
	p.mu.Unlock()
	send(n)
}

// startTickerLocked begins progress reports.
func (p *Player) startTickerLocked() {
	p.stopTickerLocked()
	stop := make(chan struct{})
	p.stopTick = stop

	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				pb := p.Playback()
				select {
				case <-stop:
					return
				default:
				}
				p.dispatcher.Dispatch(func() { p.observer.DidUpdatePlayback(p, pb) })
			}
		}
	}()
}

// stopTickerLocked ends progress reports.
func (p *Player) stopTickerLocked() {
	if p.stopTick != nil {
		close(p.stopTick)
		p.stopTick = nil
	}
}

// Position returns how far into the clip playback is.
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positionLocked()
}

func (p *Player) positionLocked() time.Duration {
	if !p.loaded {
		return 0
	}
	return p.out.Position()
}

// Duration returns the clip length, or DefaultDuration before it loads.
func (p *Player) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.durationLocked()
}

func (p *Player) durationLocked() time.Duration {
	if !p.loaded {
		return DefaultDuration
	}
	if d := p.out.Duration(); d > 0 {
		return d
	}
	return DefaultDuration
}

// Progress returns position over duration in [0, 1].
func (p *Player) Progress() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.progressLocked()
}

func (p *Player) progressLocked() float64 {
	if !p.loaded {
		return 0
	}
	return math.Min(1, float64(p.positionLocked())/float64(p.durationLocked()))
}

// Playback returns the current progress report.
func (p *Player) Playback() Playback {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Playback{
		Track:    p.track,
		Position: p.positionLocked(),
		Duration: p.durationLocked(),
		Progress: p.progressLocked(),
	}
}

// PositionDescription returns the position as m:ss.
func (p *Player) PositionDescription() string {
	return DurationDescription(p.Position())
}

// DurationDescription returns the clip length as m:ss.
func (p *Player) DurationDescription() string {
	return DurationDescription(p.Duration())
}

// DurationDescription formats d as m:ss rounded to the nearest second.
func DurationDescription(d time.Duration) string {
	total := int(d.Round(time.Second) / time.Second)
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
