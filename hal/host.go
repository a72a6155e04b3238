package hal

import (
	"sync"
)

// Loop is a Host whose frames advance only when Step is called.
//
// The window and headless runners step it once per tick; tests step it by
// hand. Deliveries never block: a subscriber that has not consumed the
// previous frame misses the next one, and a resize observer only ever sees
// the latest size.
type Loop struct {
	mu   sync.Mutex
	seq  uint64
	subs map[*frameSub]struct{}
	obs  map[*resizeObs]struct{}
}

// NewLoop returns a host with no subscribers.
func NewLoop() *Loop {
	return &Loop{
		subs: make(map[*frameSub]struct{}),
		obs:  make(map[*resizeObs]struct{}),
	}
}

func (l *Loop) RequestFrames() FrameSubscription {
	s := &frameSub{l: l, ch: make(chan uint64, 1)}
	l.mu.Lock()
	l.subs[s] = struct{}{}
	l.mu.Unlock()
	return s
}

func (l *Loop) ObserveResize(c Container) ResizeObservation {
	o := &resizeObs{l: l, c: c, ch: make(chan Size, 1), last: c.ContentBox()}
	l.mu.Lock()
	l.obs[o] = struct{}{}
	l.mu.Unlock()
	return o
}

// Step advances one frame: it reports size changes to resize observers and
// then a frame to every subscriber.
func (l *Loop) Step() {
	l.mu.Lock()
	l.seq++
	seq := l.seq
	obs := make([]*resizeObs, 0, len(l.obs))
	for o := range l.obs {
		obs = append(obs, o)
	}
	subs := make([]*frameSub, 0, len(l.subs))
	for s := range l.subs {
		subs = append(subs, s)
	}
	l.mu.Unlock()

	for _, o := range obs {
		o.poll()
	}
	for _, s := range subs {
		select {
		case s.ch <- seq:
		default:
		}
	}
}

// Frames returns the number of completed steps.
func (l *Loop) Frames() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seq
}

// Subscribers returns the number of live frame subscriptions and resize
// observations.
func (l *Loop) Subscribers() (frames, resizes int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs), len(l.obs)
}

type frameSub struct {
	l  *Loop
	ch chan uint64
}

func (s *frameSub) C() <-chan uint64 { return s.ch }

func (s *frameSub) Cancel() {
	s.l.mu.Lock()
	delete(s.l.subs, s)
	s.l.mu.Unlock()
}

type resizeObs struct {
	l    *Loop
	c    Container
	ch   chan Size
	last Size
}

func (o *resizeObs) C() <-chan Size { return o.ch }

func (o *resizeObs) Disconnect() {
	o.l.mu.Lock()
	delete(o.l.obs, o)
	o.l.mu.Unlock()
}

func (o *resizeObs) poll() {
	sz := o.c.ContentBox()
	if sz == o.last {
		return
	}
	o.last = sz
	// Replace an unconsumed size with the newer one.
	select {
	case <-o.ch:
	default:
	}
	select {
	case o.ch <- sz:
	default:
	}
}
