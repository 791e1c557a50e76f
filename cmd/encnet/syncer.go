package main

import "sync"

// A syncer is used to serialize access to the driver, and also to manage
// daemon goroutines. Every access to the driver must be protected by
// calling syncer.Lock. Daemon goroutines must only be spawned using
// syncer.SpawnDaemon, and should only be stopped using syncer.StopDaemons.
type syncer struct {
	stop chan struct{}
	wg   sync.WaitGroup
	sync.Mutex
}

// SpawnDaemon runs f in a separate goroutine. It is f's responsibility
// to periodically check to see whether s.StopChan() is closed, and to
// return when it is.
func (s *syncer) SpawnDaemon(f func()) {
	if s.stop == nil {
		// no daemons have been spawned yet
		s.stop = make(chan struct{})
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		f()
	}()
}

// StopDaemons stops all daemons by closing the channel returned by
// StopChan and waiting for all daemons to return. It must not be called
// with s locked, since daemons lock s.
func (s *syncer) StopDaemons() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	s.wg.Wait()
	s.stop = nil // match the check in SpawnDaemon
}

// StopChan returns a channel which, when closed, instructs all spawned
// daemons to return. Daemons spawned using SpawnDaemon may call StopChan
// without acquiring s.Lock.
func (s *syncer) StopChan() <-chan struct{} {
	// we know that it's safe for daemons to call this without synchronization
	// because s.stop is only modified before any daemons have been spawned and
	// after all daemons have returned.
	return s.stop
}
