package server

import (
	"log"
	"time"
)

// Each live session owns two timers: a one-shot deadline timer that fires
// the close exactly once, and a tick loop that broadcasts the remaining
// time roughly once per second. Both are registered under timersMu and
// released as soon as the session leaves live.

func (s *Server) scheduleSessionTimers(sessionID string) {
	status, remaining, ok := s.store.SessionCountdown(sessionID)
	if !ok || status != statusLive {
		return
	}
	s.timersMu.Lock()
	if existing, ok := s.timers[sessionID]; ok {
		existing.Stop()
	}
	s.timers[sessionID] = time.AfterFunc(remaining, func() {
		s.expireSession(sessionID)
	})
	if stop, ok := s.tickStops[sessionID]; ok {
		close(stop)
	}
	stop := make(chan struct{})
	s.tickStops[sessionID] = stop
	s.timersMu.Unlock()
	go s.runTicker(sessionID, stop)
}

func (s *Server) cancelSessionTimers(sessionID string) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	if timer, ok := s.timers[sessionID]; ok {
		timer.Stop()
		delete(s.timers, sessionID)
	}
	if stop, ok := s.tickStops[sessionID]; ok {
		close(stop)
		delete(s.tickStops, sessionID)
	}
}

func (s *Server) expireSession(sessionID string) {
	if _, _, err := s.endSession(sessionID, "deadline"); err != nil {
		log.Printf("deadline close failed session_id=%s error=%v", sessionID, err)
	}
}

func (s *Server) runTicker(sessionID string, stop chan struct{}) {
	ticker := time.NewTicker(s.cfg.TickInterval())
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			status, remaining, ok := s.store.SessionCountdown(sessionID)
			if !ok || status != statusLive {
				s.cancelSessionTimers(sessionID)
				return
			}
			s.hub.Broadcast(sessionID, outMessage{
				Type:    msgSessionTick,
				Payload: tickPayload(remaining),
			})
		}
	}
}

func tickPayload(remaining time.Duration) map[string]any {
	return map[string]any{
		"timeRemaining": remainingSeconds(remaining),
	}
}

func remainingSeconds(remaining time.Duration) int {
	if remaining <= 0 {
		return 0
	}
	return int((remaining + time.Second/2) / time.Second)
}
