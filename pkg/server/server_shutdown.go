package server

import (
	"context"

	"gopkg.in/inconshreveable/log15.v2"
)

// Shutdown starts the server's shutdown mode
//
// It will disable keep-alives on all servers and wait for active connections
// until the context is done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Warn("server going into shutdown mode")
	var firstErr error
	for _, srv := range s.httpServers {
		srv.SetKeepAlivesEnabled(false)
		if err := srv.Shutdown(ctx); err != nil {
			if err == context.DeadlineExceeded {
				s.log.Warn("server exiting after wait timeout", log15.Ctx{"address": srv.Addr})
			}
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
