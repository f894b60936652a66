// Package server serves HTTP handlers until the context is cancelled or the
// process receives SIGTERM or SIGINT.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lbijlsma/paypal-sdk-go/pkg/config"
	"github.com/lbijlsma/paypal-sdk-go/pkg/env"
	"gopkg.in/inconshreveable/log15.v2"
)

const (
	serverWaitTimeout = 10 * time.Second
)

// ServiceConfig configures a single HTTP service
type ServiceConfig struct {
	Address        string
	ReadTimeout    config.Duration
	WriteTimeout   config.Duration
	MaxHeaderBytes int
}

// DefaultServiceConfig returns a service config listening on the given address
func DefaultServiceConfig(addr string) ServiceConfig {
	return ServiceConfig{
		Address:      addr,
		ReadTimeout:  "10s",
		WriteTimeout: "10s",
	}
}

// Server serves the registered services
type Server struct {
	log log15.Logger

	httpServers []*http.Server
	listeners   []net.Listener
	// errors while serving
	errors chan error
}

// NewServer creates a new server. A nil logger logs to the root logger.
func NewServer(log log15.Logger) *Server {
	if log == nil {
		log = env.Log
	}
	return &Server{
		log:         log.New(log15.Ctx{"pkg": "github.com/lbijlsma/paypal-sdk-go/pkg/server"}),
		httpServers: make([]*http.Server, 0, 1),
	}
}

// RegisterService adds a service to the server
// It will serve the HTTP with the given handler
func (s *Server) RegisterService(cfg ServiceConfig, handler http.Handler) error {
	srv := &http.Server{
		Addr:           cfg.Address,
		Handler:        handler,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}
	var err error
	srv.ReadTimeout, err = cfg.ReadTimeout.Duration()
	if err != nil {
		return fmt.Errorf("error parsing duration for server %s: %v", cfg.Address, err)
	}
	srv.WriteTimeout, err = cfg.WriteTimeout.Duration()
	if err != nil {
		return fmt.Errorf("error parsing duration for server %s: %v", cfg.Address, err)
	}
	s.httpServers = append(s.httpServers, srv)
	return nil
}

// Listen opens the listeners for all registered services
//
// Calling Listen before Serve allows to obtain the bound addresses.
func (s *Server) Listen() error {
	if len(s.httpServers) == 0 {
		return errors.New("no services registered")
	}
	if s.listeners != nil {
		return nil
	}
	listeners := make([]net.Listener, 0, len(s.httpServers))
	for _, srv := range s.httpServers {
		l, err := net.Listen("tcp", srv.Addr)
		if err != nil {
			for _, opened := range listeners {
				opened.Close()
			}
			return fmt.Errorf("error listening on address %s: %v", srv.Addr, err)
		}
		listeners = append(listeners, l)
	}
	s.listeners = listeners
	return nil
}

// Addrs returns the addresses the server listens on
func (s *Server) Addrs() []net.Addr {
	addrs := make([]net.Addr, len(s.listeners))
	for i, l := range s.listeners {
		addrs[i] = l.Addr()
	}
	return addrs
}

// Serve starts serving and blocks until the context is done, a termination
// signal arrives or a service fails
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	pid := os.Getpid()
	for _, l := range s.listeners {
		s.log.Info("server listening", log15.Ctx{
			"address": l.Addr().String(),
			"PID":     pid,
		})
	}

	s.serveHTTP()

	err := s.wait(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverWaitTimeout)
	defer cancel()
	if shutdownErr := s.Shutdown(shutdownCtx); err == nil {
		err = shutdownErr
	}
	s.log.Info("exiting.", log15.Ctx{"PID": pid})
	return err
}

// serve all HTTP servers without blocking
func (s *Server) serveHTTP() {
	s.errors = make(chan error, len(s.httpServers))
	for i, l := range s.listeners {
		go func(srv *http.Server, l net.Listener) {
			err := srv.Serve(l)
			if err != nil && err != http.ErrServerClosed {
				s.errors <- fmt.Errorf("error serving HTTP %s: %v", l.Addr(), err)
			}
		}(s.httpServers[i], l)
	}
}

// the final blocking, wait for a reason to stop serving
func (s *Server) wait(ctx context.Context) error {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigs)

	select {
	case <-ctx.Done():
		s.log.Info("context done", log15.Ctx{"err": ctx.Err()})
		return nil
	case sig := <-sigs:
		s.log.Info("received signal", log15.Ctx{"signal": sig.String()})
		return nil
	case err := <-s.errors:
		s.log.Crit("error serving", log15.Ctx{"err": err})
		return err
	}
}
