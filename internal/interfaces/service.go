package interfaces

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// Service interface defines the methods that every kind of interface must
// be compliant with.
type Service interface {
	Start() error
	Stop()
}

type ServiceOpts struct {
	Address string
	Handler http.Handler
	// Closers are closed after the server stopped accepting requests, ie. the
	// websocket hub.
	Closers []io.Closer
}

func (o ServiceOpts) validate() error {
	if o.Address == "" {
		return fmt.Errorf("missing listening address")
	}
	if o.Handler == nil {
		return fmt.Errorf("missing http handler")
	}
	for _, c := range o.Closers {
		if c == nil {
			return fmt.Errorf("closer must not be null")
		}
	}
	return nil
}

type service struct {
	opts   ServiceOpts
	server *http.Server
	group  *errgroup.Group
}

// NewService returns a Service serving the given handler over HTTP/1.1 and
// cleartext HTTP/2.
func NewService(opts ServiceOpts) (Service, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid opts: %s", err)
	}

	server := &http.Server{
		Addr:              opts.Address,
		Handler:           h2c.NewHandler(opts.Handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return &service{opts: opts, server: server}, nil
}

func (s *service) Start() error {
	lis, err := net.Listen("tcp", s.opts.Address)
	if err != nil {
		return err
	}

	s.group = &errgroup.Group{}
	s.group.Go(func() error {
		if err := s.server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("http server stopped unexpectedly")
			return err
		}
		return nil
	})

	log.Infof("http interface is listening on %s", lis.Addr())
	return nil
}

func (s *service) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("failed to gracefully stop http server")
	}
	log.Debug("stopped http server")

	for _, c := range s.opts.Closers {
		if err := c.Close(); err != nil {
			log.WithError(err).Warn("failed to close interface resource")
		}
	}

	if s.group != nil {
		if err := s.group.Wait(); err != nil {
			log.WithError(err).Warn("http server exited with error")
		}
	}
}
