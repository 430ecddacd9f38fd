// Package discovery finds servers on the local network by UDP broadcast
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/jellyshell/jellyshell/internal/event"
	"github.com/jellyshell/jellyshell/internal/metrics"
	"go.uber.org/zap"
)

const (
	// DefaultPort is the UDP port servers listen on for probes
	DefaultPort = 7359
	// ResendInterval is how often the probe is repeated during a session
	ResendInterval = 10 * time.Second
	// MaxResends ends a session after this many repeated probes
	MaxResends = 2
	// ReadTimeout bounds each socket read so the receive loop can observe cancellation
	ReadTimeout = time.Second
)

// ErrClosed is returned by every method once the service has been closed
var ErrClosed = errors.New("discovery: service closed")

// Config configures a Service. Zero values take the defaults above.
type Config struct {
	Port        int
	Interval    time.Duration
	MaxResends  int
	ReadTimeout time.Duration

	// BroadcastAddr overrides 255.255.255.255:Port as the probe destination.
	BroadcastAddr *net.UDPAddr
	// Listen opens the session socket. Defaults to binding Port on all interfaces.
	Listen func(port int) (*net.UDPConn, error)

	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

func listenUDP(port int) (*net.UDPConn, error) {
	return net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: port})
}

// session is one Start to stop cycle
type session struct {
	conn    *net.UDPConn
	cancel  context.CancelFunc
	done    chan struct{}
	resends int
	err     error
}

// Service broadcasts probes and reports every response it receives. At most
// one session runs at a time.
type Service struct {
	cfg     Config
	logger  *zap.Logger
	metrics *metrics.Metrics

	discovered event.Observers[Server]
	ended      event.Observers[error]

	mu      sync.Mutex
	closed  bool
	session *session

	// Serialises probe writes from Start and the resend ticker.
	sendMu sync.Mutex
}

// NewService creates a stopped discovery service
func NewService(cfg Config) *Service {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Interval <= 0 {
		cfg.Interval = ResendInterval
	}
	if cfg.MaxResends <= 0 {
		cfg.MaxResends = MaxResends
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = ReadTimeout
	}
	if cfg.BroadcastAddr == nil {
		cfg.BroadcastAddr = &net.UDPAddr{IP: net.IPv4bcast, Port: cfg.Port}
	}
	if cfg.Listen == nil {
		cfg.Listen = listenUDP
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		cfg:     cfg,
		logger:  logger.Named("discovery"),
		metrics: cfg.Metrics,
	}
}

// OnDiscover registers fn for every parsed response, duplicates included.
// fn runs on the receive goroutine and must not call Stop or Close.
func (s *Service) OnDiscover(fn func(Server)) *event.Subscription {
	return s.discovered.Subscribe(fn)
}

// OnDiscoveryEnded registers fn for the end of each session. The error is nil
// unless the session ended because of a socket failure.
func (s *Service) OnDiscoveryEnded(fn func(error)) *event.Subscription {
	return s.ended.Subscribe(fn)
}

// Running reports whether a session is active
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session != nil
}

// LocalAddr returns the session socket address, or nil when stopped
func (s *Service) LocalAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	return s.session.conn.LocalAddr()
}

// Start opens the socket, starts receiving and sends the first probe. It is a
// no-op while a session is already running.
func (s *Service) Start() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.session != nil {
		s.mu.Unlock()
		s.logger.Info("server discovery already in progress")
		return nil
	}

	conn, err := s.cfg.Listen(s.cfg.Port)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to bind UDP port %d: %w", s.cfg.Port, err)
	}
	if err := conn.SetReadBuffer(MaxMessageSize * 10); err != nil {
		s.logger.Warn("failed to set read buffer", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	sess := &session{
		conn:   conn,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.session = sess
	s.mu.Unlock()

	s.logger.Info("starting server discovery", zap.Stringer("local", conn.LocalAddr()))
	s.metrics.RecordSession()

	go s.run(ctx, sess)
	s.sendProbe(ctx, sess)
	return nil
}

// Stop ends the running session and waits for its goroutines. Stopping a
// stopped service does nothing.
func (s *Service) Stop() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	sess := s.session
	s.mu.Unlock()

	if sess == nil {
		return nil
	}
	s.logger.Info("stopping server discovery")
	sess.cancel()
	<-sess.done
	return nil
}

// Close stops any running session and makes the service unusable
func (s *Service) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	sess := s.session
	s.mu.Unlock()

	if sess != nil {
		sess.cancel()
		<-sess.done
	}
	return nil
}

// run owns the session: it drives resends and tears everything down when the
// context is cancelled, the resend budget runs out, or the socket fails.
func (s *Service) run(ctx context.Context, sess *session) {
	defer close(sess.done)

	recvDone := make(chan struct{})
	go func() {
		defer close(recvDone)
		s.receiveLoop(ctx, sess)
	}()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			s.sendProbe(ctx, sess)
			sess.resends++
			if sess.resends >= s.cfg.MaxResends {
				s.logger.Info("no more probes to send, ending discovery", zap.Int("resends", sess.resends))
				break loop
			}
		}
	}

	sess.cancel()
	sess.conn.Close()
	<-recvDone

	s.mu.Lock()
	if s.session == sess {
		s.session = nil
	}
	s.mu.Unlock()

	s.logger.Info("server discovery ended")
	s.ended.Publish(sess.err)
}

// receiveLoop reads responses until the session is cancelled or the socket fails
func (s *Service) receiveLoop(ctx context.Context, sess *session) {
	buf := make([]byte, MaxMessageSize)
	for {
		if ctx.Err() != nil {
			return
		}

		// Deadline lets the loop observe cancellation without relying on Close
		if err := sess.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)); err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Error("failed to set read deadline", zap.Error(err))
			sess.err = err
			sess.cancel()
			return
		}

		n, addr, err := sess.conn.ReadFromUDP(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Error("socket error", zap.Error(err))
			sess.err = err
			sess.cancel()
			return
		}

		data := buf[:n]
		if isProbe(data) {
			s.metrics.RecordResponse("echo")
			continue
		}
		s.logger.Debug("received response", zap.Stringer("from", addr), zap.ByteString("payload", data))

		srv, err := ParseResponse(data)
		if err != nil {
			s.metrics.RecordResponse("malformed")
			s.logger.Warn("skipping malformed response", zap.Stringer("from", addr), zap.Error(err))
			continue
		}

		s.metrics.RecordResponse("server")
		s.discovered.Publish(srv)
	}
}

func (s *Service) sendProbe(ctx context.Context, sess *session) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	if ctx.Err() != nil {
		return
	}
	if _, err := sess.conn.WriteToUDP([]byte(ProbeMessage), s.cfg.BroadcastAddr); err != nil {
		// Broadcast failures are common on some networks
		s.logger.Warn("probe broadcast failed", zap.Stringer("to", s.cfg.BroadcastAddr), zap.Error(err))
		return
	}
	s.metrics.RecordProbe()
	s.logger.Debug("probe sent", zap.Stringer("to", s.cfg.BroadcastAddr))
}
