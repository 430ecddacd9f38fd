package discovery

import (
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// fakeServer answers probes the way a media server does
type fakeServer struct {
	conn   *net.UDPConn
	probes atomic.Int32
	reply  []byte
	wg     sync.WaitGroup
}

func newFakeServer(t *testing.T, reply string) *fakeServer {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)

	f := &fakeServer{conn: conn, reply: []byte(reply)}
	f.wg.Add(1)
	go f.serve()
	t.Cleanup(func() {
		conn.Close()
		f.wg.Wait()
	})
	return f
}

func (f *fakeServer) serve() {
	defer f.wg.Done()
	buf := make([]byte, MaxMessageSize)
	for {
		n, addr, err := f.conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		if string(buf[:n]) != ProbeMessage {
			continue
		}
		f.probes.Add(1)
		if len(f.reply) > 0 {
			f.conn.WriteToUDP(f.reply, addr)
		}
	}
}

func (f *fakeServer) addr() *net.UDPAddr {
	return f.conn.LocalAddr().(*net.UDPAddr)
}

func loopbackListen(binds *atomic.Int32) func(int) (*net.UDPConn, error) {
	return func(int) (*net.UDPConn, error) {
		binds.Add(1)
		return net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	}
}

func newTestService(t *testing.T, target *net.UDPAddr, interval time.Duration, binds *atomic.Int32, logger *zap.Logger) *Service {
	t.Helper()
	if binds == nil {
		binds = &atomic.Int32{}
	}
	s := NewService(Config{
		Interval:      interval,
		ReadTimeout:   20 * time.Millisecond,
		BroadcastAddr: target,
		Listen:        loopbackListen(binds),
		Logger:        logger,
	})
	t.Cleanup(func() { s.Close() })
	return s
}

const serverReply = `{"Address":"http://192.168.1.20:8096","Id":"a1b2c3","Name":"living-room","EndpointAddress":null}`

func TestParseResponse(t *testing.T) {
	srv, err := ParseResponse([]byte(serverReply))
	require.NoError(t, err)
	assert.Equal(t, Server{ID: "a1b2c3", Name: "living-room", Address: "http://192.168.1.20:8096"}, srv)

	_, err = ParseResponse([]byte("not json"))
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = ParseResponse([]byte(`{"Name":"anonymous"}`))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestServerIdentityIsID(t *testing.T) {
	a := Server{ID: "x", Address: "http://10.0.0.1:8096"}
	b := Server{ID: "x", Address: "http://10.0.0.2:8096"}
	c := Server{ID: "y", Address: "http://10.0.0.1:8096"}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.Equal(t, 0, a.Compare(b))
	assert.Equal(t, -1, a.Compare(c))
	assert.Equal(t, 1, c.Compare(a))
}

func TestDiscoversServer(t *testing.T) {
	server := newFakeServer(t, serverReply)
	s := newTestService(t, server.addr(), time.Hour, nil, nil)

	found := make(chan Server, 4)
	s.OnDiscover(func(srv Server) { found <- srv })

	require.NoError(t, s.Start())

	select {
	case srv := <-found:
		assert.Equal(t, "a1b2c3", srv.ID)
		assert.Equal(t, "living-room", srv.Name)
	case <-time.After(2 * time.Second):
		t.Fatal("no server discovered")
	}
}

func TestProbeEchoIsIgnored(t *testing.T) {
	server := newFakeServer(t, "")
	s := newTestService(t, server.addr(), time.Hour, nil, nil)

	var found atomic.Int32
	s.OnDiscover(func(Server) { found.Add(1) })
	require.NoError(t, s.Start())

	sender, err := net.DialUDP("udp4", nil, s.LocalAddr().(*net.UDPAddr))
	require.NoError(t, err)
	defer sender.Close()

	_, err = sender.Write([]byte(ProbeMessage))
	require.NoError(t, err)
	_, err = sender.Write([]byte("garbage"))
	require.NoError(t, err)
	// A valid response after the junk proves the loop is still alive.
	_, err = sender.Write([]byte(serverReply))
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return found.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), found.Load())
}

func TestStartTwiceBindsOnce(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	server := newFakeServer(t, "")
	binds := &atomic.Int32{}
	s := newTestService(t, server.addr(), time.Hour, binds, zap.New(core))

	require.NoError(t, s.Start())
	require.NoError(t, s.Start())

	assert.Equal(t, int32(1), binds.Load())
	assert.Equal(t, 1, logs.FilterMessage("server discovery already in progress").Len())
}

func TestAutoStopAfterResends(t *testing.T) {
	server := newFakeServer(t, "")
	s := newTestService(t, server.addr(), 30*time.Millisecond, nil, nil)

	var ended atomic.Int32
	s.OnDiscoveryEnded(func(err error) {
		assert.NoError(t, err)
		ended.Add(1)
	})
	require.NoError(t, s.Start())

	assert.Eventually(t, func() bool { return ended.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.False(t, s.Running())

	// Initial probe plus two resends.
	assert.Eventually(t, func() bool { return server.probes.Load() == 3 }, time.Second, 10*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), ended.Load())
	assert.Equal(t, int32(3), server.probes.Load())
}

func TestStopEndsSessionOnce(t *testing.T) {
	server := newFakeServer(t, "")
	s := newTestService(t, server.addr(), time.Hour, nil, nil)

	var ended atomic.Int32
	s.OnDiscoveryEnded(func(error) { ended.Add(1) })

	require.NoError(t, s.Start())
	require.True(t, s.Running())

	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())

	assert.False(t, s.Running())
	assert.Nil(t, s.LocalAddr())
	assert.Equal(t, int32(1), ended.Load())
}

func TestRestartAfterStop(t *testing.T) {
	server := newFakeServer(t, serverReply)
	binds := &atomic.Int32{}
	s := newTestService(t, server.addr(), time.Hour, binds, nil)

	var ended atomic.Int32
	s.OnDiscoveryEnded(func(error) { ended.Add(1) })

	require.NoError(t, s.Start())
	require.NoError(t, s.Stop())
	require.NoError(t, s.Start())
	require.NoError(t, s.Stop())

	assert.Equal(t, int32(2), binds.Load())
	assert.Equal(t, int32(2), ended.Load())
}

func TestUnusableSocketEndsSession(t *testing.T) {
	server := newFakeServer(t, "")
	core, logs := observer.New(zapcore.ErrorLevel)
	s := NewService(Config{
		Interval:      time.Hour,
		ReadTimeout:   20 * time.Millisecond,
		BroadcastAddr: server.addr(),
		Listen: func(int) (*net.UDPConn, error) {
			conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
			if err != nil {
				return nil, err
			}
			conn.Close()
			return conn, nil
		},
		Logger: zap.New(core),
	})
	t.Cleanup(func() { s.Close() })

	ended := make(chan error, 1)
	s.OnDiscoveryEnded(func(err error) { ended <- err })

	require.NoError(t, s.Start())

	select {
	case err := <-ended:
		assert.ErrorIs(t, err, net.ErrClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("session did not end")
	}
	assert.False(t, s.Running())
	assert.Equal(t, 1, logs.FilterMessage("failed to set read deadline").Len())
}

func TestClosedServiceFails(t *testing.T) {
	server := newFakeServer(t, "")
	s := newTestService(t, server.addr(), time.Hour, nil, nil)

	var ended atomic.Int32
	s.OnDiscoveryEnded(func(error) { ended.Add(1) })

	require.NoError(t, s.Start())
	require.NoError(t, s.Close())
	assert.Equal(t, int32(1), ended.Load())

	assert.ErrorIs(t, s.Start(), ErrClosed)
	assert.ErrorIs(t, s.Stop(), ErrClosed)
	assert.NoError(t, s.Close())
}
