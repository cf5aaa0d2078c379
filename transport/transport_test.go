package transport

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTCPAcceptAndExchange(t *testing.T) {
	tr := NewTCP()
	require.NoError(t, tr.Open("127.0.0.1:0"))
	defer tr.Close()
	require.Equal(t, Stream, tr.Kind())

	type acceptResult struct {
		link Link
		err  error
	}
	got := make(chan acceptResult, 1)
	go func() {
		l, err := tr.Accept()
		got <- acceptResult{l, err}
	}()

	peer, err := net.Dial("tcp", tr.Address())
	require.NoError(t, err)
	defer peer.Close()

	res := <-got
	require.NoError(t, res.err)
	defer res.link.Close()

	_, err = peer.Write([]byte("ping"))
	require.NoError(t, err)

	buf := make([]byte, 4)
	n, err := res.link.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf[:n]))

	_, _, err = tr.ReadFrom(buf)
	assert.ErrorIs(t, err, ErrNotDatagram)
}

func TestTCPCloseUnblocksAccept(t *testing.T) {
	tr := NewTCP()
	require.NoError(t, tr.Open("127.0.0.1:0"))

	done := make(chan error, 1)
	go func() {
		_, err := tr.Accept()
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, tr.Close())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("accept did not unblock on close")
	}
}

func TestUDPRoundTrip(t *testing.T) {
	a := NewUDP()
	require.NoError(t, a.Open("127.0.0.1:0"))
	defer a.Close()

	b := NewUDP()
	require.NoError(t, b.Open("127.0.0.1:0"))
	defer b.Close()
	require.Equal(t, Datagram, b.Kind())

	_, err := a.WriteTo([]byte("hello"), b.Address())
	require.NoError(t, err)

	buf := make([]byte, 64)
	n, from, err := b.ReadFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))
	assert.Equal(t, a.Address(), from)

	// Replying to the recorded endpoint needs no fresh resolution.
	_, err = b.WriteTo([]byte("hi"), from)
	require.NoError(t, err)

	n, _, err = a.ReadFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, "hi", string(buf[:n]))

	_, err = a.Accept()
	assert.ErrorIs(t, err, ErrNotStream)
}

func TestMockStream(t *testing.T) {
	m := NewMock(Stream)
	defer m.Close()

	peer, err := m.Dial()
	require.NoError(t, err)
	defer peer.Close()

	link, err := m.Accept()
	require.NoError(t, err)
	defer link.Close()

	go peer.Write([]byte("abc"))

	buf := make([]byte, 3)
	n, err := link.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(buf[:n]))
}

func TestMockDatagram(t *testing.T) {
	m := NewMock(Datagram)
	defer m.Close()

	m.Inject("10.0.0.1:9999", []byte{1, 2, 3})

	buf := make([]byte, 16)
	n, from, err := m.ReadFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, buf[:n])
	assert.Equal(t, "10.0.0.1:9999", from)

	_, err = m.WriteTo([]byte{9}, from)
	require.NoError(t, err)

	pkt := <-m.Outbound()
	assert.Equal(t, "10.0.0.1:9999", pkt.Endpoint)
	assert.Equal(t, []byte{9}, pkt.Data)
}

func TestMockCloseUnblocks(t *testing.T) {
	m := NewMock(Stream)
	done := make(chan error, 1)
	go func() {
		_, err := m.Accept()
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	m.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("accept did not unblock on close")
	}
}
