package proxyrt_test

import (
	"context"
	"net"
	"net/netip"
	"testing"

	"github.com/rafalfr/ruledns/internal/proxyrt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirect_dialsLoopback(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		c, acceptErr := ln.Accept()
		if acceptErr == nil {
			accepted <- c
		}
	}()

	d := proxyrt.NewDirect()
	conn, err := d.DialContext(context.Background(), "tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	server := <-accepted
	defer server.Close()
}

func TestFor_noSocks5ReturnsDirect(t *testing.T) {
	t.Parallel()

	rt := proxyrt.For(netip.AddrPort{})
	_, ok := rt.(proxyrt.Direct)
	assert.True(t, ok)
}
