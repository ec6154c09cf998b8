// Package proxyrt supplies the pluggable dial step the DoH resolver client
// uses to reach its upstream: direct, or through a SOCKS5 proxy when the
// upstream configures one.
package proxyrt

import (
	"context"
	"fmt"
	"net"
	"net/netip"

	"golang.org/x/net/proxy"
)

// Runtime dials a single upstream connection.  Only the DoH client dials
// through a Runtime; the UDP, TCP and DoT clients dial on their own.
type Runtime interface {
	DialContext(ctx context.Context, network, addr string) (net.Conn, error)
}

// Direct dials straight out, the way every upstream without a socks5_proxy
// field behaves.
type Direct struct {
	dialer net.Dialer
}

// NewDirect returns a Runtime that dials straight out.
func NewDirect() Direct {
	return Direct{}
}

// DialContext implements [Runtime].
func (d Direct) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	return d.dialer.DialContext(ctx, network, addr)
}

// SOCKS5 routes every dial through a fixed SOCKS5 proxy address, for a DoH
// upstream that sets socks5_proxy.
type SOCKS5 struct {
	proxyAddr netip.AddrPort
}

// NewSOCKS5 returns a Runtime that dials through the SOCKS5 proxy at addr.
func NewSOCKS5(addr netip.AddrPort) SOCKS5 {
	return SOCKS5{proxyAddr: addr}
}

// DialContext implements [Runtime].  When the SOCKS5 dialer from
// golang.org/x/net/proxy implements [proxy.ContextDialer], ctx is passed
// through to it; otherwise the plain Dial is used and ctx is not consulted.
func (s SOCKS5) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer, err := proxy.SOCKS5(network, s.proxyAddr.String(), nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("building socks5 dialer for %s: %w", s.proxyAddr, err)
	}

	if ctxDialer, ok := dialer.(proxy.ContextDialer); ok {
		return ctxDialer.DialContext(ctx, network, addr)
	}

	return dialer.Dial(network, addr)
}

// For selects the Runtime an upstream's socks5 field calls for: SOCKS5 when
// present, Direct otherwise.
func For(socks5 netip.AddrPort) Runtime {
	if socks5.IsValid() {
		return NewSOCKS5(socks5)
	}

	return NewDirect()
}
