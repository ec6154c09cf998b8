// Package resolve turns a configured upstream into a live client capable of
// answering queries, and memoizes one client per distinct upstream.
package resolve

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"

	"github.com/miekg/dns"
	"github.com/rafalfr/ruledns/internal/config"
	"github.com/rafalfr/ruledns/internal/proxyrt"
)

// Client answers a single query against one upstream, consulting and
// refreshing its own stub resolver cache. useEDNS mirrors spec.md §4.4's
// "EDNS is mirrored" framing rule: when the original client's request
// carried an OPT record, the handler signals that to the upstream lookup,
// without synthesizing or copying the OPT record itself.
type Client interface {
	Lookup(ctx context.Context, name string, qtype uint16, useEDNS bool) (*dns.Msg, error)
	Close() error
}

// Build constructs the Client for u's transport.  u must be one of
// [config.KindUDP], [config.KindTCP], [config.KindDoT] or [config.KindDoH];
// the synthesized and special kinds never reach the resolver pool.
func Build(u config.Upstream) (Client, error) {
	switch u.Kind {
	case config.KindUDP:
		return &dnsClient{addr: u.Addr.String(), client: &dns.Client{Net: "udp"}, cache: newAnswerCache()}, nil
	case config.KindTCP:
		return &dnsClient{addr: u.Addr.String(), client: &dns.Client{Net: "tcp"}, cache: newAnswerCache()}, nil
	case config.KindDoT:
		client := &dns.Client{
			Net:       "tcp-tls",
			TLSConfig: &tls.Config{ServerName: u.SNI, MinVersion: tls.VersionTLS12},
		}

		return &dnsClient{addr: u.Addr.String(), client: client, cache: newAnswerCache()}, nil
	case config.KindDoH:
		return newDoHClient(u), nil
	default:
		return nil, fmt.Errorf("upstream kind %d has no resolver client", u.Kind)
	}
}

// dnsClient answers queries over UDP, TCP or DNS-over-TLS via
// [dns.Client.ExchangeContext], which already implements those three wire
// formats.
type dnsClient struct {
	addr   string
	client *dns.Client
	cache  *answerCache
}

func (c *dnsClient) Lookup(ctx context.Context, name string, qtype uint16, useEDNS bool) (*dns.Msg, error) {
	if msg, ok := c.cache.get(name, qtype); ok {
		return msg, nil
	}

	req := new(dns.Msg)
	req.SetQuestion(dns.Fqdn(name), qtype)

	if useEDNS {
		req.SetEdns0(dns.DefaultMsgSize, false)
	}

	resp, _, err := c.client.ExchangeContext(ctx, req, c.addr)
	if err != nil {
		return nil, fmt.Errorf("exchanging with %s: %w", c.addr, err)
	}

	c.cache.put(name, qtype, resp)

	return resp, nil
}

func (c *dnsClient) Close() error {
	return nil
}

// dohClient answers queries over DNS-over-HTTPS by hand: miekg/dns has no
// DoH client, so this POSTs the wire-format query as
// application/dns-message and parses the wire-format body back, per RFC
// 8484. Its transport dials through a [proxyrt.Runtime], which is a SOCKS5
// proxy when the upstream configures one and a direct dialer otherwise.
type dohClient struct {
	url        string
	httpClient *http.Client
	cache      *answerCache
}

func newDoHClient(u config.Upstream) *dohClient {
	runtime := proxyrt.For(u.Socks5)

	transport := &http.Transport{
		DialContext: runtime.DialContext,
		TLSClientConfig: &tls.Config{
			ServerName: u.SNI,
			MinVersion: tls.VersionTLS12,
		},
	}

	return &dohClient{
		url:        fmt.Sprintf("https://%s/dns-query", u.Addr),
		httpClient: &http.Client{Transport: transport},
		cache:      newAnswerCache(),
	}
}

func (c *dohClient) Lookup(ctx context.Context, name string, qtype uint16, useEDNS bool) (*dns.Msg, error) {
	if msg, ok := c.cache.get(name, qtype); ok {
		return msg, nil
	}

	req := new(dns.Msg)
	req.SetQuestion(dns.Fqdn(name), qtype)

	if useEDNS {
		req.SetEdns0(dns.DefaultMsgSize, false)
	}

	wire, err := req.Pack()
	if err != nil {
		return nil, fmt.Errorf("packing doh query: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(wire))
	if err != nil {
		return nil, fmt.Errorf("building doh request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/dns-message")
	httpReq.Header.Set("Accept", "application/dns-message")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("doh request to %s: %w", c.url, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("doh request to %s: status %s", c.url, httpResp.Status)
	}

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading doh response: %w", err)
	}

	resp := new(dns.Msg)
	if err = resp.Unpack(body); err != nil {
		return nil, fmt.Errorf("unpacking doh response: %w", err)
	}

	c.cache.put(name, qtype, resp)

	return resp, nil
}

func (c *dohClient) Close() error {
	c.httpClient.CloseIdleConnections()

	return nil
}
