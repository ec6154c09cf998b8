// Package handler turns an incoming DNS query into a response, using a
// router to pick an upstream and a resolver pool to reach it.
package handler

import (
	"context"
	"log/slog"
	"net"
	"net/netip"

	"github.com/miekg/dns"
	"github.com/rafalfr/ruledns/internal/config"
	"github.com/rafalfr/ruledns/internal/resolve"
	"github.com/rafalfr/ruledns/internal/router"
	"github.com/rafalfr/ruledns/internal/textutil"
)

// Handler implements [dns.Handler], answering every query by routing it
// through a [router.Router] and, for resolver-backed upstreams, a
// [resolve.Pool].
type Handler struct {
	router *router.Router
	pool   *resolve.Pool
	logger *slog.Logger
}

// New returns a Handler. A nil logger disables logging.
func New(r *router.Router, pool *resolve.Pool, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Handler{router: r, pool: pool, logger: logger}
}

// ServeDNS implements [dns.Handler]. Every outcome — success, NXDOMAIN,
// NODATA, NOTIMP, FORMERR or SERVFAIL — goes through [respond], so the
// response header is always built the same way: copied from the request,
// with QR set and the chosen rcode.
func (h *Handler) ServeDNS(w dns.ResponseWriter, r *dns.Msg) {
	if r.Response {
		respond(w, r, dns.RcodeFormatError, nil)

		return
	}

	if r.Opcode != dns.OpcodeQuery {
		respond(w, r, dns.RcodeNotImplemented, nil)

		return
	}

	if len(r.Question) != 1 {
		respond(w, r, dns.RcodeFormatError, nil)

		return
	}

	h.answer(w, r)
}

func (h *Handler) answer(w dns.ResponseWriter, r *dns.Msg) {
	q := r.Question[0]

	up, ok := h.router.Search(q.Name, q.Qtype)
	if !ok {
		h.logger.Log(context.Background(), config.LevelTrace, "no rule matched",
			"name", textutil.ShortText(q.Name, 128), "qtype", q.Qtype)
		respond(w, r, dns.RcodeNameError, nil)

		return
	}

	switch up.Kind {
	case config.KindSpecial:
		h.answerSpecial(w, r, up.Special)
	case config.KindIPv4:
		h.answerSynthesized(w, r, q, dns.TypeA, synthesizeA(q.Name, up.IPv4))
	case config.KindIPv6:
		h.answerSynthesized(w, r, q, dns.TypeAAAA, synthesizeAAAA(q.Name, up.IPv6))
	default:
		h.answerResolver(w, r, q, *up)
	}
}

func synthesizeA(name string, ip netip.Addr) dns.RR {
	return &dns.A{
		Hdr: dns.RR_Header{Name: name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 60},
		A:   net.IP(ip.AsSlice()),
	}
}

func synthesizeAAAA(name string, ip netip.Addr) dns.RR {
	return &dns.AAAA{
		Hdr:  dns.RR_Header{Name: name, Rrtype: dns.TypeAAAA, Class: dns.ClassINET, Ttl: 60},
		AAAA: net.IP(ip.AsSlice()),
	}
}

func (h *Handler) answerSpecial(w dns.ResponseWriter, r *dns.Msg, special config.Special) {
	switch special {
	case config.SpecialNXDOMAIN:
		respond(w, r, dns.RcodeNameError, nil)
	case config.SpecialNODATA:
		respond(w, r, dns.RcodeSuccess, nil)
	}
}

// answerSynthesized answers an IPv4/IPv6 upstream. A query for any other
// record type than the one the upstream synthesizes gets an empty NOERROR,
// not NXDOMAIN: the name is real, it just has no record of that type here.
func (h *Handler) answerSynthesized(w dns.ResponseWriter, r *dns.Msg, q dns.Question, want uint16, rr dns.RR) {
	if q.Qtype != want {
		respond(w, r, dns.RcodeSuccess, nil)

		return
	}

	respond(w, r, dns.RcodeSuccess, []dns.RR{rr})
}

func (h *Handler) answerResolver(w dns.ResponseWriter, r *dns.Msg, q dns.Question, up config.Upstream) {
	client, err := h.pool.Get(up)
	if err != nil {
		h.logger.Log(context.Background(), slog.LevelError, "building resolver client failed",
			"err", err)
		respond(w, r, dns.RcodeServerFailure, nil)

		return
	}

	resp, err := client.Lookup(context.Background(), q.Name, q.Qtype, r.IsEdns0() != nil)
	if err != nil {
		h.logger.Log(context.Background(), slog.LevelWarn, "upstream lookup failed",
			"name", textutil.ShortText(q.Name, 128), "err", err)
		respond(w, r, dns.RcodeServerFailure, nil)

		return
	}

	respond(w, r, resp.Rcode, resp.Answer)
}

// respond writes a response built by copying r's header and setting QR and
// rcode, then attaching the answer section — the one path every outcome in
// this package goes through.
func respond(w dns.ResponseWriter, r *dns.Msg, rcode int, answer []dns.RR) {
	m := new(dns.Msg)
	m.SetReply(r)
	m.Rcode = rcode
	m.Answer = answer

	if err := w.WriteMsg(m); err != nil {
		// The connection is already broken; there's nothing left to answer
		// with. A bare SERVFAIL reply is attempted once as a last resort,
		// matching the original resolver's serve_failed() fallback.
		fallback := new(dns.Msg)
		fallback.SetRcode(r, dns.RcodeServerFailure)
		fallback.Question = nil
		_ = w.WriteMsg(fallback)
	}
}
