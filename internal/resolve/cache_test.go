package resolve

import (
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
)

func TestAnswerCache_missThenHit(t *testing.T) {
	t.Parallel()

	c := newAnswerCache()

	_, ok := c.get("example.com.", dns.TypeA)
	assert.False(t, ok)

	msg := new(dns.Msg)
	msg.SetQuestion("example.com.", dns.TypeA)
	rr, err := dns.NewRR("example.com. 60 IN A 127.0.0.1")
	assert.NoError(t, err)
	msg.Answer = append(msg.Answer, rr)

	c.put("example.com.", dns.TypeA, msg)

	got, ok := c.get("example.com.", dns.TypeA)
	assert.True(t, ok)
	assert.Same(t, msg, got)
}

func TestAnswerCache_noTTLNotCached(t *testing.T) {
	t.Parallel()

	c := newAnswerCache()

	msg := new(dns.Msg)
	msg.SetQuestion("empty.example.com.", dns.TypeA)
	c.put("empty.example.com.", dns.TypeA, msg)

	_, ok := c.get("empty.example.com.", dns.TypeA)
	assert.False(t, ok)
}

func TestAnswerCache_distinctQtype(t *testing.T) {
	t.Parallel()

	c := newAnswerCache()

	msgA := new(dns.Msg)
	rrA, _ := dns.NewRR("example.com. 60 IN A 127.0.0.1")
	msgA.Answer = append(msgA.Answer, rrA)
	c.put("example.com.", dns.TypeA, msgA)

	_, ok := c.get("example.com.", dns.TypeAAAA)
	assert.False(t, ok)
}
