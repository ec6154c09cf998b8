package resolve

import (
	"time"

	"github.com/bluele/gcache"
	"github.com/miekg/dns"
)

// cacheSize is the number of answers each client's stub resolver cache
// holds.  This is the only answer cache the proxy keeps; it sits inside a
// single resolver client and is never shared or persisted across restarts.
const cacheSize = 128

// answerCache memoizes recent answers for one client, keyed by query name
// and type, bounded to cacheSize entries with per-entry TTL expiry.
type answerCache struct {
	gc gcache.Cache
}

func newAnswerCache() *answerCache {
	return &answerCache{gc: gcache.New(cacheSize).LRU().Build()}
}

type cacheKey struct {
	name  string
	qtype uint16
}

func (c *answerCache) get(name string, qtype uint16) (*dns.Msg, bool) {
	v, err := c.gc.Get(cacheKey{name: name, qtype: qtype})
	if err != nil {
		return nil, false
	}

	msg, ok := v.(*dns.Msg)

	return msg, ok
}

// put stores msg, expiring it after the lowest TTL among its answers. A
// response with no answers (e.g. NXDOMAIN) isn't cached, since there's no
// TTL to anchor its lifetime to.
func (c *answerCache) put(name string, qtype uint16, msg *dns.Msg) {
	ttl := minTTL(msg)
	if ttl <= 0 {
		return
	}

	_ = c.gc.SetWithExpire(cacheKey{name: name, qtype: qtype}, msg, time.Duration(ttl)*time.Second)
}

func minTTL(msg *dns.Msg) uint32 {
	var min uint32
	for i, rr := range msg.Answer {
		ttl := rr.Header().Ttl
		if i == 0 || ttl < min {
			min = ttl
		}
	}

	return min
}
