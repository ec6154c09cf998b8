package resolve_test

import (
	"net/netip"
	"sync"
	"testing"

	"github.com/rafalfr/ruledns/internal/config"
	"github.com/rafalfr/ruledns/internal/resolve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_memoizesClient(t *testing.T) {
	t.Parallel()

	pool := resolve.NewPool()
	u := config.Upstream{Kind: config.KindUDP, Addr: netip.MustParseAddrPort("1.1.1.1:53")}

	c1, err := pool.Get(u)
	require.NoError(t, err)

	c2, err := pool.Get(u)
	require.NoError(t, err)

	assert.Same(t, c1, c2)
}

func TestPool_memoizesFailure(t *testing.T) {
	t.Parallel()

	pool := resolve.NewPool()
	bad := config.Upstream{Kind: config.KindSpecial, Special: config.SpecialNXDOMAIN}

	_, err1 := pool.Get(bad)
	require.Error(t, err1)

	_, err2 := pool.Get(bad)
	require.Error(t, err2)
	assert.Equal(t, err1.Error(), err2.Error())
}

func TestPool_concurrentGetBuildsOnce(t *testing.T) {
	t.Parallel()

	pool := resolve.NewPool()
	u := config.Upstream{Kind: config.KindUDP, Addr: netip.MustParseAddrPort("8.8.8.8:53")}

	const n = 32
	clients := make([]resolve.Client, n)

	var wg sync.WaitGroup
	wg.Add(n)
	for i := range n {
		go func(i int) {
			defer wg.Done()

			c, err := pool.Get(u)
			require.NoError(t, err)
			clients[i] = c
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		assert.Same(t, clients[0], clients[i])
	}
}
