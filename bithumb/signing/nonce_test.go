package signing

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequenceNonceIsUUIDv7(t *testing.T) {
	n := NewSequenceNonce()
	n.now = func() time.Time { return time.UnixMilli(testTimestamp) }

	u, err := uuid.Parse(n.Next())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), u.Version())
	assert.Equal(t, uuid.RFC4122, u.Variant())

	sec, nsec := u.Time().UnixTime()
	assert.Equal(t, testTimestamp, sec*1000+nsec/int64(time.Millisecond))
}

func TestSequenceNonceUniqueUnderConcurrency(t *testing.T) {
	n := NewSequenceNonce()
	// 固定时钟：所有 nonce 落在同一毫秒
	n.now = func() time.Time { return time.UnixMilli(testTimestamp) }

	const workers, perWorker = 16, 500
	var (
		mu   sync.Mutex
		seen = make(map[string]struct{}, workers*perWorker)
		wg   sync.WaitGroup
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]string, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				local = append(local, n.Next())
			}
			mu.Lock()
			for _, s := range local {
				seen[s] = struct{}{}
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
	assert.Equal(t, uint64(workers*perWorker), n.Issued())
}

type fixedNonce string

func (f fixedNonce) Next() string { return string(f) }

func TestWithNonceSource(t *testing.T) {
	s, err := NewJWTSigner(testCreds,
		WithNonceSource(fixedNonce(testNonce)),
		WithClock(func() time.Time { return time.UnixMilli(testTimestamp) }))
	require.NoError(t, err)

	tok, err := s.Sign(limitOrderRequest())
	require.NoError(t, err)

	want, err := s.SignAt(limitOrderRequest(), testNonce, testTimestamp)
	require.NoError(t, err)
	assert.Equal(t, want.Token, tok.Token)
}

func TestRandomNonce(t *testing.T) {
	var r RandomNonce
	a, b := r.Next(), r.Next()
	assert.NotEqual(t, a, b)
	_, err := uuid.Parse(a)
	assert.NoError(t, err)
}
