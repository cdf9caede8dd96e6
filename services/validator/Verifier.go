package validator

import (
	"time"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	bec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/atomic"
)

// ECDSAVerifier verifies DER encoded secp256k1 signatures over the double SHA256 of the
// message. Public keys may be compressed or uncompressed.
type ECDSAVerifier struct{}

func NewECDSAVerifier() *ECDSAVerifier {
	return &ECDSAVerifier{}
}

func (v *ECDSAVerifier) Verify(publicKey, message, signature []byte) bool {
	if len(publicKey) == 0 || len(signature) == 0 {
		return false
	}

	pubKey, err := bec.ParsePubKey(publicKey)
	if err != nil {
		return false
	}

	sig, err := bec.ParseDERSignature(signature)
	if err != nil {
		return false
	}

	return sig.Verify(chainhash.DoubleHashB(message), pubKey)
}

// CachedVerifier remembers successful verifications for a while so that a transaction
// re-evaluated across selection sweeps does not pay for the same ECDSA check twice.
// Failed verifications are never cached.
type CachedVerifier struct {
	verifier Verifier
	cache    *ttlcache.Cache[chainhash.Hash, struct{}]
	hits     atomic.Uint64
	misses   atomic.Uint64
}

func NewCachedVerifier(verifier Verifier, size int, ttl time.Duration) *CachedVerifier {
	initPrometheusMetrics()

	if size <= 0 {
		size = 1
	}

	return &CachedVerifier{
		verifier: verifier,
		cache: ttlcache.New[chainhash.Hash, struct{}](
			ttlcache.WithTTL[chainhash.Hash, struct{}](ttl),
			ttlcache.WithCapacity[chainhash.Hash, struct{}](uint64(size)),
		),
	}
}

func (c *CachedVerifier) Verify(publicKey, message, signature []byte) bool {
	key := verificationKey(publicKey, message, signature)

	if item := c.cache.Get(key); item != nil {
		c.hits.Inc()
		prometheusSigCacheHits.Inc()

		return true
	}

	c.misses.Inc()
	prometheusSigCacheMisses.Inc()

	if !c.verifier.Verify(publicKey, message, signature) {
		return false
	}

	c.cache.Set(key, struct{}{}, ttlcache.DefaultTTL)

	return true
}

// Stats returns the number of cache hits and misses since creation.
func (c *CachedVerifier) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *CachedVerifier) Len() int {
	return c.cache.Len()
}

// verificationKey length-prefixes every part so that different splits of the same bytes
// never share a key.
func verificationKey(publicKey, message, signature []byte) chainhash.Hash {
	buf := make([]byte, 0, len(publicKey)+len(message)+len(signature)+27)

	for _, part := range [][]byte{publicKey, message, signature} {
		buf = append(buf, bt.VarInt(uint64(len(part))).Bytes()...)
		buf = append(buf, part...)
	}

	return chainhash.HashH(buf)
}
