package cache

import (
	"math"
	"math/rand/v2"
	"slices"

	"github.com/ValentinKolb/crusher/lib/failure"
	"github.com/ValentinKolb/crusher/lib/store"
	"github.com/ValentinKolb/crusher/lib/value"
	"github.com/lni/dragonboat/v4/logger"
	gometrics "github.com/rcrowley/go-metrics"
)

var Logger = logger.GetLogger("cache")

// --------------------------------------------------------------------------
// Settings
// --------------------------------------------------------------------------

const (
	defaultBucketWidth = 16
	defaultRate        = 0.0001
)

// Settings configure the size and the failure rates of a Cache.
type Settings struct {
	// BucketWidth is the number of trailing bytes of the encoded key that
	// select the bucket. 0 uses the whole key.
	BucketWidth        int
	FalseHitRate       float64 // A lookup accepts the entry of another key in the same bucket
	RandomHitRate      float64 // A lookup returns the value of a random entry
	KeyHalfWriteRate   float64 // A store keeps the key already in the bucket
	ValueHalfWriteRate float64 // A store keeps the value already in the bucket
}

// DefaultSettings returns the default cache settings
func DefaultSettings() Settings {
	return Settings{
		BucketWidth:        defaultBucketWidth,
		FalseHitRate:       defaultRate,
		RandomHitRate:      defaultRate,
		KeyHalfWriteRate:   defaultRate,
		ValueHalfWriteRate: defaultRate,
	}
}

// ParseSettings builds Settings from positional configuration parameters
// (bucketWidth, falseHitRate, randomHitRate, keyHalfWriteRate, valueHalfWriteRate).
func ParseSettings(params []float64) (Settings, error) {
	if len(params) != 5 {
		return Settings{}, store.ConfigErrorf("cache expects 5 parameters, got %d", len(params))
	}
	width := params[0]
	if width < 0 || width != math.Trunc(width) || width > math.MaxInt32 {
		return Settings{}, store.ConfigErrorf("cache bucket width must be a non-negative integer, got %v", width)
	}
	for i, p := range params[1:] {
		if p < 0 || math.IsNaN(p) {
			return Settings{}, store.ConfigErrorf("cache parameter %d must be a non-negative rate, got %v", i+1, p)
		}
	}
	return Settings{
		BucketWidth:        int(width),
		FalseHitRate:       params[1],
		RandomHitRate:      params[2],
		KeyHalfWriteRate:   params[3],
		ValueHalfWriteRate: params[4],
	}, nil
}

// --------------------------------------------------------------------------
// Cache
// --------------------------------------------------------------------------

type entry struct {
	key value.Value
	val value.Value
}

// Cache is a direct-mapped, lossy cache. Each bucket holds at most one
// entry; two keys that map to the same bucket evict each other.
//
// A Cache is not safe for concurrent use.
type Cache struct {
	settings Settings
	rng      *rand.Rand
	buckets  map[string]entry
	stats    cacheStats
}

// cacheStats tallies injected failures
type cacheStats struct {
	falseHits       gometrics.Counter
	randomHits      gometrics.Counter
	keyHalfWrites   gometrics.Counter
	valueHalfWrites gometrics.Counter
}

// New creates an empty cache. Failure tallies are registered under
// "cache.*" in the registry; a nil registry uses a private one.
func New(rng *rand.Rand, settings Settings, registry gometrics.Registry) *Cache {
	if registry == nil {
		registry = gometrics.NewRegistry()
	}
	return &Cache{
		settings: settings,
		rng:      rng,
		buckets:  make(map[string]entry),
		stats: cacheStats{
			falseHits:       gometrics.GetOrRegisterCounter("cache.false-hit", registry),
			randomHits:      gometrics.GetOrRegisterCounter("cache.random-hit", registry),
			keyHalfWrites:   gometrics.GetOrRegisterCounter("cache.key-half-write", registry),
			valueHalfWrites: gometrics.GetOrRegisterCounter("cache.value-half-write", registry),
		},
	}
}

func (c *Cache) Settings() Settings { return c.settings }

// Config replaces all settings of the cache. Entries are kept in their
// buckets even if the bucket width changes.
func (c *Cache) Config(s Settings) {
	c.settings = s
}

// Len returns the number of occupied buckets.
func (c *Cache) Len() int {
	return len(c.buckets)
}

// hash returns the bucket of a key: the trailing BucketWidth bytes of its
// canonical binary form.
func (c *Cache) hash(key value.Value) string {
	b := key.AppendBinary(nil)
	if w := c.settings.BucketWidth; w > 0 && w < len(b) {
		b = b[len(b)-w:]
	}
	return string(b)
}

// Store puts the pair into the bucket of key, overwriting its occupant.
//
// If the bucket is occupied the write may only half succeed: a key
// half-write keeps the key already stored in the bucket, a value half-write
// keeps the value stored in the bucket of the (possibly replaced) key.
func (c *Cache) Store(key, val value.Value) {
	if _, ok := c.buckets[c.hash(key)]; ok {
		if failure.ShouldFail(c.rng, c.settings.KeyHalfWriteRate, key) {
			c.stats.keyHalfWrites.Inc(1)
			key = c.buckets[c.hash(key)].key
		}
		if failure.ShouldFail(c.rng, c.settings.ValueHalfWriteRate, val) {
			// the bucket is looked up again with the key that is about to be written
			if old, ok := c.buckets[c.hash(key)]; ok {
				c.stats.valueHalfWrites.Inc(1)
				val = old.val
			}
		}
	}
	c.buckets[c.hash(key)] = entry{key: key, val: val}
}

// Fetch returns the cached value for key. It fails with RetCNotFound if the
// cache is empty or the bucket of key holds no matching entry.
//
// A random hit returns the value of any entry. A false hit accepts the
// entry in the bucket even though it belongs to another key.
func (c *Cache) Fetch(key value.Value) (value.Value, error) {
	n := len(c.buckets)
	if n == 0 {
		return value.None, store.NotFound(key)
	}
	hk := c.hash(key)

	if failure.ShouldFail(c.rng, c.settings.RandomHitRate, key) {
		c.stats.randomHits.Inc(1)
		// sorted so the pick only depends on the generator
		buckets := make([]string, 0, n)
		for b := range c.buckets {
			buckets = append(buckets, b)
		}
		slices.Sort(buckets)
		return c.buckets[buckets[c.rng.IntN(n)]].val, nil
	}

	if e, ok := c.buckets[hk]; ok {
		if e.key.Equal(key) {
			return e.val, nil
		}
		if failure.ShouldFail(c.rng, c.settings.FalseHitRate, key) {
			c.stats.falseHits.Inc(1)
			Logger.Debugf("false hit for %s (bucket holds %s)", key, e.key)
			return e.val, nil
		}
	}
	return value.None, store.NotFound(key)
}

// Remove empties the bucket of key, if it is occupied.
// Note that this also removes a different key sharing the bucket.
func (c *Cache) Remove(key value.Value) {
	delete(c.buckets, c.hash(key))
}
