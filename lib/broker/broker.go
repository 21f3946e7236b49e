package broker

import (
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"slices"
	"sync/atomic"

	"github.com/ValentinKolb/crusher/lib/cache"
	"github.com/ValentinKolb/crusher/lib/channel"
	"github.com/ValentinKolb/crusher/lib/db"
	"github.com/ValentinKolb/crusher/lib/store"
	"github.com/ValentinKolb/crusher/lib/util"
	"github.com/ValentinKolb/crusher/lib/value"
	"github.com/cockroachdb/errors"
	"github.com/lni/dragonboat/v4/logger"
	gometrics "github.com/rcrowley/go-metrics"
)

var Logger = logger.GetLogger("broker")

// --------------------------------------------------------------------------
// Targets
// --------------------------------------------------------------------------

// Target addresses a configurable component of the broker.
type Target int

const (
	TargetCache         Target = iota // 0: the cache
	TargetKeyIn                       // 1: keys entering the broker
	TargetValueIn                     // 2: values entering the broker
	TargetKeyCache                    // 3: keys sent to the cache
	TargetValueCacheIn                // 4: values read from the cache
	TargetValueCacheOut               // 5: values written to the cache
	TargetKeyDB                       // 6: keys sent to the database
	TargetValueDBIn                   // 7: values read from the database
	TargetValueDBOut                  // 8: values written to the database

	numTargets
)

var targetNames = [numTargets]string{
	"cache",
	"key-in",
	"value-in",
	"key-cache",
	"value-cache-in",
	"value-cache-out",
	"key-db",
	"value-db-in",
	"value-db-out",
}

func (t Target) String() string {
	if t < 0 || t >= numTargets {
		return fmt.Sprintf("target(%d)", int(t))
	}
	return targetNames[t]
}

// --------------------------------------------------------------------------
// Options
// --------------------------------------------------------------------------

// Options configure a new Broker.
type Options struct {
	// Rand is the random source of all failure decisions. If nil a PCG
	// generator seeded with Seed is used.
	Rand *rand.Rand

	// Seed of the generated random source, 0 picks a random seed
	Seed uint64

	// Initial settings of the cache and of all eight channels
	Cache   cache.Settings
	Channel channel.Settings

	// HandleSignals installs the SIGINT handler on creation. The handler
	// lives until Exit or StopInterrupts.
	HandleSignals bool

	// Out receives the farewell message of Exit, defaults to stdout
	Out io.Writer
}

// DefaultOptions returns the default broker options. Signals are not
// handled unless HandleSignals is set.
func DefaultOptions() *Options {
	return &Options{
		Cache:   cache.DefaultSettings(),
		Channel: channel.DefaultSettings(),
		Out:     os.Stdout,
	}
}

// --------------------------------------------------------------------------
// Broker
// --------------------------------------------------------------------------

// Broker is a noisy key-value store. It routes every key and value through
// eight corrupting channels around a lossy cache and an exact database.
//
// A Broker is not safe for concurrent use, except for Interrupted and
// Interrupt which may be called from any goroutine.
type Broker struct {
	name string
	seed uint64
	out  io.Writer

	cache    *cache.Cache
	db       *db.DataBase
	channels [numTargets]*channel.Channel // index 0 is unused, the cache has its own field

	history []db.HistoryEntry
	ops     uint64

	interrupted atomic.Bool
	signals     *signalHandler

	registry gometrics.Registry
	metrics  *brokerMetrics
}

// New creates a broker that persists to the snapshot named name. The
// snapshot is loaded if it exists. A nil opts uses DefaultOptions.
func New(name string, opts *Options) (*Broker, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	rng, seed := opts.Rand, opts.Seed
	if rng == nil {
		if seed == 0 {
			seed = util.GenerateSeed()
		}
		rng = rand.New(rand.NewPCG(util.SplitSeed(seed)))
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	database, err := db.New(name)
	if err != nil {
		return nil, errors.Wrapf(err, "creating broker %s", name)
	}

	b := &Broker{
		name:     name,
		seed:     seed,
		out:      out,
		db:       database,
		history:  []db.HistoryEntry{{Ops: 0, Command: "defaults"}},
		registry: gometrics.NewRegistry(),
		metrics:  newBrokerMetrics(),
	}

	b.cache = cache.New(rng, opts.Cache, b.registry)
	for t := TargetKeyIn; t < numTargets; t++ {
		b.channels[t] = channel.New(t.String(), rng, opts.Channel, b.registry)
	}

	if opts.HandleSignals {
		b.HandleInterrupts()
	}

	Logger.Infof("broker %s started with %d stored keys (seed %d)", name, database.Len(), seed)
	return b, nil
}

// Name returns the snapshot name of the broker.
func (b *Broker) Name() string { return b.name }

// Seed returns the seed of the generated random source, or 0 if the
// caller supplied its own source.
func (b *Broker) Seed() uint64 { return b.seed }

// Ops returns the number of store, fetch and remove operations so far.
func (b *Broker) Ops() uint64 { return b.ops }

// History returns a copy of the configuration history, starting with the
// "defaults" entry.
func (b *Broker) History() []db.HistoryEntry {
	return slices.Clone(b.history)
}

// CacheSettings returns the current cache settings.
func (b *Broker) CacheSettings() cache.Settings {
	return b.cache.Settings()
}

// ChannelSettings returns the current settings of the channel at t.
func (b *Broker) ChannelSettings(t Target) (channel.Settings, error) {
	if t <= TargetCache || t >= numTargets {
		return channel.Settings{}, store.ConfigErrorf("%s is not a channel", t)
	}
	return b.channels[t].Settings(), nil
}

// DataBase exposes the backing database for inspection.
func (b *Broker) DataBase() *db.DataBase {
	return b.db
}

// --------------------------------------------------------------------------
// Data Path
// --------------------------------------------------------------------------

// Store writes a key-value pair to the cache and the database. The key and
// value are corrupted once on the way in and then separately on the way to
// each layer, so the two layers may hold different copies.
func (b *Broker) Store(key, val value.Value) {
	b.ops++
	b.metrics.stores.Inc()

	key = b.channels[TargetKeyIn].Mangle(key)
	val = b.channels[TargetValueIn].Mangle(val)

	b.cache.Store(b.channels[TargetKeyCache].Mangle(key), b.channels[TargetValueCacheOut].Mangle(val))
	b.db.Store(b.channels[TargetKeyDB].Mangle(key), b.channels[TargetValueDBOut].Mangle(val))
}

// Fetch reads the value of key from the cache, falling back to the
// database on a cache miss. A miss in the database is returned as a
// RetCNotFound error.
func (b *Broker) Fetch(key value.Value) (value.Value, error) {
	b.ops++
	b.metrics.fetches.Inc()

	key = b.channels[TargetKeyIn].Mangle(key)

	val, err := b.cache.Fetch(b.channels[TargetKeyCache].Mangle(key))
	if err == nil {
		return b.channels[TargetValueCacheIn].Mangle(val), nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return value.None, err
	}
	b.metrics.cacheMisses.Inc()

	val, err = b.db.Fetch(b.channels[TargetKeyDB].Mangle(key))
	if err != nil {
		b.metrics.dbMisses.Inc()
		return value.None, err
	}
	return b.channels[TargetValueDBIn].Mangle(val), nil
}

// Remove deletes key from the cache and the database and returns the value
// the database held. A key the database never had is a RetCNotFound error.
func (b *Broker) Remove(key value.Value) (value.Value, error) {
	b.ops++
	b.metrics.removes.Inc()

	b.cache.Remove(b.channels[TargetKeyCache].Mangle(key))

	val, err := b.db.Remove(b.channels[TargetKeyDB].Mangle(key))
	if err != nil {
		b.metrics.dbMisses.Inc()
		return value.None, err
	}
	return b.channels[TargetValueDBIn].Mangle(val), nil
}

// Exit saves the database together with the configuration history and
// says goodbye. It stops the interrupt handler.
func (b *Broker) Exit() error {
	b.StopInterrupts()

	if err := b.db.Save(b.history); err != nil {
		return errors.Wrapf(err, "exiting broker %s", b.name)
	}

	Logger.Infof("broker %s exited after %d operations", b.name, b.ops)
	_, err := fmt.Fprintln(b.out, "Goodbye!")
	return err
}
