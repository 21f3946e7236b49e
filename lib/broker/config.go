package broker

import (
	"strings"

	"github.com/ValentinKolb/crusher/lib/cache"
	"github.com/ValentinKolb/crusher/lib/channel"
	"github.com/ValentinKolb/crusher/lib/db"
	"github.com/ValentinKolb/crusher/lib/store"
	"github.com/ValentinKolb/crusher/lib/value"
)

// --------------------------------------------------------------------------
// Configuration
// --------------------------------------------------------------------------

// Configure applies a configuration command and reports whether an
// interrupt has arrived.
//
// The command is a literal (target, param, ...) where target is a single
// index or a list of indices in 0..8 (see Target). The params replace the
// complete settings of every addressed target: five for the cache
// (bucketWidth, falseHit, randomHit, keyHalfWrite, valueHalfWrite) and
// three for a channel (bitRate, cloneRate, scrambleRate).
//
// The command is recorded in the history even if it is rejected. A
// rejected command changes no settings at all.
func (b *Broker) Configure(cmd string) (bool, error) {
	b.history = append(b.history, db.HistoryEntry{Ops: b.ops, Command: cmd})
	b.metrics.configures.Inc()

	if err := b.configure(cmd); err != nil {
		b.metrics.configErrors.Inc()
		Logger.Warningf("rejected configuration %q: %v", cmd, err)
		return b.Interrupted(), err
	}

	Logger.Infof("applied configuration %q after %d operations", cmd, b.ops)
	return b.Interrupted(), nil
}

func (b *Broker) configure(cmd string) error {
	lit, err := value.Parse(cmd)
	if err != nil {
		return store.ConfigErrorf("malformed configuration %q: %v", cmd, err)
	}

	targets, params, err := parseCommand(lit)
	if err != nil {
		return err
	}

	// validate every target before touching any of them
	var (
		cacheSettings   cache.Settings
		channelSettings channel.Settings
	)
	for _, t := range targets {
		if t == TargetCache {
			if cacheSettings, err = cache.ParseSettings(params); err != nil {
				return err
			}
		} else {
			if channelSettings, err = channel.ParseSettings(params); err != nil {
				return err
			}
		}
	}

	for _, t := range targets {
		if t == TargetCache {
			b.cache.Config(cacheSettings)
		} else {
			b.channels[t].Config(channelSettings)
		}
	}
	return nil
}

// parseCommand splits a configuration literal into its targets and
// numeric parameters.
func parseCommand(lit value.Value) ([]Target, []float64, error) {
	if lit.Kind() != value.KindSequence || lit.Len() == 0 {
		return nil, nil, store.ConfigErrorf("configuration must be a non-empty tuple, got %s", lit)
	}
	items := lit.Items()

	var targets []Target
	switch first := items[0]; first.Kind() {
	case value.KindInteger:
		t, err := parseTarget(first)
		if err != nil {
			return nil, nil, err
		}
		targets = append(targets, t)
	case value.KindSequence:
		for _, item := range first.Items() {
			t, err := parseTarget(item)
			if err != nil {
				return nil, nil, err
			}
			targets = append(targets, t)
		}
	default:
		return nil, nil, store.ConfigErrorf("target must be an index or a list of indices, got %s", first)
	}

	params := make([]float64, 0, len(items)-1)
	for _, item := range items[1:] {
		f, ok := item.Float()
		if !ok {
			return nil, nil, store.ConfigErrorf("parameter %s is not a number", item)
		}
		params = append(params, f)
	}

	return targets, params, nil
}

func parseTarget(v value.Value) (Target, error) {
	i, ok := v.Int()
	if !ok || i < int64(TargetCache) || i >= int64(numTargets) {
		names := make([]string, 0, numTargets)
		for t := TargetCache; t < numTargets; t++ {
			names = append(names, t.String())
		}
		return 0, store.ConfigErrorf("invalid target %s, must be 0..%d (%s)", v, numTargets-1, strings.Join(names, ", "))
	}
	return Target(i), nil
}
