// Package broker implements the crusher, a key-value store that injects
// storage and transmission failures on purpose.
//
// A Broker composes one lossy cache.Cache, one exact db.DataBase and eight
// noisy channel.Channel instances:
//
//	Store:  key -> key-in -> key-cache  -> cache    <- value-cache-out <- value-in <- value
//	                      -> key-db     -> database <- value-db-out    <-
//	Fetch:  key -> key-in -> key-cache  -> cache    -> value-cache-in  -> value
//	                         (on a miss) key-db -> database -> value-db-in -> value
//	Remove: key -> key-cache -> cache
//	        key -> key-db    -> database -> value-db-in -> value
//
// Each component can be reconfigured at runtime with Configure. The
// targets are addressed by index:
//
//	0 cache            3 key-cache         6 key-db
//	1 key-in           4 value-cache-in    7 value-db-in
//	2 value-in         5 value-cache-out   8 value-db-out
//
// For example "(0, 16, 0.0, 0.0, 0.0, 0.0)" makes the cache exact and
// "([1, 2], 0.001, 0.0, 0.0)" raises the bit rate of both input channels.
//
// Every configuration command is stored in a history together with the
// operation count at which it arrived. Exit saves the database and writes
// the history into the text dump.
//
// All failure decisions draw from a single random source. Brokers created
// with the same seed and fed the same operations produce the same results.
//
// Interrupts are cooperative: the SIGINT handler only sets a flag that the
// caller polls with Interrupted (Configure also reports it). The caller
// decides when to call Exit.
package broker
