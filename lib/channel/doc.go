// Package channel implements the noisy channel: a stateful pipe that
// corrupts the values passing through it.
//
// Failure modes, checked in this order on every Mangle:
//
//   - Clone: the channel re-emits the previous value it accepted instead of
//     the current one. The previous value is not replaced by a clone.
//   - Scramble: reserved, currently a no-op.
//   - Bit flip: a Poisson sampled number of bits is toggled.
//
// The bit-flip rule depends on the kind of value, the first match wins:
//
//  1. Character: flip among the bits.Len(c)+1 low bits of the code point.
//  2. Text: every code point is flipped like a Character.
//  3. Negative number: the magnitude is flipped, then the sign is lost
//     with the failure probability of a one-character value.
//  4. Integer: like a Character.
//  5. Real: flips within a fixed window of 24 powers of two, each applied as
//     an addition or subtraction.
//  6. Sequence: every element is flipped, the shape is kept.
//  7. Anything else is returned unchanged.
//
// Failure tallies are recorded in a go-metrics registry under
// "channel.<name>.clone", ".scramble", ".bitflip" and ".flipped-bits".
package channel
