// Package value provides the tagged value type used for keys and values
// throughout crusher.
//
// A Value is one of:
//   - Character: a single code point
//   - Integer: a signed 64 bit integer
//   - Real: a float64
//   - Text: a string
//   - Sequence: an ordered list of values, rendered as a tuple
//   - Opaque: a bare token (None, True, False) with no corruption rule
//
// Every value has two canonical forms:
//
//   - Text form (String): an unambiguous literal that Parse reads back.
//     Its length in code points (Size) is the size proxy of the failure model.
//   - Binary form (AppendBinary, MarshalBinary): a tagged, length-prefixed
//     encoding. Equal values produce identical bytes, so the binary form is
//     used as map key, as cache bucket source and in database snapshots.
//
// A Character and a Text holding the same single code point are the same
// logical value: they compare equal and share both canonical forms.
package value
