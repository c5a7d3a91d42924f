// Package codec converts frames to and from their compact text record.
//
// # Record Format
//
// A record is a flat list of comma-separated integers:
//
//	pivotCount, {x10, y10, rigid, locked} * pivotCount,
//	shapeCount, {kind, p1, p2, [thickness10]} * shapeCount
//
// Coordinates and line thickness are stored as tenths, rounded half up.
// Flags are 0 or 1. Kind 1 is a circle and kind 2 a line; only lines carry
// the thickness field. Colors are not stored: decoded shapes get
// [frame.DefaultColor].
//
// Decoding is strict. Any field-count mismatch, non-integer field,
// out-of-range pivot index, self-loop, unknown kind or bad flag fails with
// an [errors.ErrCodeInvalidFormat] error naming the offending field. A
// single trailing comma is accepted since older records end with one.
//
// Shapes are rebuilt through [frame.Frame.AddCircle] and
// [frame.Frame.AddLine], and rest lengths are recomputed from the decoded
// positions once all shapes exist.
//
// # Packing
//
// [Pack] compresses a record with [lzw.Encode]; [Unpack] reverses it.
// [ShareURL] embeds a packed frame as the data query value of a URL and
// [ParseShareURL] reads it back.
package codec
