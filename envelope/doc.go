// Package envelope wraps outbound messages into a request body and decodes
// response bodies into ordered message sequences.
//
// Decoding is strict at the envelope level and lenient per message: a body
// that is not a JSON object with a "messages" array fails with a DecodeError,
// while individual messages that cannot be mapped onto a known variant are
// kept as message.Unknown in their original position.
package envelope
