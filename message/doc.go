// Package message models the messages exchanged with an agent.
//
// Outbound messages (Input) are authored by the caller: plain role/content
// messages built with User, System and Assistant, and approval messages that
// return client-side tool results.
//
// Inbound messages (Message) form a closed tagged union selected by the
// "message_type" discriminant. Decode never fails: a payload that carries an
// unrecognized discriminant, or whose shape does not match its declared
// discriminant, is preserved verbatim as an Unknown message so that new server
// message kinds never break decoding of the rest of a response.
//
// Code that branches over variants should implement Handler and call Dispatch.
// Handler has one method per variant including OnUnknown, so the catch-all
// case is always handled explicitly.
package message
