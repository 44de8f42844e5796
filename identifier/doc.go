// Package identifier implements the structured object identifiers used by the
// agent service.
//
// Every server-side entity is addressed by a value of the form
//
//	<tag>-<uuid>
//
// where tag names the entity kind (agent, message, tool, ...) and uuid is a
// canonical 36 character UUID. Identifier values can only be obtained through
// Parse, New or JSON/text decoding, so a non-zero Identifier is always well
// formed. The zero value is reserved to mean "absent".
package identifier
