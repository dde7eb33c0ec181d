// Package protocol implements the taxiway wire format.
//
// Every TCP connection carries exactly one request and one response. A
// request starts with a one-byte opcode; multi-byte integers are big-endian.
//
//	1 Submit   | len(4B) | payload      -> 0 | id(8B)            or 1
//	2 Deliver                          -> 0 | id(8B) | len(4B) | payload, or 1 when empty
//	3 Ack      | id(8B)                -> 0 or 1
//	4 Release  | id(8B)                -> 0 or 1
//	5 Length                           -> count(8B), no status byte
//	6 Ping                             -> 69
//
// Unknown opcodes are answered with 2 and empty requests with 3.
package protocol
