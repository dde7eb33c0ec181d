// Package tcpserver serves the taxiway binary protocol.
//
// The accept loop hands each connection to a bounded executor. A handler
// reads one request under a read deadline, applies it to the queue, writes
// one response and closes the connection. Malformed input, including a frame
// still incomplete when the read deadline expires, is answered with a status
// byte. A client that sends nothing, or a connection that fails with a network
// error, is logged at warn level and dropped.
package tcpserver
