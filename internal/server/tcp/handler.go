package tcpserver

import (
	"errors"
	"io"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/rzbill/taxiway/internal/jobqueue"
	"github.com/rzbill/taxiway/internal/protocol"
	"github.com/rzbill/taxiway/pkg/log"
)

const (
	lingerTimeout = 500 * time.Millisecond
	lingerMaxRead = 64 << 10
)

// handleConn serves exactly one request on conn and closes it.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	logger := s.logger.With(
		log.Str("conn_id", uuid.NewString()),
		log.Str("remote", conn.RemoteAddr().String()),
	)

	if err := conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout)); err != nil {
		logger.Warn("set read deadline", log.Err(err))
		return
	}
	req, err := protocol.ReadRequest(conn, s.opts.MaxPayload)
	var resp []byte
	if err != nil {
		var ok bool
		resp, ok = readErrorResponse(err)
		if !ok {
			logger.Warn("read request failed", log.Err(err))
			return
		}
		logger.Debug("rejected request", log.Err(err), log.Int("status", int(resp[0])))
	} else {
		resp = s.dispatch(req, logger)
	}

	if err := conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout)); err != nil {
		logger.Warn("set write deadline", log.Err(err))
		return
	}
	if _, err := conn.Write(resp); err != nil {
		logger.Warn("write response failed", log.Str("op", protocol.OpName(req.Op)), log.Err(err))
		return
	}
	lingerClose(conn)
}

// readErrorResponse maps framing errors to their status byte. ok is false for
// network errors, which get no response.
func readErrorResponse(err error) (resp []byte, ok bool) {
	switch {
	case errors.Is(err, protocol.ErrEmptyRequest):
		return protocol.StatusResponse(protocol.StatusEmptyRequest), true
	case errors.Is(err, protocol.ErrUnknownOpcode):
		return protocol.StatusResponse(protocol.StatusUnknownOpcode), true
	case errors.Is(err, protocol.ErrInvalidFormat):
		return protocol.StatusResponse(protocol.StatusFailure), true
	default:
		return nil, false
	}
}

// dispatch applies req to the engine and returns the response bytes.
func (s *Server) dispatch(req protocol.Request, logger log.Logger) []byte {
	switch req.Op {
	case protocol.OpSubmit:
		jobID, err := s.engine.Submit(req.Payload)
		if err != nil {
			logger.Debug("submit rejected", log.Err(err))
			return protocol.StatusResponse(protocol.StatusFailure)
		}
		return protocol.SubmitResponse(jobID)
	case protocol.OpDeliver:
		job, ok := s.engine.Deliver()
		if !ok {
			return protocol.StatusResponse(protocol.StatusFailure)
		}
		return protocol.DeliverResponse(job.ID, job.Payload)
	case protocol.OpAck:
		return s.statusFor(s.engine.Ack(req.JobID), req, logger)
	case protocol.OpRelease:
		return s.statusFor(s.engine.Release(req.JobID), req, logger)
	case protocol.OpLength:
		return protocol.LengthResponse(uint64(s.engine.Len()))
	case protocol.OpPing:
		return protocol.StatusResponse(protocol.StatusPong)
	default:
		return protocol.StatusResponse(protocol.StatusUnknownOpcode)
	}
}

func (s *Server) statusFor(err error, req protocol.Request, logger log.Logger) []byte {
	if err == nil {
		return protocol.StatusResponse(protocol.StatusOK)
	}
	if !errors.Is(err, jobqueue.ErrNoJob) {
		logger.Warn("unexpected queue error", log.Str("op", protocol.OpName(req.Op)), log.Err(err))
	}
	return protocol.StatusResponse(protocol.StatusFailure)
}

// lingerClose half-closes a TCP connection and drains what the client still
// sends, so unread request bytes do not turn the close into a reset that
// discards the response.
func lingerClose(conn net.Conn) {
	tc, ok := conn.(*net.TCPConn)
	if !ok {
		return
	}
	if err := tc.CloseWrite(); err != nil {
		return
	}
	_ = tc.SetReadDeadline(time.Now().Add(lingerTimeout))
	_, _ = io.Copy(io.Discard, io.LimitReader(tc, lingerMaxRead))
}
