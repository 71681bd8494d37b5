package server

import (
	"bufio"
	"context"
	"errors"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"embedd/internal/protocol"
)

// handle runs the read, dispatch, reply loop of one connection. It returns on
// clean end of stream, a framing error or a failed write.
func (s *Server) handle(ctx context.Context, conn net.Conn) {
	log := s.log.With().
		Str("conn_id", ulid.Make().String()).
		Str("remote", conn.RemoteAddr().String()).
		Logger()
	s.configure(conn, log)

	s.active.Add(1)
	activeConnections.Inc()
	defer func() {
		_ = conn.Close()
		s.active.Add(-1)
		activeConnections.Dec()
	}()
	log.Debug().Msg("connection accepted")

	r := bufio.NewReaderSize(conn, s.cfg.BufferSize)
	for {
		msg, err := protocol.ReadMessage(r, s.cfg.MaxMessageSize)
		if err != nil {
			if errors.Is(err, protocol.ErrConnClosed) {
				log.Debug().Msg("connection closed by peer")
				return
			}
			protocolErrorsTotal.Inc()
			log.Warn().Err(err).Msg("framing error, closing connection")
			var fe *protocol.FrameError
			if errors.As(err, &fe) && fe.HasSender {
				_ = s.reply(conn, fe.SenderID, fe.MessageID, protocol.MarshalError(err.Error()))
			}
			return
		}
		if err := s.dispatch(ctx, conn, log, msg); err != nil {
			log.Warn().Err(err).Msg("write failed, closing connection")
			return
		}
	}
}

// dispatch answers one message. Only the write error is returned; request
// and inference failures become error replies.
func (s *Server) dispatch(ctx context.Context, conn net.Conn, log zerolog.Logger, msg protocol.Message) error {
	start := time.Now()
	req, err := protocol.UnmarshalRequest(msg.Payload)
	if err != nil {
		messagesTotal.WithLabelValues("decode_error").Inc()
		log.Warn().Err(err).Str("message_id", msg.MessageID.String()).Msg("invalid request payload")
		return s.reply(conn, msg.SenderID, msg.MessageID, protocol.MarshalError("invalid request: "+err.Error()))
	}

	vec, err := s.emb.EmbedTextWithModel(ctx, req.Text, req.Model)
	requestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		messagesTotal.WithLabelValues("error").Inc()
		log.Warn().Err(err).Str("model", req.Model).Msg("embedding failed")
		return s.reply(conn, msg.SenderID, msg.MessageID, protocol.MarshalError(err.Error()))
	}
	messagesTotal.WithLabelValues("ok").Inc()
	log.Debug().Str("model", req.Model).Int("dim", len(vec)).Dur("dur", time.Since(start)).Msg("embedded")
	return s.reply(conn, msg.SenderID, msg.MessageID, protocol.MarshalResponse(vec))
}

// reply writes one frame addressed to target, echoing the request's message id.
func (s *Server) reply(conn net.Conn, target, messageID uuid.UUID, payload []byte) error {
	if d := s.cfg.WriteTimeout(); d > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(d))
		defer func() { _ = conn.SetWriteDeadline(time.Time{}) }()
	}
	m := protocol.Message{
		SenderID:  s.id,
		TargetID:  &target,
		MessageID: messageID,
		Type:      protocol.MsgTypeData,
		Payload:   payload,
	}
	return protocol.WriteMessage(conn, m)
}

// configure applies TCP options. Non-TCP connections (tests) are left alone.
func (s *Server) configure(conn net.Conn, log zerolog.Logger) {
	tc, ok := conn.(*net.TCPConn)
	if !ok {
		return
	}
	if err := tc.SetNoDelay(true); err != nil {
		log.Debug().Err(err).Msg("set nodelay")
	}
	if d := s.cfg.KeepAlive(); d > 0 {
		if err := tc.SetKeepAlive(true); err != nil {
			log.Debug().Err(err).Msg("set keepalive")
		}
		if err := tc.SetKeepAlivePeriod(d); err != nil {
			log.Debug().Err(err).Msg("set keepalive period")
		}
	}
}
