package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/oncokb/oncokb-transcript-sub003/internal/domain"
	"github.com/oncokb/oncokb-transcript-sub003/internal/middleware"
)

const (
	streamWriteWait      = 10 * time.Second
	streamMaxMessageSize = 8 << 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StreamRequest is one frame sent by a stream client. Submit selects submit
// instead of resolve; ID is echoed back in the reply.
type StreamRequest struct {
	domain.ResolveRequest
	ID     string `json:"id,omitempty"`
	Submit bool   `json:"submit,omitempty"`
}

// StreamReply answers exactly one StreamRequest.
type StreamReply struct {
	ID     string                   `json:"id,omitempty"`
	Result *domain.SubmissionResult `json:"result,omitempty"`
	Error  *domain.APIError         `json:"error,omitempty"`
}

// handleStream upgrades to a websocket and answers each edit frame in order.
func (s *Server) handleStream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(streamMaxMessageSize)

	log := s.logger.WithField("correlation_id", c.GetString(middleware.CorrelationIDKey))
	log.Debug("Evidence stream opened")

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).Warn("Evidence stream closed unexpectedly")
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		reply := s.streamReply(c, data, log)
		conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		if err := conn.WriteJSON(reply); err != nil {
			log.WithError(err).Warn("Failed to write stream reply")
			return
		}
	}
}

func (s *Server) streamReply(c *gin.Context, data []byte, log *logrus.Entry) StreamReply {
	var req StreamRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return StreamReply{Error: domain.NewAPIError(
			domain.ErrInvalidInput, "Invalid stream frame", err.Error(), c.GetString(middleware.CorrelationIDKey),
		)}
	}

	reply := StreamReply{ID: req.ID}
	ctx := c.Request.Context()

	if req.Submit {
		result, err := s.deps.Service.Submit(ctx, &req.ResolveRequest)
		if err != nil {
			_, reply.Error = newAPIError(c, err)
		}
		reply.Result = result
		return reply
	}

	result, err := s.deps.Service.Resolve(ctx, &req.ResolveRequest)
	if err != nil {
		_, reply.Error = newAPIError(c, err)
		log.WithError(err).WithField("path", req.Path).Debug("Stream frame failed to resolve")
		return reply
	}
	reply.Result = &domain.SubmissionResult{ResolveResult: *result}
	return reply
}
