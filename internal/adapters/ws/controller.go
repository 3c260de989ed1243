package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/CodeRoom/internal/app"
	"github.com/dkeye/CodeRoom/internal/config"
	"github.com/dkeye/CodeRoom/internal/domain"
	"github.com/dkeye/CodeRoom/internal/metrics"
)

const (
	writeWait = 5 * time.Second
	sendQueue = 32
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Controller owns the websocket edge: it upgrades connections, mints
// connection ids, decodes the wire vocabulary and executes the
// deliveries the router and relay hand back.
type Controller struct {
	Router   *app.Router
	Relay    *app.Relay
	Hub      *Hub
	Registry *app.Registry
	Cfg      *config.Config
}

func NewController(router *app.Router, relay *app.Relay, hub *Hub, registry *app.Registry, cfg *config.Config) *Controller {
	return &Controller{Router: router, Relay: relay, Hub: hub, Registry: registry, Cfg: cfg}
}

// Handle upgrades the request and runs the connection's pumps. Every
// upgrade gets a fresh connection id; the participant token cookie set
// by the HTTP layer is only a default identity for payloads that omit
// participantId.
func (ctl *Controller) Handle(ctx context.Context, c *gin.Context) {
	connID := domain.ConnID(uuid.NewString())
	token := c.GetString("participant_token")
	log.Info().Str("module", "ws").Str("conn", string(connID)).Msg("new WS connection")

	sock, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("ws upgrade")
		return
	}
	if ctl.Cfg.ReadLimit > 0 {
		sock.SetReadLimit(ctl.Cfg.ReadLimit)
	}

	conn := newConn(sock, sendQueue)
	ctl.Hub.Register(connID, conn)
	metrics.OpenConnections.Set(float64(ctl.Hub.Len()))

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, connID, token, conn)
}

func (ctl *Controller) writePump(ctx context.Context, c *Conn) {
	ping := time.NewTicker(ctl.Cfg.PingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump set deadline")
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, cancel context.CancelFunc, connID domain.ConnID, token string, c *Conn) {
	defer func() {
		log.Info().Str("module", "ws").Str("conn", string(connID)).Msg("readPump closing")
		// Transport drop, not an explicit leave: detach only, the
		// participant stays listed for a reconnect.
		ctl.Router.Disconnect(connID)
		ctl.Hub.Unregister(connID)
		metrics.OpenConnections.Set(float64(ctl.Hub.Len()))
		cancel()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.ws.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Error().Err(err).Str("module", "ws").Str("conn", string(connID)).Msg("readPump read error")
				}
				return
			}
			ctl.dispatch(connID, token, data)
		}
	}
}

// dispatch peeks the wire type, decodes the matching payload and runs
// the handler. Handlers run on this connection's read loop, so events
// from one connection keep arrival order.
func (ctl *Controller) dispatch(connID domain.ConnID, token string, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("bad json")
		ctl.deliver(errDeliveries(connID, "bad payload"))
		return
	}
	metrics.EventsRouted.WithLabelValues(env.Type).Inc()

	switch env.Type {
	case app.EvCreateRoom:
		var ev app.CreateRoom
		if !ctl.decode(connID, data, &ev) {
			return
		}
		if ev.ParticipantID == "" {
			ev.ParticipantID = token
		}
		ctl.deliver(ctl.Router.CreateRoom(connID, ev))
		metrics.OpenRooms.Set(float64(ctl.Registry.Count()))
	case app.EvJoinRoom:
		var ev app.JoinRoom
		if !ctl.decode(connID, data, &ev) {
			return
		}
		if ev.ParticipantID == "" {
			ev.ParticipantID = token
		}
		ctl.deliver(ctl.Router.JoinRoom(connID, ev))
	case app.EvLeaveRoom:
		var ev app.LeaveRoom
		if !ctl.decode(connID, data, &ev) {
			return
		}
		ctl.deliver(ctl.Router.LeaveRoom(connID, ev))
		metrics.OpenRooms.Set(float64(ctl.Registry.Count()))
	case app.EvChatMessage:
		var ev app.ChatMessage
		if !ctl.decode(connID, data, &ev) {
			return
		}
		ctl.deliver(ctl.Router.Chat(connID, ev))
	case app.EvCodeChange:
		var ev app.CodeChange
		if !ctl.decode(connID, data, &ev) {
			return
		}
		ctl.deliver(ctl.Router.Code(connID, ev))
	case app.EvLanguageChange:
		var ev app.LanguageChange
		if !ctl.decode(connID, data, &ev) {
			return
		}
		ctl.deliver(ctl.Router.Language(connID, ev))
	case app.EvSignalOffer:
		var ev app.SignalOffer
		if !ctl.decode(connID, data, &ev) {
			return
		}
		metrics.SignalsRelayed.Inc()
		ctl.deliver(ctl.Relay.Offer(connID, ev))
	case app.EvSignalAnswer:
		var ev app.SignalAnswer
		if !ctl.decode(connID, data, &ev) {
			return
		}
		metrics.SignalsRelayed.Inc()
		ctl.deliver(ctl.Relay.Answer(connID, ev))
	case app.EvSignalCandidate:
		var ev app.SignalCandidate
		if !ctl.decode(connID, data, &ev) {
			return
		}
		metrics.SignalsRelayed.Inc()
		ctl.deliver(ctl.Relay.Candidate(connID, ev))
	default:
		log.Warn().Str("module", "ws").Str("type", env.Type).Msg("unknown event")
		ctl.deliver(errDeliveries(connID, "unknown event type"))
	}
}

func (ctl *Controller) decode(connID domain.ConnID, data []byte, v any) bool {
	if err := json.Unmarshal(data, v); err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("bad payload")
		ctl.deliver(errDeliveries(connID, "bad payload"))
		return false
	}
	return true
}

// deliver executes a fan-out list. Frames to slow or vanished
// connections are dropped; broadcast is best-effort.
func (ctl *Controller) deliver(deliveries []app.Delivery) {
	for _, d := range deliveries {
		conn, ok := ctl.Hub.Get(d.To)
		if !ok {
			continue
		}
		b, err := json.Marshal(d.Event)
		if err != nil {
			log.Error().Err(err).Str("module", "ws").Msg("marshal outbound")
			continue
		}
		if err := conn.TrySend(b); err != nil {
			metrics.DroppedFrames.Inc()
			log.Warn().Err(err).Str("module", "ws").Str("to", string(d.To)).Msg("dropped frame")
		}
	}
}

func errDeliveries(to domain.ConnID, msg string) []app.Delivery {
	return []app.Delivery{{To: to, Event: app.ErrorEvent{Type: app.EvError, Message: msg}}}
}
