package session

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	sse "github.com/alexandrevicenzi/go-sse"
)

// SSEHub fans controller events out to any number of browsers subscribed
// over server-sent events on a single channel. Unlike a websocket
// connection, go-sse already multiplexes to every subscribed client
// internally, so one SSEHub stands in as a single Session in a Registry
// regardless of how many browsers are actually listening.
type SSEHub struct {
	srv     *sse.Server
	channel string
}

// NewSSEHub creates a hub whose clients subscribe on channel (e.g.
// "/events/controller-1").
func NewSSEHub(channel string) *SSEHub {
	return &SSEHub{
		channel: channel,
		srv: sse.NewServer(&sse.Options{
			Logger: log.New(io.Discard, "", 0),
		}),
	}
}

// Handler returns the http.Handler to mount at channel.
func (h *SSEHub) Handler() http.Handler { return h.srv }

func (h *SSEHub) ID() string { return "sse:" + h.channel }

type sseEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Send wraps payload in a small envelope naming the event and pushes it to
// every client currently subscribed to the hub's channel.
func (h *SSEHub) Send(event string, payload []byte) error {
	env, err := json.Marshal(sseEnvelope{Event: event, Data: payload})
	if err != nil {
		return err
	}
	h.srv.SendMessage(h.channel, sse.SimpleMessage(string(env)))
	return nil
}
