package sh

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/robotalks/evdash/pkg/link/mqtt"
	"github.com/robotalks/evdash/pkg/link/msgs"
)

// Client talks to one dashboard over the bench link and caches what
// it publishes.
type Client struct {
	ID        string
	Publisher mqtt.Publisher

	lock     sync.Mutex
	state    *msgs.DashState
	stateCh  chan *msgs.DashState
	displays map[string]*msgs.DisplayFrame
}

// NewClient creates a Client.
func NewClient(id string, pub mqtt.Publisher) *Client {
	return &Client{
		ID:        id,
		Publisher: pub,
		stateCh:   make(chan *msgs.DashState, 1),
		displays:  make(map[string]*msgs.DisplayFrame),
	}
}

// Subscribe registers the handlers on the connection.
func (c *Client) Subscribe(conn *mqtt.Conn) {
	conn.Sub(c.ID+"/"+mqtt.TopicState, c.HandleMsg)
	conn.Sub(c.ID+"/"+mqtt.TopicDisplay+"+", c.HandleMsg)
}

// HandleMsg implements mqtt.Handler.
func (c *Client) HandleMsg(_ string, payload []byte) {
	msg, _, err := msgs.Decode(payload)
	if err != nil {
		return
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	switch m := msg.(type) {
	case *msgs.DashState:
		c.state = m
		select {
		case <-c.stateCh:
		default:
		}
		c.stateCh <- m
	case *msgs.DisplayFrame:
		c.displays[m.Surface] = m
	}
}

// Send publishes a command or a telemetry frame.
func (c *Client) Send(msg msgs.Message) error {
	topic := c.ID + "/" + mqtt.TopicCommand
	if _, ok := msg.(*msgs.TelemetryFrame); ok {
		topic = c.ID + "/" + mqtt.TopicTelemetry
	}
	pkt, err := msgs.EncodeMsg(msg)
	if err != nil {
		return err
	}
	token := c.Publisher.Pub(topic, pkt)
	if !token.WaitTimeout(time.Second) {
		return errors.Errorf("publish %s timeout", topic)
	}
	return token.Error()
}

// State returns the latest state report, nil if none arrived yet.
func (c *Client) State() *msgs.DashState {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.state
}

// NextState waits for the next state report.
func (c *Client) NextState(timeout time.Duration) (*msgs.DashState, error) {
	select {
	case s := <-c.stateCh:
		return s, nil
	case <-time.After(timeout):
		return nil, errors.Errorf("no state from %s within %v", c.ID, timeout)
	}
}

// Display returns the latest mirrored frame of a surface.
func (c *Client) Display(surface string) *msgs.DisplayFrame {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.displays[surface]
}
