// Package mqtt links the dashboard to an MQTT broker: telemetry in,
// state and display mirrors out, bench commands in.
package mqtt

import (
	"net/url"
	"strings"
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// Handler is the callback when a message is received.
type Handler func(topic string, payload []byte)

// Publisher publishes payloads under the topic prefix.
type Publisher interface {
	Pub(topic string, payload []byte) paho.Token
}

// Conn wraps the MQTT client. Topics are relative to TopicPrefix.
type Conn struct {
	Client      paho.Client
	TopicPrefix string

	subsLock sync.RWMutex
	subs     map[string][]*Subscription
}

// Subscription is a subscribed topic.
type Subscription struct {
	Token paho.Token

	conn    *Conn
	topic   string
	handler Handler
}

// MatchTopic matches topic with pattern.
func MatchTopic(topic, pattern string) bool {
	tokensT, tokensP := strings.Split(topic, "/"), strings.Split(pattern, "/")
	for i, token := range tokensP {
		if token == "#" && i+1 == len(tokensP) {
			return true
		}
		if i >= len(tokensT) {
			return false
		}
		if token != "+" && token != tokensT[i] {
			return false
		}
	}
	return len(tokensP) == len(tokensT)
}

// ClientOptionsFromURL creates ClientOptions from URL. The path is
// used as the topic prefix.
func ClientOptionsFromURL(serverURL string) (*paho.ClientOptions, string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, "", errors.Wrapf(err, "parse %q", serverURL)
	}
	if u.Host == "" {
		return nil, "", errors.Errorf("missing broker host in %q", serverURL)
	}
	server := u.Scheme
	if server == "" || server == "mqtt" {
		server = "tcp"
	}
	server += "://" + u.Host

	topicPrefix := strings.TrimPrefix(u.Path, "/")
	if topicPrefix != "" && !strings.HasSuffix(topicPrefix, "/") {
		topicPrefix += "/"
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(server).
		SetAutoReconnect(true).
		SetCleanSession(true)
	if u.User != nil {
		opts.SetUsername(u.User.Username())
		if pwd, ok := u.User.Password(); ok {
			opts.SetPassword(pwd)
		}
	}
	if clientID := u.Query().Get("client-id"); clientID != "" {
		opts.SetClientID(clientID)
	}
	return opts, topicPrefix, nil
}

// NewConn creates a Conn.
func NewConn(options *paho.ClientOptions, topicPrefix string) *Conn {
	c := &Conn{TopicPrefix: topicPrefix, subs: make(map[string][]*Subscription)}
	options.SetOnConnectHandler(c.onConnect)
	options.SetConnectionLostHandler(c.onConnectionLost)
	c.Client = paho.NewClient(options)
	return c
}

// Dial creates a Conn from URL and connects. The client ID defaults
// to evdash:<id>.
func Dial(brokerURL, id string) (*Conn, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	if opts.ClientID == "" {
		opts.SetClientID("evdash:" + id)
	}
	c := NewConn(opts, topicPrefix)
	token := c.Client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, errors.Wrapf(err, "connect %s", brokerURL)
	}
	return c, nil
}

// Close implements io.Closer.
func (c *Conn) Close() error {
	c.Client.Disconnect(250)
	return nil
}

// Sub subscribes a topic.
func (c *Conn) Sub(topic string, handler Handler) *Subscription {
	sub := &Subscription{conn: c, topic: topic, handler: handler}
	c.subsLock.Lock()
	subs := c.subs[topic]
	c.subs[topic] = append(subs, sub)
	c.subsLock.Unlock()

	if len(subs) == 0 {
		glog.V(2).Infof("SUB %q", c.TopicPrefix+topic)
		sub.Token = c.Client.Subscribe(c.TopicPrefix+topic, 0, c.dispatch)
	} else {
		sub.Token = &paho.DummyToken{}
	}
	return sub
}

// Pub implements Publisher. The token is not waited on.
func (c *Conn) Pub(topic string, payload []byte) paho.Token {
	return c.Client.Publish(c.TopicPrefix+topic, 0, false, payload)
}

func (c *Conn) resubscribe() {
	filters := make(map[string]byte)
	c.subsLock.RLock()
	for topic := range c.subs {
		filters[c.TopicPrefix+topic] = 0
	}
	c.subsLock.RUnlock()
	if len(filters) > 0 {
		glog.V(2).Infof("SUB %d topics", len(filters))
		c.Client.SubscribeMultiple(filters, c.dispatch)
	}
}

func (c *Conn) onConnect(paho.Client) {
	glog.Info("mqtt connected")
	c.resubscribe()
}

func (c *Conn) onConnectionLost(_ paho.Client, err error) {
	glog.Warningf("mqtt connection lost: %v", err)
}

func (c *Conn) dispatch(_ paho.Client, msg paho.Message) {
	c.deliver(msg.Topic(), msg.Payload())
}

func (c *Conn) deliver(topic string, payload []byte) {
	if !strings.HasPrefix(topic, c.TopicPrefix) {
		return
	}
	topic = topic[len(c.TopicPrefix):]
	glog.V(3).Infof("RCV %q", topic)
	var handlers []Handler
	c.subsLock.RLock()
	for pattern, subs := range c.subs {
		if MatchTopic(topic, pattern) {
			for _, sub := range subs {
				handlers = append(handlers, sub.handler)
			}
		}
	}
	c.subsLock.RUnlock()
	for _, h := range handlers {
		h(topic, payload)
	}
}

// Close unsubscribes the handler.
func (s *Subscription) Close() error {
	c := s.conn
	c.subsLock.Lock()
	subs := c.subs[s.topic]
	for i, sub := range subs {
		if sub == s {
			subs = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	unsub := len(subs) == 0
	if unsub {
		delete(c.subs, s.topic)
	} else {
		c.subs[s.topic] = subs
	}
	c.subsLock.Unlock()
	if unsub {
		glog.V(2).Infof("UNSUB %q", s.topic)
		token := c.Client.Unsubscribe(c.TopicPrefix + s.topic)
		token.Wait()
		return token.Error()
	}
	return nil
}
