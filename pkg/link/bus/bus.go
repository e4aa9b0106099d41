// Package bus opens the telemetry receiver named by a bus URL.
package bus

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"

	fx "github.com/robotalks/evdash/pkg/framework"
	"github.com/robotalks/evdash/pkg/link"
	"github.com/robotalks/evdash/pkg/link/canbus"
	"github.com/robotalks/evdash/pkg/link/mqtt"
	"github.com/robotalks/evdash/pkg/link/rs485"
	"github.com/robotalks/evdash/pkg/link/stream"
	"github.com/robotalks/evdash/pkg/link/websocket"
	"github.com/robotalks/evdash/pkg/telemetry"
)

// Open connects the receiver for busURL. Supported schemes:
//
//	can://can0
//	rs485:///dev/ttyS0?baud=115200
//	mqtt://host:1883/prefix/ (subscribes <prefix><id>/telemetry)
//	tcp://host:port
//	ws://host/path, wss://host/path
//
// An empty URL returns nil without error. Except for MQTT, the
// receiver is reopened when it stops.
func Open(busURL, id string, q *telemetry.Queue) (fx.LoopAdder, error) {
	if busURL == "" {
		return nil, nil
	}
	u, err := url.Parse(busURL)
	if err != nil {
		return nil, errors.Wrapf(err, "parse bus URL %q", busURL)
	}
	scheme := strings.ToLower(u.Scheme)
	var open OpenFunc
	switch scheme {
	case "can":
		ifname := u.Host
		if ifname == "" {
			ifname = strings.TrimPrefix(u.Path, "/")
		}
		open = func() (fx.Runnable, error) {
			r, err := canbus.Open(ifname, q)
			if err != nil {
				return nil, err
			}
			return r, nil
		}
	case "rs485", "serial":
		open = func() (fx.Runnable, error) {
			r, err := rs485.Open(u, q)
			if err != nil {
				return nil, err
			}
			return r, nil
		}
	case "mqtt", "mqtts":
		// the MQTT client reconnects by itself, the topic lives as long
		// as the loop.
		c, err := mqtt.Dial(busURL, id+"-bus")
		if err != nil {
			return nil, err
		}
		return link.NewPipe(mqtt.NewTopic(c, id+"/"+mqtt.TopicTelemetry, ""), q), nil
	case "tcp":
		open = func() (fx.Runnable, error) {
			rw, err := stream.Dial(u.Host)
			if err != nil {
				return nil, err
			}
			return link.NewPipe(rw, q), nil
		}
	case "ws", "wss":
		open = func() (fx.Runnable, error) {
			rw, err := websocket.Dial(busURL)
			if err != nil {
				return nil, err
			}
			return link.NewPipe(rw, q), nil
		}
	default:
		return nil, errors.Errorf("unsupported bus scheme %q", u.Scheme)
	}
	r, err := NewRetry("bus "+scheme, open)
	if err != nil {
		return nil, err
	}
	return r, nil
}
