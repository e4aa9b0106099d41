// Package env provides the identity of the dashboard and the common
// options of the bench tools.
package env

import (
	"flag"
	"log"
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"

	"github.com/robotalks/evdash/pkg/link/mqtt"
)

// DeviceIDLength is the length of the derived device id.
const DeviceIDLength = 12

// DeviceID derives a stable id from the machine id. The raw machine
// id is never exposed.
func DeviceID() string {
	id, err := machineid.ProtectedID("evdash")
	if err != nil {
		glog.Warningf("machine id unavailable: %v", err)
		if host, err := os.Hostname(); err == nil && host != "" {
			return host
		}
		return "evdash"
	}
	if len(id) > DeviceIDLength {
		id = id[:DeviceIDLength]
	}
	return id
}

// BenchConfig provides the common options of the bench tools.
type BenchConfig struct {
	// ID of the dashboard to talk to.
	ID string
	// BrokerURL specifies the MQTT broker, e.g. mqtt://host:port/prefix/
	BrokerURL string
}

var defaultBenchConfig = BenchConfig{
	BrokerURL: "mqtt://localhost:1883/evdash/",
}

func init() {
	if val := os.Getenv("DASH_ID"); val != "" {
		defaultBenchConfig.ID = val
	}
	if val := os.Getenv("DASH_MQTT_URL"); val != "" {
		defaultBenchConfig.BrokerURL = val
	}
}

// SetupBenchFlags sets up command line flags.
func SetupBenchFlags() {
	flag.StringVar(&defaultBenchConfig.ID, "id", defaultBenchConfig.ID, "Dashboard ID")
	flag.StringVar(&defaultBenchConfig.BrokerURL, "mqtt", defaultBenchConfig.BrokerURL, "MQTT broker URL")
}

// DefaultBench gets the default bench config.
func DefaultBench() *BenchConfig {
	return &defaultBenchConfig
}

// Dial connects to the broker.
func (c *BenchConfig) Dial(client string) (*mqtt.Conn, error) {
	return mqtt.Dial(c.BrokerURL, client)
}

// MustDial connects to the broker and fails on error.
func (c *BenchConfig) MustDial(client string) *mqtt.Conn {
	conn, err := c.Dial(client)
	if err != nil {
		log.Fatalln(err)
	}
	return conn
}
