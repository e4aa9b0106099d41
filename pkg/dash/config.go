package dash

import (
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/robotalks/evdash/pkg/display"
	"github.com/robotalks/evdash/pkg/kinematics"
	"github.com/robotalks/evdash/pkg/persist"
	"github.com/robotalks/evdash/pkg/telemetry"
	"github.com/robotalks/evdash/pkg/watchdog"
)

// Display backends besides an I2C bus name.
const (
	DisplayNone   = "none"
	DisplayMirror = "mqtt"
)

// Periods are the task periods.
type Periods struct {
	Button     time.Duration `toml:"button"`
	Drain      time.Duration `toml:"drain"`
	Staleness  time.Duration `toml:"staleness"`
	Status     time.Duration `toml:"status"`
	Rotation   time.Duration `toml:"rotation"`
	Kinematics time.Duration `toml:"kinematics"`
	Persist    time.Duration `toml:"persist"`
	Display    time.Duration `toml:"display"`
	TempGauge  time.Duration `toml:"temp_gauge"`
	Memory     time.Duration `toml:"memory"`
	Watchdog   time.Duration `toml:"watchdog"`
	State      time.Duration `toml:"state"`
}

// Displays selects the backend of each surface: an I2C bus name,
// "mqtt" to mirror over the bench link or "none".
type Displays struct {
	Odometer string `toml:"odometer"`
	Central  string `toml:"central"`
	Gear     string `toml:"gear"`
}

// Hardware names the GPIO lines and PWM pins. Negative lines and empty
// pins are not used.
type Hardware struct {
	Chip        string  `toml:"chip"`
	ButtonLine  int     `toml:"button_line"`
	PulseLine   int     `toml:"pulse_line"`
	PulsesPerKm float64 `toml:"pulses_per_km"`
	SpeedPin    string  `toml:"speed_pin"`
	RPMPin      string  `toml:"rpm_pin"`
	TempPin     string  `toml:"temp_pin"`
	Watchdog    string  `toml:"watchdog"`
}

// Config defines the configuration of the dashboard.
type Config struct {
	ID       string `toml:"id"`
	BusURL   string `toml:"bus_url"`
	MQTTURL  string `toml:"mqtt_url"`
	StoreURL string `toml:"store_url"`

	Displays Displays `toml:"displays"`
	Hardware Hardware `toml:"hardware"`
	Periods  Periods  `toml:"periods"`

	StaleTimeout    time.Duration `toml:"stale_timeout"`
	LockTimeout     time.Duration `toml:"lock_timeout"`
	MaxFrames       int           `toml:"max_frames"`
	BootDuration    time.Duration `toml:"boot_duration"`
	StopDebounce    time.Duration `toml:"stop_debounce"`
	WatchdogTimeout time.Duration `toml:"watchdog_timeout"`
	MemoryBudget    uint64        `toml:"memory_budget"`
	MemoryLowWater  uint64        `toml:"memory_low_water"`

	// ConfigFile is the TOML file named by -config.
	ConfigFile string `toml:"-"`
}

func builtinConfig() Config {
	return Config{
		StoreURL: "/var/lib/evdash/odometer",
		Displays: Displays{
			Odometer: DisplayNone,
			Central:  DisplayNone,
			Gear:     DisplayNone,
		},
		Hardware: Hardware{
			Chip:        "gpiochip0",
			ButtonLine:  -1,
			PulseLine:   -1,
			PulsesPerKm: kinematics.DefaultPulsesPerKm,
		},
		Periods: Periods{
			Button:     10 * time.Millisecond,
			Drain:      100 * time.Millisecond,
			Staleness:  1000 * time.Millisecond,
			Status:     200 * time.Millisecond,
			Rotation:   1000 * time.Millisecond,
			Kinematics: 50 * time.Millisecond,
			Persist:    500 * time.Millisecond,
			Display:    1000 * time.Millisecond,
			TempGauge:  1000 * time.Millisecond,
			Memory:     10000 * time.Millisecond,
			Watchdog:   1000 * time.Millisecond,
			State:      1000 * time.Millisecond,
		},
		StaleTimeout:    telemetry.DefaultStaleTimeout,
		LockTimeout:     telemetry.DefaultLockTimeout,
		MaxFrames:       telemetry.DefaultMaxFrames,
		BootDuration:    display.DefaultBootDuration,
		StopDebounce:    persist.DefaultStopDebounce,
		WatchdogTimeout: watchdog.DefaultTimeout,
		MemoryBudget:    DefaultMemoryBudget,
		MemoryLowWater:  DefaultMemoryLowWater,
	}
}

var defaultConfig = builtinConfig()

func init() {
	applyEnv(&defaultConfig)
}

func applyEnv(c *Config) {
	if val := os.Getenv("DASH_ID"); val != "" {
		c.ID = val
	}
	if val := os.Getenv("DASH_BUS_URL"); val != "" {
		c.BusURL = val
	}
	if val := os.Getenv("DASH_MQTT_URL"); val != "" {
		c.MQTTURL = val
	}
	if val := os.Getenv("DASH_STORE_URL"); val != "" {
		c.StoreURL = val
	}
	if val := os.Getenv("DASH_PULSES_PER_KM"); val != "" {
		if n, err := strconv.ParseFloat(val, 64); err == nil {
			c.Hardware.PulsesPerKm = n
		} else {
			glog.Warningf("ignore DASH_PULSES_PER_KM=%q: %v", val, err)
		}
	}
}

func bindFlags(fs *flag.FlagSet, c *Config) {
	fs.StringVar(&c.ConfigFile, "config", c.ConfigFile, "TOML configuration file")
	fs.StringVar(&c.ID, "id", c.ID, "Device ID, defaults to the machine ID")
	fs.StringVar(&c.BusURL, "bus", c.BusURL, "Telemetry bus URL: can://can0, rs485:///dev/ttyS0, mqtt://host/prefix/, tcp://host:port, ws://host/path")
	fs.StringVar(&c.MQTTURL, "mqtt", c.MQTTURL, "MQTT broker URL of the bench link, empty to disable")
	fs.StringVar(&c.StoreURL, "store", c.StoreURL, "Odometer store: path, file://, redis://, mem://")
	fs.StringVar(&c.Displays.Odometer, "display-odometer", c.Displays.Odometer, "Odometer display: I2C bus, mqtt or none")
	fs.StringVar(&c.Displays.Central, "display-central", c.Displays.Central, "Central display: I2C bus, mqtt or none")
	fs.StringVar(&c.Displays.Gear, "display-gear", c.Displays.Gear, "Gear display: I2C bus, mqtt or none")
	fs.StringVar(&c.Hardware.Chip, "gpio-chip", c.Hardware.Chip, "GPIO chip")
	fs.IntVar(&c.Hardware.ButtonLine, "button-line", c.Hardware.ButtonLine, "GPIO line of the mode button, -1 to disable")
	fs.IntVar(&c.Hardware.PulseLine, "pulse-line", c.Hardware.PulseLine, "GPIO line of the wheel sensor, -1 to simulate")
	fs.Float64Var(&c.Hardware.PulsesPerKm, "pulses-per-km", c.Hardware.PulsesPerKm, "Wheel sensor pulses per km")
	fs.StringVar(&c.Hardware.SpeedPin, "speed-pin", c.Hardware.SpeedPin, "PWM pin of the speed pointer")
	fs.StringVar(&c.Hardware.RPMPin, "rpm-pin", c.Hardware.RPMPin, "PWM pin of the tachometer")
	fs.StringVar(&c.Hardware.TempPin, "temp-pin", c.Hardware.TempPin, "PWM pin of the temperature gauge")
	fs.StringVar(&c.Hardware.Watchdog, "watchdog", c.Hardware.Watchdog, "Watchdog device, e.g. "+watchdog.DefaultDevice)
	fs.DurationVar(&c.StaleTimeout, "stale-timeout", c.StaleTimeout, "Telemetry staleness timeout")
	fs.DurationVar(&c.StopDebounce, "stop-debounce", c.StopDebounce, "Standstill time before saving the odometer")
	fs.DurationVar(&c.BootDuration, "boot-duration", c.BootDuration, "Boot banner duration")
	fs.Uint64Var(&c.MemoryBudget, "memory-budget", c.MemoryBudget, "Heap budget in bytes")
}

// SetupFlags sets command line flags.
func SetupFlags() {
	bindFlags(flag.CommandLine, &defaultConfig)
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Resolve applies the configuration file named by ConfigFile. The
// result has the precedence defaults < file < env < flags set on fs.
func (c *Config) Resolve(fs *flag.FlagSet) (*Config, error) {
	if c.ConfigFile == "" {
		conf := *c
		return &conf, nil
	}
	conf := builtinConfig()
	if _, err := toml.DecodeFile(c.ConfigFile, &conf); err != nil {
		return nil, errors.Wrapf(err, "load config %s", c.ConfigFile)
	}
	applyEnv(&conf)
	shadow := flag.NewFlagSet("config", flag.ContinueOnError)
	bindFlags(shadow, &conf)
	var err error
	fs.Visit(func(f *flag.Flag) {
		if sf := shadow.Lookup(f.Name); sf != nil && err == nil {
			err = sf.Value.Set(f.Value.String())
		}
	})
	if err != nil {
		return nil, err
	}
	conf.ConfigFile = c.ConfigFile
	return &conf, nil
}
