package mqtt

import (
	"context"

	"github.com/golang/glog"

	fx "github.com/robotalks/evdash/pkg/framework"
	"github.com/robotalks/evdash/pkg/input"
	"github.com/robotalks/evdash/pkg/link"
	"github.com/robotalks/evdash/pkg/link/msgs"
	"github.com/robotalks/evdash/pkg/telemetry"
	"github.com/robotalks/evdash/pkg/vehicle"
)

// Topics relative to <id>/.
const (
	TopicState     = "state"
	TopicCommand   = "cmd"
	TopicTelemetry = "telemetry"
	TopicDisplay   = "display/"
)

// Injector accepts injected button actions.
type Injector interface {
	Inject(input.Action)
}

// Driver sets the target of the simulated wheel.
type Driver interface {
	Drive(speed, accel float64)
}

// Bench publishes the dashboard state and executes bench commands.
// Commands arrive on the client goroutine and never touch the
// vehicle state directly.
type Bench struct {
	Publisher Publisher
	ID        string
	State     *vehicle.State
	Queue     *telemetry.Queue
	Surfaces  func() []string
	Button    Injector
	Driver    Driver
}

// Topic returns the full topic of a bench topic.
func (b *Bench) Topic(name string) string {
	return b.ID + "/" + name
}

// Control implements Controller and publishes the state report.
func (b *Bench) Control(fx.ControlContext) error {
	state := link.StateMsg(b.ID, b.State)
	if b.Queue != nil {
		state.QueueDrops = b.Queue.Dropped()
	}
	if b.Surfaces != nil {
		state.Surfaces = b.Surfaces()
	}
	pkt, err := msgs.EncodeMsg(state)
	if err != nil {
		return err
	}
	b.Publisher.Pub(b.Topic(TopicState), pkt)
	return nil
}

// HandleTypedMsg implements msgs.TypedMsgHandler.
func (b *Bench) HandleTypedMsg(_ context.Context, msg msgs.Message, _ *msgs.Typed) error {
	switch m := msg.(type) {
	case *msgs.ButtonPress:
		if b.Button == nil {
			return msgs.ErrUnsupportedCommand
		}
		action := input.ActionShort
		if m.Long {
			action = input.ActionLong
		}
		glog.V(1).Infof("bench: %s press", action)
		b.Button.Inject(action)
	case *msgs.Drive:
		if b.Driver == nil {
			return msgs.ErrUnsupportedCommand
		}
		glog.V(1).Infof("bench: drive %.1f km/h", m.Speed)
		b.Driver.Drive(m.Speed, m.Accel)
	default:
		return msgs.ErrUnsupportedCommand
	}
	return nil
}

// Pipes returns the receivers of the bench: commands and, when q is
// not nil, telemetry frames published to <id>/telemetry.
func (b *Bench) Pipes(c *Conn, q *telemetry.Queue) []*link.Pipe {
	cmd := link.NewPipe(NewTopic(c, b.Topic(TopicCommand), ""), nil)
	cmd.Handler = b
	pipes := []*link.Pipe{cmd}
	if q != nil {
		pipes = append(pipes, link.NewPipe(NewTopic(c, b.Topic(TopicTelemetry), ""), q))
	}
	return pipes
}
