package main

import (
	"flag"
	"log"
	"reflect"

	"github.com/robotalks/evdash/pkg/cli/sh"
	"github.com/robotalks/evdash/pkg/env"
	"github.com/robotalks/evdash/pkg/link/msgs"
)

var rawFrames bool

func init() {
	env.SetupBenchFlags()
	flag.BoolVar(&rawFrames, "raw", rawFrames, "Print display frames as messages instead of drawing them.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	conf := env.DefaultBench()
	conn := conf.MustDial("mon")
	topic := "#"
	if conf.ID != "" {
		topic = conf.ID + "/#"
	}

	conn.Sub(topic, func(topic string, payload []byte) {
		typed, err := msgs.DecodeTyped(payload)
		if err != nil {
			log.Printf("%s: bad message: %v", topic, err)
			return
		}
		msg, err := typed.Decode()
		if err != nil {
			log.Printf("%s: decode error: (type_id=%x) %v", topic, typed.TypeId, err)
			return
		}
		if f, ok := msg.(*msgs.DisplayFrame); ok && !rawFrames {
			log.Printf("%s: [DisplayFrame] %dx%d invert=%v\n%s", topic, f.Width, f.Height, f.Invert, sh.RenderASCII(f))
			return
		}
		log.Printf("%s: [%s] %s", topic,
			reflect.Indirect(reflect.ValueOf(msg)).Type().Name(), msg.String())
	})
	<-(chan struct{})(nil)
}
