package rs485

// LinkState is the synchronization state of the stream.
type LinkState int

// Link states. Receiving is combined with either of the others.
const (
	LinkSyncing   LinkState = 0
	LinkReady     LinkState = 0x01
	LinkReceiving LinkState = 0x02
)

// Ready reports whether packets are accepted.
func (s LinkState) Ready() bool {
	return s&LinkReady != 0
}

// Receiving reports whether a sync or a packet is half way.
func (s LinkState) Receiving() bool {
	return s&LinkReceiving != 0
}

// Step is the outcome of feeding the parser.
type Step struct {
	// Reply is a sync byte to send back, 0 for none.
	Reply  byte
	State  LinkState
	Packet *Packet
}

// RestartTimer reports whether the sync timer must be (re)armed.
func (s Step) RestartTimer() bool { return s.State.Receiving() || s.Reply == syncRequest }

// StopTimer reports whether the sync timer must be cancelled.
func (s Step) StopTimer() bool { return !s.RestartTimer() && s.State.Ready() }

const (
	syncRequest byte = 0xff
	syncAck     byte = 0xfe
)

type phase int

const (
	phaseHunt    phase = iota // request sent, waiting for a sync byte
	phaseReqSeq               // peer requested sync, its seq follows
	phaseAckSeq               // peer acknowledged, its seq follows
	phaseIdle                 // between packets
	phaseAckEcho              // peer repeats its ack while synced
	phaseCode
	phaseLen
	phaseData
)

// Parser is the receiving state machine.
type Parser struct {
	phase   phase
	peerSeq Seq
	pkt     *Packet
	filled  int
}

// State returns the current link state.
func (p *Parser) State() LinkState {
	switch {
	case p.phase == phaseHunt:
		return LinkSyncing
	case p.phase == phaseIdle:
		return LinkReady
	case p.phase > phaseIdle:
		return LinkReady | LinkReceiving
	}
	return LinkSyncing | LinkReceiving
}

// Reset drops any partial packet and requests a sync.
func (p *Parser) Reset() Step {
	p.pkt = nil
	return p.step(p.hunt())
}

// Expire is called when the sync timer fires. Unless idle, the
// parser gives up and requests a sync.
func (p *Parser) Expire() Step {
	if p.phase == phaseIdle {
		return p.step(0, nil)
	}
	return p.step(p.hunt())
}

// Feed consumes one byte.
func (p *Parser) Feed(b byte) Step {
	return p.step(p.feed(b))
}

func (p *Parser) step(reply byte, pkt *Packet) Step {
	return Step{Reply: reply, State: p.State(), Packet: pkt}
}

func (p *Parser) feed(b byte) (byte, *Packet) {
	switch p.phase {
	case phaseHunt:
		if b == syncRequest {
			p.phase = phaseReqSeq
		} else if b == syncAck {
			p.phase = phaseAckSeq
		}
	case phaseReqSeq, phaseAckSeq:
		seq := Seq(b)
		if !seq.Valid() {
			return p.hunt()
		}
		requested := p.phase == phaseReqSeq
		p.peerSeq, p.phase = seq, phaseIdle
		if requested {
			return syncAck, nil
		}
	case phaseIdle:
		switch {
		case b == syncRequest:
			p.phase = phaseReqSeq
		case b == syncAck:
			p.phase = phaseAckEcho
		case Seq(b) != p.peerSeq:
			return p.hunt()
		default:
			p.pkt = &Packet{Seq: p.peerSeq}
			p.peerSeq = p.peerSeq.Next()
			p.phase = phaseCode
		}
	case phaseAckEcho:
		if Seq(b) != p.peerSeq {
			return p.hunt()
		}
		p.phase = phaseIdle
	case phaseCode:
		p.pkt.Code = b & codeMask
		n := int(b>>4) & 7
		if n == 7 {
			p.phase = phaseLen
			return 0, nil
		}
		return p.expect(n)
	case phaseLen:
		if b > maxDataLen {
			return p.hunt()
		}
		return p.expect(int(b))
	case phaseData:
		p.pkt.Data[p.filled] = b
		p.filled++
		if p.filled == len(p.pkt.Data) {
			return p.done()
		}
	}
	return 0, nil
}

func (p *Parser) expect(n int) (byte, *Packet) {
	if n == 0 {
		return p.done()
	}
	p.pkt.Data, p.filled = make([]byte, n), 0
	p.phase = phaseData
	return 0, nil
}

func (p *Parser) hunt() (byte, *Packet) {
	p.phase = phaseHunt
	return syncRequest, nil
}

func (p *Parser) done() (byte, *Packet) {
	pkt := p.pkt
	p.pkt, p.phase = nil, phaseIdle
	return 0, pkt
}
