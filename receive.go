package enc28j60

import (
	"github.com/joshlf/enc28j60/internal/errors"
	"github.com/joshlf/enc28j60/internal/parse"
)

// length of the receive descriptor the chip writes before each frame
const rxDescLen = 6

// receive status vector bit 23: received ok
const rsvReceivedOK = 0x80

// ChunkKind distinguishes the first chunk of a frame from the rest.
type ChunkKind int

const (
	// ChunkHeader is the first chunk of a frame. It holds the Ethernet
	// header and, for ARP frames, the whole ARP packet.
	ChunkHeader ChunkKind = iota
	// ChunkPayload is any later chunk.
	ChunkPayload
)

func (k ChunkKind) String() string {
	if k == ChunkHeader {
		return "header"
	}
	return "payload"
}

// A Chunk is a contiguous piece of a received frame. Data aliases the
// driver's working buffer and is only valid until the next chunk is read.
type Chunk struct {
	Kind ChunkKind
	Data []byte
}

// A ChunkHandler consumes the chunks of received frames.
type ChunkHandler interface {
	HandleChunk(c Chunk)
}

// ChunkHandlerFunc adapts a function to a ChunkHandler.
type ChunkHandlerFunc func(c Chunk)

// HandleChunk calls f(c).
func (f ChunkHandlerFunc) HandleChunk(c Chunk) { f(c) }

// Handle registers h to receive the chunks of every frame whose EtherType is
// et, replacing any previous handler. A nil h removes the handler.
func (d *Driver) Handle(et EtherType, h ChunkHandler) {
	if h == nil {
		delete(d.handlers, et)
		return
	}
	d.handlers[et] = h
}

// Monitor registers h to receive the chunks of every frame, in addition to
// any EtherType handler. A nil h removes the monitor.
func (d *Driver) Monitor(h ChunkHandler) { d.monitor = h }

// A FrameReader streams one received frame through the driver's working
// buffer. It is obtained from Receive, and must be closed before the next
// call to Receive.
type FrameReader struct {
	d *Driver

	open   bool
	length int
	start  uint16 // address of the frame's first byte
	pos    uint16 // address of the next unread byte
	left   int
	first  bool
	next   uint16 // descriptor address of the following frame
	status uint16

	cur Chunk
	err error
}

// Len returns the frame's length excluding CRC, or 0 if there was no frame or
// the chip flagged it as not received ok.
func (r *FrameReader) Len() int { return r.length }

// Status returns the low 16 bits of the chip's receive status vector.
func (r *FrameReader) Status() uint16 { return r.status }

// Next reads the next chunk of the frame, returning false when the frame is
// exhausted or an error occurs.
func (r *FrameReader) Next() bool {
	if !r.open || r.err != nil || r.left == 0 {
		return false
	}
	d := r.d
	n := len(d.chunk)
	if r.left < n {
		n = r.left
	}
	buf := d.chunk[:n]
	if err := d.writeReg(regERDPT, r.pos); err != nil {
		r.err = errors.Annotate(err, "receive")
		return false
	}
	if err := d.readBuf(buf); err != nil {
		r.err = errors.Annotate(err, "receive")
		return false
	}
	kind := ChunkPayload
	if r.first {
		kind = ChunkHeader
		r.first = false
	}
	r.cur = Chunk{Kind: kind, Data: buf}
	r.pos = d.ringAdd(r.pos, n)
	r.left -= n
	return true
}

// Chunk returns the chunk read by the last successful call to Next.
func (r *FrameReader) Chunk() Chunk { return r.cur }

// Err returns the first bus error encountered while reading.
func (r *FrameReader) Err() error { return r.err }

// Reset rewinds the reader to the start of the frame.
func (r *FrameReader) Reset() {
	if !r.open {
		return
	}
	r.pos = r.start
	r.left = r.length
	r.first = r.length > 0
	r.cur = Chunk{}
	r.err = nil
}

// Close releases the frame's ring space to the chip and decrements the
// pending packet count. Closing a reader that holds no frame does nothing.
func (r *FrameReader) Close() error {
	if !r.open {
		return r.err
	}
	r.open = false
	d := r.d
	d.next = r.next
	b := batch{d: d}
	b.writeReg(regERXRDPT, d.freePointer(r.next))
	b.writeOp(opBitFieldSet, regECON2, econ2PKTDEC)
	if b.err != nil {
		return errors.Annotate(b.err, "release frame")
	}
	if d.tempBroadcast {
		d.tempBroadcast = false
		if !d.broadcast {
			return errors.Annotate(d.bitClear(regERXFCON, erxfconBCEN), "release frame")
		}
	}
	return nil
}

// freePointer returns the ERXRDPT value that frees every byte before next:
// next-1, or the ring end when that falls outside the ring (errata B7 #14:
// ERXRDPT must be odd).
func (d *Driver) freePointer(next uint16) uint16 {
	p := next - 1
	if next == d.cfg.RxStart || p > d.cfg.RxEnd {
		return d.cfg.RxEnd
	}
	return p
}

// ringAdd returns p advanced by n bytes within the receive ring.
func (d *Driver) ringAdd(p uint16, n int) uint16 {
	size := int(d.cfg.RxEnd) - int(d.cfg.RxStart) + 1
	off := (int(p) - int(d.cfg.RxStart) + n) % size
	return d.cfg.RxStart + uint16(off)
}

// Receive returns a reader for the oldest pending frame. If no frame is
// pending, the reader's Len is 0 and Next returns false immediately.
func (d *Driver) Receive() (*FrameReader, error) {
	r := &d.reader
	if r.open {
		return nil, errors.New("receive: previous frame not closed")
	}
	*r = FrameReader{d: d}
	cnt, err := d.readRegByte(regEPKTCNT)
	if err != nil {
		return nil, errors.Annotate(err, "receive")
	}
	if cnt == 0 {
		return r, nil
	}

	var desc [rxDescLen]byte
	if err := d.writeReg(regERDPT, d.next); err != nil {
		return nil, errors.Annotate(err, "receive")
	}
	if err := d.readBuf(desc[:]); err != nil {
		return nil, errors.Annotate(err, "receive")
	}
	next, count, status, err := parseRxDesc(desc[:])
	if err != nil {
		return nil, errors.Annotate(err, "receive")
	}

	r.open = true
	r.next = next
	r.status = status
	if status&rsvReceivedOK != 0 && count > 4 {
		r.length = int(count) - 4
	} else {
		log.Debugf("dropping frame at %#04x: status %#04x, count %v", d.next, status, count)
	}
	r.start = d.ringAdd(d.next, rxDescLen)
	r.Reset()
	return r, nil
}

func parseRxDesc(b []byte) (next, count, status uint16, err error) {
	defer parse.Recover(&err)

	next = parse.GetUint16LE(&b)
	count = parse.GetUint16LE(&b)
	status = parse.GetUint16LE(&b)
	return next, count, status, nil
}

// ReceiveChunk drains at most one pending frame, passing its chunks to the
// monitor and to the handler registered for its EtherType. ARP replies
// update the ARP cache before any handler sees them. It returns the frame's
// length, or 0 if no valid frame was pending.
func (d *Driver) ReceiveChunk() (n int, err error) {
	r, err := d.Receive()
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := r.Close(); err == nil {
			err = cerr
		}
	}()

	var h ChunkHandler
	for r.Next() {
		c := r.Chunk()
		if c.Kind == ChunkHeader {
			h = d.dispatch(c.Data)
		}
		if d.monitor != nil {
			d.monitor.HandleChunk(c)
		}
		if h != nil {
			h.HandleChunk(c)
		}
	}
	if r.Err() != nil {
		return 0, r.Err()
	}
	return r.Len(), nil
}

// dispatch inspects a frame's header chunk and returns the handler for its
// EtherType.
func (d *Driver) dispatch(b []byte) ChunkHandler {
	eh, err := parseEthernetHeader(b)
	if err != nil {
		log.Debugf("runt frame: %v", err)
		return nil
	}
	if eh.et == EtherTypeARP {
		d.handleARP(b[ethernetHeaderLen:])
	}
	return d.handlers[eh.et]
}
