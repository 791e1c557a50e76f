package fakechip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshlf/enc28j60/spi"
)

func write(t *testing.T, tr *spi.Transport, b ...byte) {
	t.Helper()
	require.NoError(t, tr.Write(b, nil))
}

func read(t *testing.T, tr *spi.Transport, op byte, n int) []byte {
	t.Helper()
	buf := make([]byte, n)
	require.NoError(t, tr.Read([]byte{op}, buf))
	return buf
}

func TestRegisterOps(t *testing.T) {
	c := New()
	tr := spi.NewTransport(c, nil)

	// select bank 1 and write ERXFCON
	write(t, tr, 0x80|rECON1, 0x01)
	write(t, tr, 0x40|rERXFCON, 0xA1)
	assert.Equal(t, byte(0xA1), c.Reg(1, rERXFCON))
	assert.Equal(t, byte(0xA1), read(t, tr, rERXFCON, 1)[0])
	assert.Equal(t, 1, c.BankWrites)

	// bit field clear back to bank 0
	write(t, tr, 0xA0|rECON1, 0x03)
	assert.Equal(t, byte(0), c.Reg(0, rECON1)&0x03)

	// MAC registers return a dummy byte first
	write(t, tr, 0x80|rECON1, 0x03)
	write(t, tr, 0x40|0x04, 0x42)
	got := read(t, tr, 0x04, 2)
	assert.Equal(t, byte(0x42), got[1])
	assert.Equal(t, byte(0x06), read(t, tr, rEREVID, 1)[0])
}

func TestSoftReset(t *testing.T) {
	c := New()
	c.ClockWaitReads = 2
	tr := spi.NewTransport(c, nil)
	write(t, tr, 0xFF)
	assert.Equal(t, 1, c.Resets)
	assert.Equal(t, uint16(0x1FFF), c.Reg16(0, rERXND))
	assert.Equal(t, byte(0), read(t, tr, rESTAT, 1)[0])
	assert.Equal(t, byte(0), read(t, tr, rESTAT, 1)[0])
	assert.Equal(t, byte(0x01), read(t, tr, rESTAT, 1)[0])
}

func TestBufferMemory(t *testing.T) {
	c := New()
	tr := spi.NewTransport(c, nil)
	write(t, tr, 0x40|rEWRPT, 0x00)
	write(t, tr, 0x40|(rEWRPT+1), 0x10)
	require.NoError(t, tr.Write([]byte{0x7A}, []byte{1, 2, 3}))
	assert.Equal(t, []byte{1, 2, 3}, c.Mem()[0x1000:0x1003])

	write(t, tr, 0x40|rERDPT, 0x01)
	write(t, tr, 0x40|(rERDPT+1), 0x10)
	assert.Equal(t, []byte{2, 3}, read(t, tr, 0x3A, 2))
}

func TestInjectRequiresReceiveEnable(t *testing.T) {
	c := New()
	frame := make([]byte, 60)
	copy(frame, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF})
	assert.False(t, c.Inject(frame))
	assert.Equal(t, 1, c.Dropped)

	c.common()[rECON1] |= 0x04
	assert.True(t, c.Inject(frame))
	assert.Equal(t, 1, c.PacketCount())
	// descriptor: next, count including CRC, status
	m := c.Mem()
	assert.Equal(t, []byte{70, 0, 64, 0, 0x80, 0}, m[0:6])
}

func TestInjectRingFull(t *testing.T) {
	c := New()
	c.common()[rECON1] |= 0x04
	c.setReg16(0, rERXND, 0x00FF)
	frame := make([]byte, 100)
	assert.True(t, c.Inject(frame))
	assert.True(t, c.Inject(frame))
	assert.False(t, c.Inject(frame))
}

func TestTransmitAndPeer(t *testing.T) {
	c := New()
	c.common()[rECON1] |= 0x04
	local := [6]byte{2, 0, 0, 0, 0, 1}
	r := &c.regs[3]
	r[0x04], r[0x05], r[0x02], r[0x03], r[0x00], r[0x01] = local[0], local[1], local[2], local[3], local[4], local[5]
	p := &Peer{MAC: [6]byte{2, 0, 0, 0, 0, 2}, IP: [4]byte{10, 0, 0, 2}}
	c.AddPeer(p)

	// a request from local for p.IP, staged at 0x1000 behind a control byte
	req := ARPReply(local, [4]byte{10, 0, 0, 1}, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, p.IP[:])
	req[21] = 1
	copy(c.mem[0x1001:], req)
	c.setReg16(0, rETXST, 0x1000)
	c.setReg16(0, rETXND, 0x1000+uint16(len(req)))
	c.writeReg(rECON1, c.common()[rECON1]|0x08)

	require.Len(t, c.Sent(), 1)
	assert.Equal(t, req, c.Sent()[0])
	assert.Zero(t, c.common()[rECON1]&0x08)
	assert.Equal(t, 1, p.Requests)
	assert.Equal(t, 1, c.PacketCount())
}

func TestFailedTransmitWedges(t *testing.T) {
	c := New()
	c.setReg16(0, rETXST, 0x1000)
	c.setReg16(0, rETXND, 0x1010)
	c.FailNextTx = true
	c.writeReg(rECON1, 0x08)
	assert.Empty(t, c.Sent())
	assert.NotZero(t, c.common()[rEIR]&0x02)
	c.writeReg(rECON1, 0x08)
	assert.Empty(t, c.Sent())

	c.writeReg(rECON1, 0x80)
	c.writeReg(rECON1, 0x08)
	assert.Len(t, c.Sent(), 1)
	assert.Equal(t, 1, c.TxResets)
}

func TestPHY(t *testing.T) {
	c := New()
	c.PHYBusyPolls = 2
	tr := spi.NewTransport(c, nil)
	write(t, tr, 0x80|rECON1, 0x02)
	write(t, tr, 0x40|rMIREGADR, PHSTAT2)
	write(t, tr, 0x40|rMICMD, 0x01)
	write(t, tr, 0x80|rECON1, 0x03)
	assert.Equal(t, byte(1), read(t, tr, rMISTAT, 2)[1])
	assert.Equal(t, byte(1), read(t, tr, rMISTAT, 2)[1])
	assert.Equal(t, byte(0), read(t, tr, rMISTAT, 2)[1])
	assert.Equal(t, byte(LSTAT>>8), c.regs[2][rMIRDH])
}

func TestDead(t *testing.T) {
	c := New()
	c.Dead = true
	tr := spi.NewTransport(c, nil)
	tr.Retries = 10
	err := tr.Write([]byte{0xFF}, nil)
	assert.True(t, spi.IsUnresponsive(err))
}
