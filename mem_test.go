package enc28j60

import (
	"testing"

	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendSlots(t *testing.T) {
	d, chip := newTestDriver(t, nil)
	for slot := 0; slot < d.Slots(); slot++ {
		frame := buildFrame(t, peerMAC, d.MAC(), layers.EthernetTypeIPv4, 100+slot)
		require.NoError(t, d.Send(slot, frame))
		assert.Equal(t, d.slotAddr(slot), chipReg16(chip, regETXST))
		assert.Equal(t, d.slotAddr(slot)+uint16(len(frame)), chipReg16(chip, regETXND))
		// control byte precedes the frame
		assert.Equal(t, byte(0), chip.Mem()[d.slotAddr(slot)])
	}
	sent := chip.Sent()
	require.Len(t, sent, d.Slots())
	for slot, f := range sent {
		assert.Len(t, f, 114+slot)
	}
}

func TestWriteSlotOffset(t *testing.T) {
	d, chip := newTestDriver(t, nil)
	frame := buildFrame(t, peerMAC, d.MAC(), layers.EthernetTypeIPv4, 100)
	require.NoError(t, d.WriteSlot(2, 0, frame[:20]))
	require.NoError(t, d.WriteSlot(2, 20, frame[20:]))
	require.NoError(t, d.PacketSend(2, len(frame)))
	require.Len(t, chip.Sent(), 1)
	assert.Equal(t, frame, chip.Sent()[0])
}

func TestSlotBounds(t *testing.T) {
	d, _ := newTestDriver(t, nil)
	assert.Equal(t, maxFrameLen, d.MaxFrame())
	assert.Error(t, d.WriteSlot(-1, 0, []byte{1}))
	assert.Error(t, d.WriteSlot(d.Slots(), 0, []byte{1}))
	assert.Error(t, d.WriteSlot(0, d.MaxFrame(), []byte{1}))
	assert.NoError(t, d.WriteSlot(0, d.MaxFrame()-1, []byte{1}))
	assert.Error(t, d.PacketSend(0, d.MaxFrame()+1))
	assert.Error(t, d.PacketSend(0, 0))
}

func TestTransmitErrorRecovery(t *testing.T) {
	d, chip := newTestDriver(t, nil)
	frame := buildFrame(t, peerMAC, d.MAC(), layers.EthernetTypeIPv4, 100)

	chip.FailNextTx = true
	require.NoError(t, d.Send(0, frame))
	assert.Empty(t, chip.Sent())
	assert.NotZero(t, chipReg(chip, regEIR)&eirTXERIF)

	require.NoError(t, d.Send(0, frame))
	assert.Equal(t, 1, chip.TxResets)
	assert.Zero(t, chipReg(chip, regEIR)&eirTXERIF)
	assert.Zero(t, chipReg(chip, regECON1)&econ1TXRST)
	require.Len(t, chip.Sent(), 1)
	assert.Equal(t, frame, chip.Sent()[0])

	// no error latched: no reset
	require.NoError(t, d.Send(0, frame))
	assert.Equal(t, 1, chip.TxResets)
}

func TestSendDeadChip(t *testing.T) {
	d, chip := newTestDriver(t, nil)
	chip.Dead = true
	err := d.Send(0, buildFrame(t, peerMAC, d.MAC(), layers.EthernetTypeIPv4, 100))
	require.Error(t, err)
	assert.True(t, IsUnresponsive(err))
}

func TestPower(t *testing.T) {
	d, chip := newTestDriver(t, nil)
	require.NoError(t, d.PowerDown())
	assert.Zero(t, chipReg(chip, regECON1)&econ1RXEN)
	assert.NotZero(t, chipReg(chip, regECON2)&econ2PWRSV)
	assert.NotZero(t, chipReg(chip, regECON2)&econ2VRPS)
	assert.False(t, chip.Inject(buildFrame(t, d.MAC(), peerMAC, layers.EthernetTypeIPv4, 100)))

	require.NoError(t, d.PowerUp())
	assert.NotZero(t, chipReg(chip, regECON1)&econ1RXEN)
	assert.Zero(t, chipReg(chip, regECON2)&econ2PWRSV)
	assert.True(t, chip.Inject(buildFrame(t, d.MAC(), peerMAC, layers.EthernetTypeIPv4, 100)))
}
