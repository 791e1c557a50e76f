package enc28j60

import (
	"io/ioutil"

	"gopkg.in/yaml.v2"

	"github.com/joshlf/enc28j60/internal/errors"
	"github.com/joshlf/enc28j60/spi"
)

// Config holds the driver's memory layout and behaviour. Addresses are in the
// controller's 8 KiB packet memory.
type Config struct {
	MAC string `yaml:"mac"`
	IP  string `yaml:"ip"`

	// ChunkSize is the size of the working receive buffer. It must hold
	// an Ethernet header plus an ARP packet.
	ChunkSize int `yaml:"chunk-size"`
	// ARPEntries is the fixed capacity of the ARP table.
	ARPEntries int `yaml:"arp-entries"`
	// ARPTTL is the lifetime, in ticks (seconds), of a resolved entry.
	ARPTTL int `yaml:"arp-ttl"`
	// BusyRetries bounds every hardware busy-wait; 0 waits forever.
	BusyRetries int `yaml:"busy-retries"`

	RxStart  uint16 `yaml:"rx-start"`
	RxEnd    uint16 `yaml:"rx-end"`
	TxStart  uint16 `yaml:"tx-start"`
	TxSlots  int    `yaml:"tx-slots"`
	SlotSize uint16 `yaml:"slot-size"`

	Broadcast  bool `yaml:"broadcast"`
	FullDuplex bool `yaml:"full-duplex"`
	// AnswerARP makes the driver reply to ARP requests for its own
	// address, using transmit slot 1.
	AnswerARP bool `yaml:"answer-arp"`

	// The remaining fields describe the host's connection to the chip
	// and are only used by front ends that open real hardware.
	SPIPort    string `yaml:"spi-port"`
	ChipSelect string `yaml:"chip-select"`
	SPISpeed   int64  `yaml:"spi-speed"`
}

// maxFrameLen is the largest frame the MAC accepts, excluding CRC.
const maxFrameLen = 1518

// DefaultConfig returns the configuration used when no file is given: a
// 3 KiB receive ring at the bottom of memory (errata B7 #5 requires it to
// start at zero) followed by three 1.5 KiB transmit slots.
func DefaultConfig() Config {
	return Config{
		MAC:         "02:00:00:28:60:01",
		IP:          "192.168.1.99",
		ChunkSize:   64,
		ARPEntries:  8,
		ARPTTL:      120,
		BusyRetries: spi.DefaultRetries,
		RxStart:     0x0000,
		RxEnd:       0x0BFF,
		TxStart:     0x0C00,
		TxSlots:     3,
		SlotSize:    0x0600,
		Broadcast:   true,
		SPIPort:     "",
		ChipSelect:  "GPIO25",
		SPISpeed:    8000000,
	}
}

// LoadConfig reads a YAML configuration from path. Fields missing from the
// file keep their DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return c, errors.Annotate(err, "load config")
	}
	if err = yaml.Unmarshal(b, &c); err != nil {
		return c, errors.Annotatef(err, "load config %v", path)
	}
	return c, errors.Annotatef(c.Validate(), "load config %v", path)
}

// Validate checks that c describes a usable memory layout.
func (c *Config) Validate() error {
	if _, err := ParseMAC(c.MAC); err != nil {
		return errors.Configf("mac: %v", err)
	}
	if _, err := ParseIPv4(c.IP); err != nil {
		return errors.Configf("ip: %v", err)
	}
	if c.ChunkSize < frameARPLen {
		return errors.Configf("chunk-size %v is smaller than an ARP frame (%v bytes)", c.ChunkSize, frameARPLen)
	}
	if c.ARPEntries < 1 {
		return errors.Configf("arp-entries must be positive")
	}
	if c.ARPTTL < 1 || c.ARPTTL > 127 {
		return errors.Configf("arp-ttl %v out of range [1, 127]", c.ARPTTL)
	}
	if c.BusyRetries < 0 {
		return errors.Configf("busy-retries must not be negative")
	}
	if c.RxStart&1 != 0 {
		return errors.Configf("rx-start %#04x must be even", c.RxStart)
	}
	if c.RxEnd <= c.RxStart || c.RxEnd >= MemorySize {
		return errors.Configf("rx region [%#04x, %#04x] is empty or outside packet memory", c.RxStart, c.RxEnd)
	}
	if c.TxSlots < 1 {
		return errors.Configf("tx-slots must be positive")
	}
	if c.AnswerARP && c.TxSlots < 2 {
		return errors.Configf("answer-arp needs at least two tx slots")
	}
	// control byte + frame + 7-byte transmit status vector
	if int(c.SlotSize) < 1+frameARPLen+7 {
		return errors.Configf("slot-size %v cannot hold an ARP frame", c.SlotSize)
	}
	txEnd := int(c.TxStart) + c.TxSlots*int(c.SlotSize)
	if txEnd > MemorySize {
		return errors.Configf("tx region [%#04x, %#04x) exceeds packet memory", c.TxStart, txEnd)
	}
	if int(c.TxStart) <= int(c.RxEnd) && txEnd > int(c.RxStart) {
		return errors.Configf("tx region overlaps rx region")
	}
	return nil
}

// maxSlotFrame returns the largest frame a transmit slot can stage.
func (c *Config) maxSlotFrame() int {
	n := int(c.SlotSize) - 1 - 7
	if n > maxFrameLen {
		n = maxFrameLen
	}
	return n
}
