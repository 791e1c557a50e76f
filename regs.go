package enc28j60

// Register addresses encode the bank in bits 5-6 and the in-bank address in
// bits 0-4. Bit 7 marks MAC and MII registers, which clock out a dummy byte
// before their value on reads.
const (
	addrMask = 0x1F
	bankMask = 0x60
	sprdMask = 0x80
)

// registers present in every bank
const (
	regEIE   = 0x1B
	regEIR   = 0x1C
	regESTAT = 0x1D
	regECON2 = 0x1E
	regECON1 = 0x1F
)

// bank 0
const (
	regERDPT   = 0x00 | 0x00
	regEWRPT   = 0x02 | 0x00
	regETXST   = 0x04 | 0x00
	regETXND   = 0x06 | 0x00
	regERXST   = 0x08 | 0x00
	regERXND   = 0x0A | 0x00
	regERXRDPT = 0x0C | 0x00
	regERXWRPT = 0x0E | 0x00
)

// bank 1
const (
	regEHT0    = 0x00 | 0x20
	regEPMM0   = 0x08 | 0x20
	regEPMCS   = 0x10 | 0x20
	regERXFCON = 0x18 | 0x20
	regEPKTCNT = 0x19 | 0x20
)

// bank 2
const (
	regMACON1   = 0x00 | 0x40 | 0x80
	regMACON3   = 0x02 | 0x40 | 0x80
	regMACON4   = 0x03 | 0x40 | 0x80
	regMABBIPG  = 0x04 | 0x40 | 0x80
	regMAIPG    = 0x06 | 0x40 | 0x80
	regMAMXFL   = 0x0A | 0x40 | 0x80
	regMICMD    = 0x12 | 0x40 | 0x80
	regMIREGADR = 0x14 | 0x40 | 0x80
	regMIWR     = 0x16 | 0x40 | 0x80
	regMIRD     = 0x18 | 0x40 | 0x80
)

// bank 3; MAADR0 holds the last byte of the MAC address
const (
	regMAADR1 = 0x00 | 0x60 | 0x80
	regMAADR0 = 0x01 | 0x60 | 0x80
	regMAADR3 = 0x02 | 0x60 | 0x80
	regMAADR2 = 0x03 | 0x60 | 0x80
	regMAADR5 = 0x04 | 0x60 | 0x80
	regMAADR4 = 0x05 | 0x60 | 0x80
	regMISTAT = 0x0A | 0x60 | 0x80
	regEREVID = 0x12 | 0x60
)

// ERXFCON
const (
	erxfconUCEN  = 0x80
	erxfconANDOR = 0x40
	erxfconCRCEN = 0x20
	erxfconPMEN  = 0x10
	erxfconMPEN  = 0x08
	erxfconHTEN  = 0x04
	erxfconMCEN  = 0x02
	erxfconBCEN  = 0x01
)

// EIE
const (
	eieINTIE = 0x80
	eiePKTIE = 0x40
)

// EIR
const (
	eirTXIF   = 0x08
	eirTXERIF = 0x02
)

// ESTAT
const (
	estatCLKRDY = 0x01
)

// ECON2
const (
	econ2AUTOINC = 0x80
	econ2PKTDEC  = 0x40
	econ2PWRSV   = 0x20
	econ2VRPS    = 0x08
)

// ECON1
const (
	econ1TXRST = 0x80
	econ1RXRST = 0x40
	econ1TXRTS = 0x08
	econ1RXEN  = 0x04
	econ1BSEL1 = 0x02
	econ1BSEL0 = 0x01
)

// ESTAT bits checked while powering down
const (
	estatRXBUSY = 0x04
)

// MACON1
const (
	macon1TXPAUS = 0x08
	macon1RXPAUS = 0x04
	macon1MARXEN = 0x01
)

// MACON3
const (
	macon3PADCFG0 = 0x20
	macon3TXCRCEN = 0x10
	macon3FRMLNEN = 0x02
	macon3FULDPX  = 0x01
)

// MICMD
const (
	micmdMIIRD = 0x01
)

// MISTAT
const (
	mistatBUSY = 0x01
)

// PHY registers
const (
	phyPHCON1  = 0x00
	phyPHSTAT1 = 0x01
	phyPHCON2  = 0x10
	phyPHSTAT2 = 0x11
	phyPHLCON  = 0x14
)

const (
	phcon1PDPXMD  = 0x0100
	phcon2HDLDIS  = 0x0100
	phstat2LSTAT  = 0x0400
	phlconStretch = 0x3476
)

// SPI operation codes
const (
	opReadCtrlReg  = 0x00
	opReadBufMem   = 0x3A
	opWriteCtrlReg = 0x40
	opWriteBufMem  = 0x7A
	opBitFieldSet  = 0x80
	opBitFieldClr  = 0xA0
	opSoftReset    = 0xFF
)

// MemorySize is the size of the controller's packet memory in bytes.
const MemorySize = 0x2000
