package passthru

// SAE J2534-1 v04.04 protocol ids
const (
	J1850VPW     = 0x01
	J1850PWM     = 0x02
	ISO9141      = 0x03
	ISO14230     = 0x04
	CAN          = 0x05
	ISO15765     = 0x06
	SCI_A_ENGINE = 0x07
	SCI_A_TRANS  = 0x08
	SCI_B_ENGINE = 0x09
	SCI_B_TRANS  = 0x0A
)

// PassThruConnect flags
const (
	CAN_29BIT_ID        = 0x00000100
	ISO9141_NO_CHECKSUM = 0x00000200
	CAN_ID_BOTH         = 0x00000800
	ISO9141_K_LINE_ONLY = 0x00001000
)

// TxFlags
const (
	NO_FLAGS           = 0x00000000
	ISO15765_FRAME_PAD = 0x00000040
	WAIT_P3_MIN_ONLY   = 0x00000200
)

// RxStatus bits
const (
	TX_MSG_TYPE      = 0x00000001
	START_OF_MESSAGE = 0x00000002
	RX_BREAK         = 0x00000004
	TX_INDICATION    = 0x00000008
)

// Filter types
const (
	PASS_FILTER         = 0x00000001
	BLOCK_FILTER        = 0x00000002
	FLOW_CONTROL_FILTER = 0x00000003
)

// Ioctl ids
const (
	GET_CONFIG        = 0x01
	SET_CONFIG        = 0x02
	READ_VBATT        = 0x03
	FIVE_BAUD_INIT    = 0x04
	FAST_INIT         = 0x05
	CLEAR_TX_BUFFER   = 0x07
	CLEAR_RX_BUFFER   = 0x08
	CLEAR_MSG_FILTERS = 0x0A
)

// Ioctl GET_CONFIG / SET_CONFIG parameter ids
const (
	DATA_RATE = 0x01
	LOOPBACK  = 0x03
	P1_MIN    = 0x06
	P1_MAX    = 0x07
	P2_MIN    = 0x08
	P2_MAX    = 0x09
	P3_MIN    = 0x0A
	P3_MAX    = 0x0B
	P4_MIN    = 0x0C
	P4_MAX    = 0x0D
	W1        = 0x0E
	W2        = 0x0F
	W3        = 0x10
	W4        = 0x11
	W5        = 0x12
	TIDLE     = 0x13
	TINIL     = 0x14
	TWUP      = 0x15
	PARITY    = 0x16
	DATA_BITS = 0x20
)

// Status codes
const (
	STATUS_NOERROR            = 0x00
	ERR_NOT_SUPPORTED         = 0x01
	ERR_INVALID_CHANNEL_ID    = 0x02
	ERR_INVALID_PROTOCOL_ID   = 0x03
	ERR_NULL_PARAMETER        = 0x04
	ERR_INVALID_IOCTL_VALUE   = 0x05
	ERR_INVALID_FLAGS         = 0x06
	ERR_FAILED                = 0x07
	ERR_DEVICE_NOT_CONNECTED  = 0x08
	ERR_TIMEOUT               = 0x09
	ERR_INVALID_MSG           = 0x0A
	ERR_INVALID_TIME_INTERVAL = 0x0B
	ERR_EXCEEDED_LIMIT        = 0x0C
	ERR_INVALID_MSG_ID        = 0x0D
	ERR_DEVICE_IN_USE         = 0x0E
	ERR_INVALID_IOCTL_ID      = 0x0F
	ERR_BUFFER_EMPTY          = 0x10
	ERR_BUFFER_FULL           = 0x11
	ERR_BUFFER_OVERFLOW       = 0x12
	ERR_PIN_INVALID           = 0x13
	ERR_CHANNEL_IN_USE        = 0x14
	ERR_MSG_PROTOCOL_ID       = 0x15
	ERR_INVALID_FILTER_ID     = 0x16
	ERR_NO_FLOW_CONTROL       = 0x17
	ERR_NOT_UNIQUE            = 0x18
	ERR_INVALID_BAUDRATE      = 0x19
	ERR_INVALID_DEVICE_ID     = 0x1A
)

const MaxDataSize = 4128

type PassThruMsg struct {
	ProtocolID     uint32
	RxStatus       uint32
	TxFlags        uint32
	Timestamp      uint32
	DataSize       uint32
	ExtraDataIndex uint32
	Data           [MaxDataSize]byte
}

// Bytes returns the valid part of Data
func (m *PassThruMsg) Bytes() []byte {
	n := m.DataSize
	if n > MaxDataSize {
		n = MaxDataSize
	}
	return m.Data[:n]
}

// NewMsg creates a message for protocol carrying a copy of data
func NewMsg(protocol uint32, data []byte, txFlags uint32) *PassThruMsg {
	msg := &PassThruMsg{
		ProtocolID: protocol,
		TxFlags:    txFlags,
	}
	n := copy(msg.Data[:], data)
	msg.DataSize = uint32(n)
	msg.ExtraDataIndex = uint32(n)
	return msg
}

type SCONFIG struct {
	Parameter uint32
	Value     uint32
}

// SCONFIG_LIST mirrors the C struct { unsigned long NumOfParams; SCONFIG *ConfigPtr; }.
// The slice header starts with the data pointer which lines up with ConfigPtr on 64-bit targets.
type SCONFIG_LIST struct {
	NumOfParams uint32
	Params      []SCONFIG
}

func NewConfigList(params ...SCONFIG) *SCONFIG_LIST {
	return &SCONFIG_LIST{
		NumOfParams: uint32(len(params)),
		Params:      params,
	}
}

type Capabilities struct {
	CAN      bool
	CANPS    bool
	SWCANPS  bool
	ISO15765 bool
	ISO9141  bool
	ISO14230 bool
}

// KLine reports if the library can drive ISO9141 / ISO14230
func (c Capabilities) KLine() bool {
	return c.ISO9141 || c.ISO14230
}

type J2534DLL struct {
	Name            string
	FunctionLibrary string
	Capabilities    Capabilities
}
