package iso14230

import "time"

// Values understood by Driver, numerically equal to their SAE J2534 counterparts
const (
	// ConnectNoChecksum tells the driver to leave the checksum byte to us
	ConnectNoChecksum uint32 = 0x00000200

	TxNoFlags       uint32 = 0x00000000
	TxWaitP3MinOnly uint32 = 0x00000200
)

type Version struct {
	Firmware string
	DLL      string
	API      string
}

// Driver is the pass-thru capability a connection runs on. Every call blocks
// until the driver answers or the supplied timeout expires.
type Driver interface {
	Open() (deviceID uint32, err error)
	ReadVersion(deviceID uint32) (Version, error)
	Connect(deviceID, flags, baudRate uint32) (channelID uint32, err error)
	SetConfig(channelID uint32, items ...ConfigItem) error
	GetConfig(channelID uint32, params ...Param) ([]ConfigItem, error)
	StartPassFilter(channelID uint32, mask, pattern byte) (filterID uint32, err error)
	StopFilter(channelID, filterID uint32) error
	WriteMsg(channelID uint32, data []byte, timeout time.Duration, txFlags uint32) error
	// ReadMsg fills buf, it returns the number of bytes read and an error if buf could not be filled in time
	ReadMsg(channelID uint32, buf []byte, timeout time.Duration) (int, error)
	// ReadMsgs collects received bytes until at least minLen arrived or timeout expires.
	// minLen <= 0 collects everything arriving within timeout.
	ReadMsgs(channelID uint32, minLen int, timeout time.Duration) ([]byte, error)
	ClearBuffers(channelID uint32) error
	// FastInit sends the wake up pattern followed by start and returns the ECU reply
	FastInit(channelID uint32, start []byte) ([]byte, error)
	Disconnect(channelID uint32) error
	Close(deviceID uint32) error
}
