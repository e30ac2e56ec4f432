package passthru

import "C"
import (
	"bytes"
	"fmt"
	"unsafe"

	"github.com/bendikro/dl"
)

type PassThru struct {
	lib                     *dl.DL
	passThruReadVersionProc func(uint32, uintptr, uintptr, uintptr) uint32
	passThruOpen            func(string, *uint32) uint32
	passThruClose           func(uint32) uint32
	passThruConnect         func(uint32, uint32, uint32, uint32, *uint32) uint32
	passThruDisconnect      func(uint32) uint32
	passThruReadMsgs        func(uint32, *PassThruMsg, *uint32, uint32) uint32
	passThruWriteMsgs       func(uint32, *PassThruMsg, *uint32, uint32) uint32
	passThruStartMsgFilter  func(uint32, uint32, *PassThruMsg, *PassThruMsg, *PassThruMsg, *uint32) uint32
	passThruStopMsgFilter   func(uint32, uint32) uint32
	passThruIoctl           func(uint32, uint32, ...interface{}) uint32
	passThruGetLastError    func(uintptr) uint32
}

// New loads the J2534 shared object at libName and resolves every entry point
func New(libName string) (*PassThru, error) {
	lib, err := dl.Open(libName, 0)
	if err != nil {
		return nil, err
	}
	j := &PassThru{lib: lib}
	syms := []struct {
		name string
		fn   interface{}
	}{
		{"PassThruReadVersion", &j.passThruReadVersionProc},
		{"PassThruOpen", &j.passThruOpen},
		{"PassThruClose", &j.passThruClose},
		{"PassThruConnect", &j.passThruConnect},
		{"PassThruDisconnect", &j.passThruDisconnect},
		{"PassThruReadMsgs", &j.passThruReadMsgs},
		{"PassThruWriteMsgs", &j.passThruWriteMsgs},
		{"PassThruStartMsgFilter", &j.passThruStartMsgFilter},
		{"PassThruStopMsgFilter", &j.passThruStopMsgFilter},
		{"PassThruIoctl", &j.passThruIoctl},
		{"PassThruGetLastError", &j.passThruGetLastError},
	}
	for _, s := range syms {
		if err := lib.Sym(s.name, s.fn); err != nil {
			lib.Close()
			return nil, fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return j, nil
}

// Close unloads the shared object
func (j *PassThru) Close() error {
	return j.lib.Close()
}

// PassThruOpen long PassThruOpen(void* pName, unsigned long *pDeviceID);
func (j *PassThru) PassThruOpen(deviceName string, pDeviceID *uint32) error {
	return CheckError(j.passThruOpen(deviceName, pDeviceID))
}

// PassThruClose long PassThruClose(unsigned long DeviceID);
func (j *PassThru) PassThruClose(deviceID uint32) error {
	return CheckError(j.passThruClose(deviceID))
}

// PassThruConnect long PassThruConnect(unsigned long DeviceID, unsigned long ProtocolID, unsigned long Flags, unsigned long BaudRate, unsigned long *pChannelID);
func (j *PassThru) PassThruConnect(deviceID uint32, protocolID uint32, flags uint32, baudRate uint32, pChannelID *uint32) error {
	return j.withLastError(j.passThruConnect(deviceID, protocolID, flags, baudRate, pChannelID))
}

// PassThruDisconnect long PassThruDisconnect(unsigned long ChannelID);
func (j *PassThru) PassThruDisconnect(channelID uint32) error {
	return CheckError(j.passThruDisconnect(channelID))
}

// PassThruReadMsg reads a single message, returning the number of messages read (0 or 1)
func (j *PassThru) PassThruReadMsg(channelID uint32, pMsg *PassThruMsg, timeout uint32) (uint32, error) {
	pNumMsgs := uint32(1)
	if err := j.PassThruReadMsgs(channelID, pMsg, &pNumMsgs, timeout); err != nil {
		return 0, err
	}
	return pNumMsgs, nil
}

// PassThruReadMsgs long PassThruReadMsgs(unsigned long ChannelID, PassThruMsg *pMsg, unsigned long *pNumMsgs, unsigned long Timeout);
func (j *PassThru) PassThruReadMsgs(channelID uint32, pMsg *PassThruMsg, pNumMsgs *uint32, timeout uint32) error {
	ret := j.passThruReadMsgs(channelID, pMsg, pNumMsgs, timeout)
	if ret == ERR_BUFFER_EMPTY || ret == ERR_TIMEOUT {
		return CheckError(ret)
	}
	return j.withLastError(ret)
}

// PassThruWriteMsgs long PassThruWriteMsgs(unsigned long ChannelID, PassThruMsg *pMsg, unsigned long *pNumMsgs, unsigned long Timeout);
func (j *PassThru) PassThruWriteMsgs(channelID uint32, pMsg *PassThruMsg, pNumMsgs *uint32, timeout uint32) error {
	return j.withLastError(j.passThruWriteMsgs(channelID, pMsg, pNumMsgs, timeout))
}

// PassThruStartMsgFilter long PassThruStartMsgFilter(unsigned long ChannelID, unsigned long FilterType, PassThruMsg *pMaskMsg, PassThruMsg *pPatternMsg, PassThruMsg *pFlowControlMsg, unsigned long *pMsgID);
func (j *PassThru) PassThruStartMsgFilter(channelID uint32, filterType uint32, pMaskMsg, pPatternMsg, pFlowControlMsg *PassThruMsg, pMsgID *uint32) error {
	return j.withLastError(j.passThruStartMsgFilter(channelID, filterType, pMaskMsg, pPatternMsg, pFlowControlMsg, pMsgID))
}

// PassThruStopMsgFilter long PassThruStopMsgFilter(unsigned long ChannelID, unsigned long MsgID);
func (j *PassThru) PassThruStopMsgFilter(channelID uint32, msgID uint32) error {
	return CheckError(j.passThruStopMsgFilter(channelID, msgID))
}

// PassThruReadVersion long PassThruReadVersion(unsigned long DeviceID, char *pFirmwareVersion, char *pDllVersion, char *pApiVersion);
func (j *PassThru) PassThruReadVersion(deviceID uint32) (string, string, string, error) {
	var pFirmwareVersion [80]byte
	var pDllVersion [80]byte
	var pApiVersion [80]byte

	ret := j.passThruReadVersionProc(
		deviceID,
		uintptr(unsafe.Pointer(&pFirmwareVersion)),
		uintptr(unsafe.Pointer(&pDllVersion)),
		uintptr(unsafe.Pointer(&pApiVersion)),
	)
	if err := CheckError(ret); err != nil {
		return "", "", "", err
	}
	return cstr(pFirmwareVersion[:]), cstr(pDllVersion[:]), cstr(pApiVersion[:]), nil
}

// PassThruIoctl long PassThruIoctl(unsigned long HandleID, unsigned long IoctlID, void *pInput, void *pOutput);
func (j *PassThru) PassThruIoctl(handleID uint32, ioctlID uint32, opts ...interface{}) error {
	switch ioctlID {
	case SET_CONFIG, GET_CONFIG:
		return j.withLastError(j.passThruIoctl(handleID, ioctlID, opts[0].(*SCONFIG_LIST), 0))
	case CLEAR_MSG_FILTERS, CLEAR_RX_BUFFER, CLEAR_TX_BUFFER:
		return CheckError(j.passThruIoctl(handleID, ioctlID, 0, 0))
	case FAST_INIT:
		return j.withLastError(j.passThruIoctl(handleID, ioctlID,
			uintptr(unsafe.Pointer(opts[0].(*PassThruMsg))),
			uintptr(unsafe.Pointer(opts[1].(*PassThruMsg))),
		))
	}
	return ErrNotSupported
}

// PassThruGetLastError long PassThruGetLastError(char *pErrorDescription);
func (j *PassThru) PassThruGetLastError() (string, error) {
	var pErrorDescription [80]byte
	ret := j.passThruGetLastError(uintptr(unsafe.Pointer(&pErrorDescription)))
	return cstr(pErrorDescription[:]), CheckError(ret)
}

func (j *PassThru) withLastError(ret uint32) error {
	err := CheckError(ret)
	if err == nil {
		return nil
	}
	if str, err2 := j.PassThruGetLastError(); err2 == nil && str != "" {
		return fmt.Errorf("%s: %w", str, err)
	}
	return err
}

func cstr(b []byte) string {
	return string(bytes.Trim(b, "\x00"))
}
