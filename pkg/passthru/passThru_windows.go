package passthru

import (
	"bytes"
	"fmt"
	"syscall"
	"unsafe"
)

type PassThru struct {
	dll                     *syscall.DLL
	passThruReadVersionProc *syscall.Proc
	passThruOpen            *syscall.Proc
	passThruClose           *syscall.Proc
	passThruConnect         *syscall.Proc
	passThruDisconnect      *syscall.Proc
	passThruReadMsgs        *syscall.Proc
	passThruWriteMsgs       *syscall.Proc
	passThruStartMsgFilter  *syscall.Proc
	passThruStopMsgFilter   *syscall.Proc
	passThruIoctl           *syscall.Proc
	passThruGetLastError    *syscall.Proc
}

// New loads the J2534 DLL at dllName and resolves every entry point
func New(dllName string) (*PassThru, error) {
	dll, err := syscall.LoadDLL(dllName)
	if err != nil {
		return nil, err
	}
	j := &PassThru{dll: dll}
	procs := []struct {
		name string
		proc **syscall.Proc
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
	for _, p := range procs {
		proc, err := dll.FindProc(p.name)
		if err != nil {
			dll.Release()
			return nil, err
		}
		*p.proc = proc
	}
	return j, nil
}

func (j *PassThru) Close() error {
	return j.dll.Release()
}

func call(proc *syscall.Proc, args ...uintptr) uint32 {
	ret, _, _ := proc.Call(args...)
	return uint32(ret)
}

func (j *PassThru) PassThruOpen(deviceName string, pDeviceID *uint32) error {
	var pName *byte
	if deviceName != "" {
		b, err := syscall.BytePtrFromString(deviceName)
		if err != nil {
			return err
		}
		pName = b
	}
	// long PassThruOpen(void* pName, unsigned long *pDeviceID);
	return CheckError(call(j.passThruOpen,
		uintptr(unsafe.Pointer(pName)),
		uintptr(unsafe.Pointer(pDeviceID)),
	))
}

func (j *PassThru) PassThruClose(deviceID uint32) error {
	// long PassThruClose(unsigned long DeviceID);
	return CheckError(call(j.passThruClose, uintptr(deviceID)))
}

func (j *PassThru) PassThruConnect(deviceID uint32, protocolID uint32, flags uint32, baudRate uint32, pChannelID *uint32) error {
	// long PassThruConnect(unsigned long DeviceID, unsigned long ProtocolID, unsigned long Flags, unsigned long BaudRate, unsigned long *pChannelID);
	return j.withLastError(call(j.passThruConnect,
		uintptr(deviceID),
		uintptr(protocolID),
		uintptr(flags),
		uintptr(baudRate),
		uintptr(unsafe.Pointer(pChannelID)),
	))
}

func (j *PassThru) PassThruDisconnect(channelID uint32) error {
	// long PassThruDisconnect(unsigned long ChannelID);
	return CheckError(call(j.passThruDisconnect, uintptr(channelID)))
}

func (j *PassThru) PassThruReadMsg(channelID uint32, pMsg *PassThruMsg, timeout uint32) (uint32, error) {
	pNumMsgs := uint32(1)
	if err := j.PassThruReadMsgs(channelID, pMsg, &pNumMsgs, timeout); err != nil {
		return 0, err
	}
	return pNumMsgs, nil
}

func (j *PassThru) PassThruReadMsgs(channelID uint32, pMsg *PassThruMsg, pNumMsgs *uint32, timeout uint32) error {
	// long PassThruReadMsgs(unsigned long ChannelID, PassThruMsg *pMsg, unsigned long *pNumMsgs, unsigned long Timeout);
	ret := call(j.passThruReadMsgs,
		uintptr(channelID),
		uintptr(unsafe.Pointer(pMsg)),
		uintptr(unsafe.Pointer(pNumMsgs)),
		uintptr(timeout),
	)
	if ret == ERR_BUFFER_EMPTY || ret == ERR_TIMEOUT {
		return CheckError(ret)
	}
	return j.withLastError(ret)
}

func (j *PassThru) PassThruWriteMsgs(channelID uint32, pMsg *PassThruMsg, pNumMsgs *uint32, timeout uint32) error {
	// long PassThruWriteMsgs(unsigned long ChannelID, PassThruMsg *pMsg, unsigned long *pNumMsgs, unsigned long Timeout);
	return j.withLastError(call(j.passThruWriteMsgs,
		uintptr(channelID),
		uintptr(unsafe.Pointer(pMsg)),
		uintptr(unsafe.Pointer(pNumMsgs)),
		uintptr(timeout),
	))
}

func (j *PassThru) PassThruStartMsgFilter(channelID uint32, filterType uint32, pMaskMsg, pPatternMsg, pFlowControlMsg *PassThruMsg, pMsgID *uint32) error {
	// long PassThruStartMsgFilter(unsigned long ChannelID, unsigned long FilterType, PassThruMsg *pMaskMsg, PassThruMsg *pPatternMsg, PassThruMsg *pFlowControlMsg, unsigned long *pMsgID);
	return j.withLastError(call(j.passThruStartMsgFilter,
		uintptr(channelID),
		uintptr(filterType),
		uintptr(unsafe.Pointer(pMaskMsg)),
		uintptr(unsafe.Pointer(pPatternMsg)),
		uintptr(unsafe.Pointer(pFlowControlMsg)),
		uintptr(unsafe.Pointer(pMsgID)),
	))
}

func (j *PassThru) PassThruStopMsgFilter(channelID uint32, msgID uint32) error {
	// long PassThruStopMsgFilter(unsigned long ChannelID, unsigned long MsgID);
	return CheckError(call(j.passThruStopMsgFilter, uintptr(channelID), uintptr(msgID)))
}

func (j *PassThru) PassThruReadVersion(deviceID uint32) (string, string, string, error) {
	var pFirmwareVersion [80]byte
	var pDllVersion [80]byte
	var pApiVersion [80]byte

	// long PassThruReadVersion(unsigned long DeviceID, char *pFirmwareVersion, char *pDllVersion, char *pApiVersion);
	ret := call(j.passThruReadVersionProc,
		uintptr(deviceID),
		uintptr(unsafe.Pointer(&pFirmwareVersion)),
		uintptr(unsafe.Pointer(&pDllVersion)),
		uintptr(unsafe.Pointer(&pApiVersion)),
	)
	if err := CheckError(ret); err != nil {
		return "", "", "", err
	}
	return cstr(pFirmwareVersion[:]), cstr(pDllVersion[:]), cstr(pApiVersion[:]), nil
}

// long PassThruIoctl(unsigned long HandleID, unsigned long IoctlID, void *pInput, void *pOutput);
func (j *PassThru) PassThruIoctl(handleID uint32, ioctlID uint32, opts ...interface{}) error {
	switch ioctlID {
	case SET_CONFIG, GET_CONFIG:
		return j.withLastError(call(j.passThruIoctl,
			uintptr(handleID),
			uintptr(ioctlID),
			uintptr(unsafe.Pointer(opts[0].(*SCONFIG_LIST))),
			0,
		))
	case CLEAR_MSG_FILTERS, CLEAR_RX_BUFFER, CLEAR_TX_BUFFER:
		return CheckError(call(j.passThruIoctl, uintptr(handleID), uintptr(ioctlID), 0, 0))
	case FAST_INIT:
		return j.withLastError(call(j.passThruIoctl,
			uintptr(handleID),
			uintptr(ioctlID),
			uintptr(unsafe.Pointer(opts[0].(*PassThruMsg))),
			uintptr(unsafe.Pointer(opts[1].(*PassThruMsg))),
		))
	}
	return ErrNotSupported
}

// long PassThruGetLastError(char *pErrorDescription);
func (j *PassThru) PassThruGetLastError() (string, error) {
	var pErrorDescription [80]byte
	ret := call(j.passThruGetLastError, uintptr(unsafe.Pointer(&pErrorDescription)))
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
