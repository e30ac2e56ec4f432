package passthru

import (
	"runtime"
	"strings"

	"golang.org/x/sys/windows/registry"
)

const passThruSupportKey = `SOFTWARE\PassThruSupport.04.04`

// FindDLLs enumerates the J2534 libraries registered under PassThruSupport.04.04
func FindDLLs() (prefix string, dlls []J2534DLL) {
	access := uint32(0)
	if runtime.GOARCH == "386" {
		access = registry.WOW64_32KEY
	} else {
		prefix = "x64 "
	}

	k, err := registry.OpenKey(registry.LOCAL_MACHINE, passThruSupportKey, registry.ENUMERATE_SUB_KEYS|access)
	if err != nil {
		return
	}
	defer k.Close()

	adapters, err := k.ReadSubKeyNames(-1)
	if err != nil {
		return
	}

	for _, adapter := range adapters {
		dll, err := readAdapterKey(passThruSupportKey+`\`+adapter, access)
		if err != nil {
			continue
		}
		dlls = append(dlls, dll)
	}
	return
}

func readAdapterKey(path string, access uint32) (J2534DLL, error) {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, path, registry.QUERY_VALUE|access)
	if err != nil {
		return J2534DLL{}, err
	}
	defer k.Close()

	name, _, err := k.GetStringValue("Name")
	if err != nil {
		return J2534DLL{}, err
	}
	functionLibrary, _, err := k.GetStringValue("FunctionLibrary")
	if err != nil {
		return J2534DLL{}, err
	}

	flag := func(key string) bool {
		val, _, err := k.GetIntegerValue(key)
		return err == nil && val == 1
	}
	return J2534DLL{
		Name:            name,
		FunctionLibrary: functionLibrary,
		Capabilities: Capabilities{
			CAN:      flag("CAN"),
			CANPS:    flag("CAN_PS"),
			SWCANPS:  flag("SW_CAN_PS") || strings.EqualFold(name, "tech2"),
			ISO15765: flag("ISO15765"),
			ISO9141:  flag("ISO9141"),
			ISO14230: flag("ISO14230"),
		},
	}, nil
}
