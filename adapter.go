package gokwp

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/roffe/gokwp/pkg/iso14230"
	"github.com/sirupsen/logrus"
)

type AdapterInfo struct {
	Name         string
	Description  string
	Capabilities AdapterCapabilities
	New          func(*AdapterConfig) (iso14230.Driver, error)
}

func (a *AdapterInfo) String() string {
	return fmt.Sprintf("%s | %s, %s", a.Name, a.Description, a.Capabilities.String())
}

type AdapterCapabilities struct {
	ISO9141  bool
	ISO14230 bool
}

func (a *AdapterCapabilities) String() string {
	return fmt.Sprintf("ISO9141: %v, ISO14230: %v", a.ISO9141, a.ISO14230)
}

type AdapterConfig struct {
	Debug            bool
	Port             string // path of the J2534 library for pass-thru adapters
	OnMessage        func(string)
	AdditionalConfig map[string]string
}

var (
	adapterMu  sync.RWMutex
	adapterMap = make(map[string]*AdapterInfo)
)

func NewAdapter(adapterName string, cfg *AdapterConfig) (iso14230.Driver, error) {
	if cfg == nil {
		cfg = &AdapterConfig{}
	}
	if cfg.OnMessage == nil {
		cfg.OnMessage = func(msg string) {
			logrus.WithField("adapter", adapterName).Info(msg)
		}
	}
	adapterMu.RLock()
	adapter, found := adapterMap[adapterName]
	adapterMu.RUnlock()
	if !found {
		return nil, fmt.Errorf("unknown adapter %q", adapterName)
	}
	return adapter.New(cfg)
}

func RegisterAdapter(adapter *AdapterInfo) error {
	adapterMu.Lock()
	defer adapterMu.Unlock()
	if _, found := adapterMap[adapter.Name]; found {
		return fmt.Errorf("adapter %s already registered", adapter.Name)
	}
	adapterMap[adapter.Name] = adapter
	return nil
}

func ListAdapterNames() []string {
	adapterMu.RLock()
	defer adapterMu.RUnlock()
	out := make([]string, 0, len(adapterMap))
	for name := range adapterMap {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i]) < strings.ToLower(out[j]) })
	return out
}

func ListAdapters() []AdapterInfo {
	var out []AdapterInfo
	for _, name := range ListAdapterNames() {
		adapterMu.RLock()
		out = append(out, *adapterMap[name])
		adapterMu.RUnlock()
	}
	return out
}
