package passthru

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

type J2534Config struct {
	CAN         bool   `json:"CAN"`
	CANPS       bool   `json:"CAN_PS"`
	ISO15765    bool   `json:"ISO15765"`
	ISO9141     bool   `json:"ISO9141"`
	ISO14230    bool   `json:"ISO14230"`
	SWCANPS     bool   `json:"SW_CAN_PS"`
	FUNCTIONLIB string `json:"FUNCTION_LIB"`
	NAME        string `json:"NAME"`
	VENDOR      string `json:"VENDOR"`
	COMPORT     string `json:"COM-PORT"`
}

// FindConfigFiles returns every .json file below root
func FindConfigFiles(root string) ([]string, error) {
	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() && filepath.Ext(path) == ".json" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// FindDLLs reads the driver manifests in ~/.passthru and returns the libraries that exist on disk
func FindDLLs() (prefix string, libs []J2534DLL) {
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	configFiles, err := FindConfigFiles(filepath.Join(home, ".passthru"))
	if err != nil {
		return
	}
	for _, file := range configFiles {
		cfg, err := readConfig(file)
		if err != nil {
			continue
		}
		if strings.HasPrefix(cfg.FUNCTIONLIB, "~/") {
			cfg.FUNCTIONLIB = filepath.Join(home, cfg.FUNCTIONLIB[2:])
		}
		if _, err := os.Stat(cfg.FUNCTIONLIB); err != nil || filepath.Ext(cfg.FUNCTIONLIB) != ".so" {
			continue
		}
		libs = append(libs, J2534DLL{
			Name:            strings.TrimSpace(cfg.VENDOR + " " + cfg.NAME),
			FunctionLibrary: cfg.FUNCTIONLIB,
			Capabilities: Capabilities{
				SWCANPS:  cfg.SWCANPS,
				CAN:      cfg.CAN,
				CANPS:    cfg.CANPS,
				ISO15765: cfg.ISO15765,
				ISO9141:  cfg.ISO9141,
				ISO14230: cfg.ISO14230,
			},
		})
	}
	return
}

func readConfig(file string) (*J2534Config, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	var cfg J2534Config
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
