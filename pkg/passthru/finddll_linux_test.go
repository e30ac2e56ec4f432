package passthru

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindDLLs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".passthru")
	if err := os.MkdirAll(filepath.Join(dir, "lib"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "lib", "libkline.so"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	manifests := map[string]string{
		"kline.json":   `{"NAME":"KL","VENDOR":"Acme","ISO14230":true,"ISO9141":true,"FUNCTION_LIB":"~/.passthru/lib/libkline.so"}`,
		"missing.json": `{"NAME":"Gone","VENDOR":"Acme","CAN":true,"FUNCTION_LIB":"/does/not/exist.so"}`,
		"broken.json":  `{"NAME":`,
	}
	for name, body := range manifests {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	_, libs := FindDLLs()
	if len(libs) != 1 {
		t.Fatalf("FindDLLs() returned %d libs, want 1: %+v", len(libs), libs)
	}
	lib := libs[0]
	if lib.Name != "Acme KL" {
		t.Errorf("Name = %q, want %q", lib.Name, "Acme KL")
	}
	if want := filepath.Join(home, ".passthru/lib/libkline.so"); lib.FunctionLibrary != want {
		t.Errorf("FunctionLibrary = %q, want %q", lib.FunctionLibrary, want)
	}
	if !lib.Capabilities.KLine() || lib.Capabilities.CAN {
		t.Errorf("unexpected capabilities %+v", lib.Capabilities)
	}
}

func TestFindDLLsNoConfigDir(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if _, libs := FindDLLs(); len(libs) != 0 {
		t.Fatalf("FindDLLs() = %+v, want none", libs)
	}
}
