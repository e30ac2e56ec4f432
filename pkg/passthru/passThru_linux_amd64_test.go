package passthru

import "testing"

func TestNewMissingLibrary(t *testing.T) {
	if j, err := New("/nonexistent/j2534.so"); err == nil || j != nil {
		t.Errorf("New() = %v, %v, want error", j, err)
	}
}

func TestNewNotAPassThruLibrary(t *testing.T) {
	j, err := New("libc.so.6")
	if err == nil || j != nil {
		t.Fatalf("New() = %v, %v, want missing symbol error", j, err)
	}
}
