package fsutil

import "testing"

func TestIsManagedFile(t *testing.T) {
	tests := []struct {
		name string
		data string
		want bool
	}{
		{"marker first line", ManagedMarker + "\n[Unit]\n", true},
		{"marker only", ManagedMarker, true},
		{"marker later", "[Unit]\n" + ManagedMarker + "\n", false},
		{"no marker", "[Unit]\nDescription=x\n", false},
		{"empty", "", false},
		{"partial", "# Managed by", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsManagedFile([]byte(tt.data)); got != tt.want {
				t.Errorf("IsManagedFile = %v, want %v", got, tt.want)
			}
		})
	}
}
