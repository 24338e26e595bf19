package textutil

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSplitName(t *testing.T) {
	tests := []struct {
		name      string
		wantFirst string
		wantLast  string
	}{
		{"", "", ""},
		{"   ", "", ""},
		{"Cher", "Cher", ""},
		{"Jane Doe", "Jane", "Doe"},
		{"Jean Claude Van Damme", "Jean", "Claude Van Damme"},
		{"  Jane   Doe  ", "Jane", "Doe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, last := SplitName(tt.name)
			if first != tt.wantFirst || last != tt.wantLast {
				t.Errorf("SplitName(%q) = (%q, %q), want (%q, %q)",
					tt.name, first, last, tt.wantFirst, tt.wantLast)
			}
		})
	}
}

func TestTokenizeJob(t *testing.T) {
	tests := []struct {
		job  string
		want []string
	}{
		{"VFX Supervisor!!", []string{"vfx", "supervisor"}},
		{"Visual Effects Supervisor", []string{"visual", "effects", "supervisor"}},
		{"3D Artist", []string{"artist"}}, // "3d" is length 2, dropped
		{"CG/FX Lead", []string{"lead"}},
		{"Senior   Compositor", []string{"senior", "compositor"}},
		{"", nil},
		{"a b c", nil},
	}

	for _, tt := range tests {
		t.Run(tt.job, func(t *testing.T) {
			got := TokenizeJob(tt.job)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("TokenizeJob(%q) mismatch (-want +got):\n%s", tt.job, diff)
			}
		})
	}
}
