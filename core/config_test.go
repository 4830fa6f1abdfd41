package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSiteConfig_CutoffClock(t *testing.T) {
	tests := []struct {
		cutoff     string
		wantHour   int
		wantMinute int
		wantErr    bool
	}{
		{cutoff: "17:30", wantHour: 17, wantMinute: 30},
		{cutoff: "0:00"},
		{cutoff: "23:59", wantHour: 23, wantMinute: 59},
		{cutoff: "24:00", wantErr: true},
		{cutoff: "12:60", wantErr: true},
		{cutoff: "lol", wantErr: true},
		{cutoff: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.cutoff, func(t *testing.T) {
			conf := SiteConfig{OvertimeCutoff: tt.cutoff}
			hour, minute, err := conf.CutoffClock()
			if tt.wantErr {
				if err == nil {
					t.Error("CutoffClock() expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("CutoffClock() failed: %v", err)
			}
			assert.Equal(t, tt.wantHour, hour)
			assert.Equal(t, tt.wantMinute, minute)
		})
	}
}

func TestSiteConfig_Location(t *testing.T) {
	loc, err := SiteConfig{Timezone: "America/Chicago"}.Location()
	if err != nil {
		t.Fatalf("Location() failed: %v", err)
	}
	assert.Equal(t, "America/Chicago", loc.String())

	if _, err = (SiteConfig{Timezone: "Mars/Olympus"}).Location(); err == nil {
		t.Error("Location() expected an error")
	}
}
