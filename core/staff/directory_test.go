package staff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirectory_Resolve(t *testing.T) {
	dir := NewDirectory(map[string]string{
		"John Smith": "JSmith@plant.test",
		"Mary Major": " mmajor@plant.test ",
		"":           "orphan@plant.test",
		"No Email":   "",
	})

	assert.Equal(t, 2, dir.Len(), "blank names and blank emails are dropped")

	tests := []struct {
		name     string
		lookup   string
		wantAddr string
		wantOK   bool
	}{
		{name: "exact", lookup: "John Smith", wantAddr: "jsmith@plant.test", wantOK: true},
		{name: "case-insensitive", lookup: "jOhN sMiTh", wantAddr: "jsmith@plant.test", wantOK: true},
		{name: "padded", lookup: "  Mary Major  ", wantAddr: "mmajor@plant.test", wantOK: true},
		{name: "unknown", lookup: "Nobody Known"},
		{name: "empty", lookup: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, ok := dir.Resolve(tt.lookup)
			if ok != tt.wantOK {
				t.Fatalf("Resolve() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok {
				assert.Equal(t, tt.wantAddr, addr.Address)
			}
		})
	}
}
