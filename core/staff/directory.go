package staff

import (
	"net/mail"

	"github.com/sitepass/sitepass/core"
)

// Directory resolves a host's display name to their notification email.
// It is static reference data loaded once at startup, never mutated.
type Directory struct {
	entries map[string]mail.Address
}

// NewDirectory builds a Directory from a display-name -> email map.
// Lookups are case-insensitive on the display name.
func NewDirectory(entries map[string]string) *Directory {
	dir := &Directory{entries: make(map[string]mail.Address, len(entries))}
	for name, email := range entries {
		email = core.CleanString(email, true /* lower */)
		if name == "" || email == "" {
			continue
		}
		dir.entries[core.CleanString(name, true /* lower */)] = mail.Address{
			Name:    core.CleanString(name),
			Address: email,
		}
	}
	return dir
}

// Resolve returns the contact address for the given display name.
func (d *Directory) Resolve(name string) (mail.Address, bool) {
	addr, ok := d.entries[core.CleanString(name, true /* lower */)]
	return addr, ok
}

func (d *Directory) Len() int { return len(d.entries) }
