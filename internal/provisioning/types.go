package provisioning

import (
	"time"

	"github.com/imamik/instancectl/internal/config"
)

// VirtualID is a caller-assigned instance identifier, stable across the
// lifetime of the logical instance.
type VirtualID string

// ProviderID is the backend-assigned instance identifier. It may be empty
// for a short while after creation.
type ProviderID string

// CreateRequest carries everything a backend needs to create one instance.
type CreateRequest struct {
	Name             string
	Image            string
	Flavor           string
	Networks         []string
	AvailabilityZone string
	SecurityGroups   []string
	KeyName          string
	Tags             map[string]string
}

// Server is a provider instance narrowed to the fields the core uses.
//
// Addresses is ordered: entry 0 is the fixed (private) address and entry 1,
// when present, is the floating address.
type Server struct {
	ID        ProviderID        `yaml:"id"`
	Name      string            `yaml:"name"`
	Status    string            `yaml:"status"`
	Addresses []string          `yaml:"addresses,omitempty"`
	Tags      map[string]string `yaml:"tags,omitempty"`
	Created   time.Time         `yaml:"created,omitempty"`
}

// AddressState derives the address state from the ordered address list.
func (s *Server) AddressState() AddressState {
	if s == nil {
		return AddressNone
	}
	switch {
	case len(s.Addresses) == 0:
		return AddressNone
	case len(s.Addresses) == 1:
		return AddressPrivate
	default:
		return AddressPrivateAndFloating
	}
}

// PrivateAddress returns the fixed address, or "" if none is assigned yet.
func (s *Server) PrivateAddress() string {
	if s == nil || len(s.Addresses) == 0 {
		return ""
	}
	return s.Addresses[0]
}

// FloatingAddress returns the floating address, or "" if none is attached.
func (s *Server) FloatingAddress() string {
	if s == nil || len(s.Addresses) < 2 {
		return ""
	}
	return s.Addresses[1]
}

// AddressState is the network addressing state of an instance.
type AddressState int

const (
	AddressNone AddressState = iota
	AddressPrivate
	AddressPrivateAndFloating
)

func (a AddressState) String() string {
	switch a {
	case AddressPrivate:
		return "private"
	case AddressPrivateAndFloating:
		return "private+floating"
	default:
		return "none"
	}
}

// HasPrivate reports whether a fixed address has been observed.
func (a AddressState) HasPrivate() bool {
	return a != AddressNone
}

// FloatingIP is an address allocated from a pool.
type FloatingIP struct {
	ID         string
	Address    string
	Pool       string
	InstanceID ProviderID
}

// Record is a find result: a resolved instance paired with the virtual id
// and template it was requested with.
type Record struct {
	VirtualID VirtualID        `yaml:"virtual_id"`
	Template  *config.Template `yaml:"template,omitempty"`
	Server    *Server          `yaml:"server"`
}

// VirtualIDs converts plain strings to virtual ids.
func VirtualIDs(ids ...string) []VirtualID {
	out := make([]VirtualID, len(ids))
	for i, id := range ids {
		out[i] = VirtualID(id)
	}
	return out
}

// uniqueIDs drops duplicates, keeping the first occurrence.
func uniqueIDs(ids []VirtualID) []VirtualID {
	seen := make(map[VirtualID]struct{}, len(ids))
	out := make([]VirtualID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
