// Package ensemble holds the canonical DAB ensemble data model: the
// ensemble itself plus its services, subchannels, and components, and
// the capacity-unit allocator that lays subchannels out in the MST.
//
// Grounded on dbehnke-dmr-nexus pkg/config (struct shape, mapstructure
// tags) and _examples/original_source/src/dabmux/core/mux_elements.py
// (protection tables, CU sizing, label masking).
package ensemble

import "fmt"

// TransmissionMode selects the DAB transmission mode, which determines
// ensemble capacity and OFDM parameters (OFDM itself is out of scope).
type TransmissionMode int

const (
	TM_I TransmissionMode = iota + 1
	TM_II
	TM_III
	TM_IV
)

// CapacityCU is the total Capacity Units available per 24ms logical
// frame for each transmission mode.
var CapacityCU = map[TransmissionMode]int{
	TM_I:   864,
	TM_II:  864,
	TM_III: 864,
	TM_IV:  864,
}

// InternationalTable selects the FIG 0/9 international table.
type InternationalTable int

const (
	IntlTableRDS         InternationalTable = 1
	IntlTableNorthAmerica InternationalTable = 2
)

// Label is a 16-character long label with an 8-character short label
// selected from it by a 16-bit MSB-first bitmask (spec P14).
type Label struct {
	Text  string
	Short string
}

// ShortMask computes the 16-bit mask selecting the short label's
// characters within the long label text, MSB-first: bit 15 is
// position 0. If Short cannot be formed as a subsequence of Text in
// order, the mask still marks the first len(Short) matched positions
// found by a greedy left-to-right scan.
func (l Label) ShortMask() uint16 {
	var mask uint16
	runes := []rune(l.Text)
	short := []rune(l.Short)
	si := 0
	for i, r := range runes {
		if si >= len(short) {
			break
		}
		if r == short[si] {
			mask |= 1 << uint(15-i)
			si++
		}
	}
	return mask
}

// Ensemble is the top-level container for services, subchannels, and
// components. Collections preserve declaration order, which the CU
// allocator and the ETI assembler's per-tick iteration both rely on.
type Ensemble struct {
	EId                uint16
	ECC                uint8
	Label              Label
	Mode               TransmissionMode
	InternationalTable InternationalTable
	LTOAuto            bool
	LTOHalfHours       int // explicit offset in [-24, 24] half-hours, used when !LTOAuto
	MNSC               uint16

	Services    []*Service
	Subchannels []*Subchannel
	Components  []*Component

	EDI EDIOutputDescriptor
}

// EDIOutputDescriptor configures the optional EDI/PFT output stage
// (pkg/edi, pkg/network own the actual encoding/transport).
type EDIOutputDescriptor struct {
	Enabled       bool
	Destinations  []EDIDestination
	PFTEnabled    bool
	PFTFEC        int // M in [0,5]
	FragmentSize  int // default 1400
	TAIUTCOffset  int // leap seconds since 2000-01-01, for TIST
}

// EDIDestination is one network sink for EDI output.
type EDIDestination struct {
	Transport string // "udp" or "tcp"
	Mode      string // for tcp: "client" or "server"
	Address   string
}

// Service is a logical programme, bound to subchannels by Components.
type Service struct {
	UID            string
	SId            uint32 // 16- or 32-bit
	SIdExtended    bool
	ECC            uint8 // 0 = inherit ensemble
	Label          Label
	PTy            uint8 // 5-bit programme type
	Language       uint8
	Announcements  uint16 // ASu bitmask
	Clusters       []uint8
}

// Validate checks the Service invariant SId != 0.
func (s *Service) Validate() error {
	if s.SId == 0 {
		return fmt.Errorf("service %s: SId must not be zero", s.UID)
	}
	return nil
}

// SubchannelType discriminates the four subchannel content kinds.
type SubchannelType int

const (
	SubchannelDABAudio SubchannelType = iota
	SubchannelDABPlusAudio
	SubchannelPacketData
	SubchannelDMB
)

// ProtectionForm selects UEP (table-indexed short form) or EEP (long
// form, profile + level).
type ProtectionForm int

const (
	ProtectionUEP ProtectionForm = iota
	ProtectionEEP
)

// EEPProfile distinguishes EEP profile A (more common) from B.
type EEPProfile int

const (
	EEPProfileA EEPProfile = iota
	EEPProfileB
)

// Protection describes a subchannel's error-protection scheme.
type Protection struct {
	Form  ProtectionForm
	Level int // 0-4 for UEP; 1-4 for EEP
	EEP   EEPProfile
}

// TPL returns the 6-bit Type and Protection Level field for the FIG
// 0/1 short-form (UEP) or long-form (EEP) encoding, per ETSI EN 300
// 799 §5.4.1.2. The EEP long-form encoding beyond the single example
// in the source (0x20 | level) is not fully tabulated upstream either
// (spec.md Open Question #2); see DESIGN.md for the resolution kept
// here.
func (p Protection) TPL(bitrateKbps int) uint8 {
	if p.Form == ProtectionUEP {
		idx, _, ok := uepLookup(bitrateKbps, p.Level)
		if !ok {
			return 0
		}
		return uint8(idx & 0x3F)
	}
	option := 0
	if p.EEP == EEPProfileB {
		option = 1
	}
	return uint8(0x20 | (option << 3) | (p.Level & 0x07))
}

// SizeCU returns the subchannel's size in Capacity Units.
func (p Protection) SizeCU(bitrateKbps int) int {
	if p.Form == ProtectionUEP {
		_, size, ok := uepLookup(bitrateKbps, p.Level)
		if !ok {
			return 0
		}
		return size
	}
	// EEP size_cu is this package's own approximation: profile A uses
	// bitrate*12/(5-level), profile B uses bitrate*27/(10-level).
	switch p.EEP {
	case EEPProfileA:
		return bitrateKbps * 12 / (5 - p.Level)
	default:
		return bitrateKbps * 27 / (10 - p.Level)
	}
}

// Subchannel is a capacity-allocated stream.
type Subchannel struct {
	UID          string
	SubChId      int // 0-63
	Type         SubchannelType
	BitrateKbps  int
	Protection   Protection
	StartAddress int // in Capacity Units, assigned by Build()
	PAD          *PADDescriptor
	InputURI     string
}

// PADDescriptor configures PAD attachment for an audio subchannel.
type PADDescriptor struct {
	Enabled bool
	Length  int
	DLS     DLSConfig
}

// DLSConfig configures the Dynamic Label Segment input.
type DLSConfig struct {
	Enabled      bool
	InputType    string // "file"
	InputPath    string
	Charset      int // 0 = EBU Latin, 1 = UTF-8
	Label        string
	PollInterval int // seconds
}

// SizeCU returns this subchannel's allocated size in Capacity Units.
func (sc *Subchannel) SizeCU() int {
	return sc.Protection.SizeCU(sc.BitrateKbps)
}

// SizeBytes returns the subchannel's MST footprint in bytes.
func (sc *Subchannel) SizeBytes() int {
	return sc.SizeCU() * 4
}

// Validate checks the per-subchannel invariants from spec.md §3.
func (sc *Subchannel) Validate() error {
	if sc.BitrateKbps <= 0 {
		return fmt.Errorf("subchannel %s: bitrate must be > 0", sc.UID)
	}
	if sc.SubChId < 0 || sc.SubChId > 63 {
		return fmt.Errorf("subchannel %s: SubChId %d out of range [0,63]", sc.UID, sc.SubChId)
	}
	return nil
}

// Component binds a Service to a Subchannel.
type Component struct {
	UID         string
	ServiceUID  string
	SubchanUID  string
	SCIdS       uint8 // service component identifier within the service
	Type        uint8 // ASCTy for audio, DSCTy for data
	Label       Label
}

// Build assigns sequential CU start addresses by cumulative subchannel
// size in declaration order, validates all invariants, and returns an
// error if total capacity is exceeded or SubChIds collide.
func (e *Ensemble) Build() error {
	seen := map[int]string{}
	addr := 0
	capacity := CapacityCU[e.Mode]
	if capacity == 0 {
		capacity = CapacityCU[TM_I]
	}

	for _, sc := range e.Subchannels {
		if err := sc.Validate(); err != nil {
			return err
		}
		if owner, dup := seen[sc.SubChId]; dup {
			return fmt.Errorf("duplicate SubChId %d used by %q and %q", sc.SubChId, owner, sc.UID)
		}
		seen[sc.SubChId] = sc.UID

		size := sc.SizeCU()
		if addr+size > capacity {
			return fmt.Errorf("subchannel %s: start_address %d + size_cu %d exceeds ensemble capacity %d",
				sc.UID, addr, size, capacity)
		}
		sc.StartAddress = addr
		addr += size
	}

	for _, svc := range e.Services {
		if err := svc.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// SubchannelByUID looks up a subchannel by its configured UID.
func (e *Ensemble) SubchannelByUID(uid string) *Subchannel {
	for _, sc := range e.Subchannels {
		if sc.UID == uid {
			return sc
		}
	}
	return nil
}

// ServiceByUID looks up a service by its configured UID.
func (e *Ensemble) ServiceByUID(uid string) *Service {
	for _, svc := range e.Services {
		if svc.UID == uid {
			return svc
		}
	}
	return nil
}

// ComponentsForService returns every component bound to the given
// service UID, in declaration order.
func (e *Ensemble) ComponentsForService(serviceUID string) []*Component {
	var out []*Component
	for _, c := range e.Components {
		if c.ServiceUID == serviceUID {
			out = append(out, c)
		}
	}
	return out
}
