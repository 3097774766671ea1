package domain

import "time"

// Station represents a wireless client associated with, or probing for, an AP.
type Station struct {
	MAC      MacAddress `json:"mac"`
	RSSI     int        `json:"rssi"`
	LastSeen time.Time  `json:"last_seen"`
}

// AuthSequence tracks where an AP sits in the PMKID-retrieval auth/assoc
// dance driven by the attack engine. State 0 is idle; 1 is "authentication
// sent, awaiting response"; 2 is "association sent, awaiting M1"; 3 is
// reserved for a future post-association stage.
type AuthSequence struct {
	State int
	T1    Timer // interaction cooldown
	T2    Timer // state cooldown
}

// IsT1Timeout reports whether the interaction cooldown has elapsed.
func (a *AuthSequence) IsT1Timeout(now time.Time, cooldown time.Duration) bool {
	return a.T1.Elapsed(now, cooldown)
}

// UpdateT1Timer restarts the interaction cooldown.
func (a *AuthSequence) UpdateT1Timer(now time.Time) {
	a.T1.Reset(now)
}

// UpdateT2Timer restarts the state cooldown.
func (a *AuthSequence) UpdateT2Timer(now time.Time) {
	a.T2.Reset(now)
}

// AccessPoint is the subset of AP state the attack engine reads and
// mutates. The full device registry (persistence, fingerprinting,
// behavioral scoring, etc.) lives outside this module; this struct models
// only the fields spec.md §3 names.
type AccessPoint struct {
	MAC          MacAddress
	SSID         *string // nil until learned from a beacon/probe response
	Security     SecurityCapabilities
	Clients      []Station
	BeaconCount  uint64
	Interactions uint64
	AuthSequence AuthSequence
}

// SecurityCapabilities mirrors the RSN-derived flags spec.md §3 lists on
// the AccessPoint record: PSK presence, AP management-frame protection,
// and the pairwise/group cipher + AKM-mask bits the attack engine gates
// on.
type SecurityCapabilities struct {
	PSK           *bool // rsn_akm_psk: nil = unknown, non-nil = known true/false
	MFP           *bool // ap_mfp
	PairwiseTKIP  *bool // cs_tkip
	GroupTKIP     *bool // gs_tkip
	AKMSuiteCount int   // len(AKM suites) advertised; >0 means the mask is non-empty
}

// AKMMask reports whether the AP advertised at least one AKM suite.
func (s SecurityCapabilities) AKMMask() bool {
	return s.AKMSuiteCount > 0
}

// RSNInfo contains parsed RSN IE details, grounded on the teacher's
// ie.RSNInfo; kept here as the shape AccessPoint.Security is derived from
// when an adapter has raw RSN bytes available.
type RSNInfo struct {
	Version         uint16
	GroupCipher     string
	PairwiseCiphers []string
	AKMSuites       []string
	Capabilities    RSNCapabilities
}

// RSNCapabilities represents RSN capability bits.
type RSNCapabilities struct {
	PreAuth          bool
	NoPairwise       bool
	PTKSAReplayCount uint8
	GTKSAReplayCount uint8
	MFPRequired      bool
	MFPCapable       bool
	PeerKeyEnabled   bool
}

// SecurityCapabilitiesFromRSN derives the attack engine's narrow
// SecurityCapabilities view from a fully parsed RSN IE.
func SecurityCapabilitiesFromRSN(rsn *RSNInfo) SecurityCapabilities {
	sc := SecurityCapabilities{AKMSuiteCount: len(rsn.AKMSuites)}

	psk := false
	for _, akm := range rsn.AKMSuites {
		if akm == "PSK" || akm == "PSK-SHA256" {
			psk = true
		}
	}
	sc.PSK = &psk

	mfp := rsn.Capabilities.MFPRequired || rsn.Capabilities.MFPCapable
	sc.MFP = &mfp

	groupTKIP := rsn.GroupCipher == "TKIP"
	sc.GroupTKIP = &groupTKIP

	pairwiseTKIP := false
	for _, c := range rsn.PairwiseCiphers {
		if c == "TKIP" {
			pairwiseTKIP = true
		}
	}
	sc.PairwiseTKIP = &pairwiseTKIP

	return sc
}
