// Copyright (c) 2026 PMDCollab. All rights reserved.

package datafiles

// LicenseType enumerates the known license identifiers that appear in the
// credits files.
type LicenseType int

const (
	// LicenseUnknown means the license could not be determined.
	LicenseUnknown LicenseType = iota
	// LicenseUnspecified means the work is explicitly unlicensed.
	LicenseUnspecified
	// LicensePMDCollab1 is the original license: when using, you must
	// credit the contributors.
	LicensePMDCollab1
	// LicensePMDCollab2 covers works between May 2023 and March 2024.
	LicensePMDCollab2
	// LicenseCcByNc4 is Creative Commons Attribution-NonCommercial 4.0.
	LicenseCcByNc4
	// LicenseOther is any identifier outside the known list; the raw name
	// passes through.
	LicenseOther
)

// License is a parsed license column value. Name is only set for
// [LicenseOther] and carries the raw identifier.
type License struct {
	Type LicenseType
	Name string
}

// ParseLicense maps a raw license identifier onto the known enumeration;
// anything unrecognized passes through as Other.
func ParseLicense(raw string) License {
	switch raw {
	case "Unknown":
		return License{Type: LicenseUnknown}
	case "Unspecified":
		return License{Type: LicenseUnspecified}
	case "PMDCollab_1":
		return License{Type: LicensePMDCollab1}
	case "PMDCollab_2":
		return License{Type: LicensePMDCollab2}
	case "CC_BY-NC_4":
		return License{Type: LicenseCcByNc4}
	default:
		return License{Type: LicenseOther, Name: raw}
	}
}

func (l License) String() string {
	switch l.Type {
	case LicenseUnknown:
		return "Unknown"
	case LicenseUnspecified:
		return "Unspecified"
	case LicensePMDCollab1:
		return "PMDCollab_1"
	case LicensePMDCollab2:
		return "PMDCollab_2"
	case LicenseCcByNc4:
		return "CC_BY-NC_4"
	default:
		return l.Name
	}
}
