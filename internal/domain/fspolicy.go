package domain

// MoveMode selects the transfer strategy used by the FsOps move stage.
type MoveMode string

const (
	MoveModeCopy     MoveMode = "copy"
	MoveModeMove     MoveMode = "move"
	MoveModeHardlink MoveMode = "hardlink"
)

// Par2Mode selects the PAR2 collaborator behavior (spec §4.8, open question a).
type Par2Mode string

const (
	Par2Off     Par2Mode = "off"
	Par2Verify  Par2Mode = "verify"
	Par2Repair  Par2Mode = "repair"
)

// FsPolicy is an immutable snapshot of post-processing policy (spec §3).
type FsPolicy struct {
	Revision uint64

	LibraryRoot string
	Extract     bool
	Par2        Par2Mode
	Flatten     bool
	MoveMode    MoveMode

	CleanupKeep []string
	CleanupDrop []string

	ChmodFile int // octal
	ChmodDir  int // octal
	Owner     string
	Group     string
	Umask     int // octal

	AllowPaths []string
}
