package copying

// Resolution alphabets are closed sets: a job never invents an outcome
// outside the one its callback signature allows (spec.md §7).

type AccessResolution int

const (
	AccessStop AccessResolution = iota
	AccessSkip
	AccessRetry
)

type ExistsResolution int

const (
	ExistsStop ExistsResolution = iota
	ExistsSkip
	ExistsOverwrite
	ExistsOverwriteOld
	ExistsAppend
	ExistsKeepBoth
)

type RenameExistsResolution int

const (
	RenameExistsStop RenameExistsResolution = iota
	RenameExistsSkip
	RenameExistsOverwrite
	RenameExistsOverwriteOld
	RenameExistsKeepBoth
)

type IOErrorResolution int

const (
	IOStop IOErrorResolution = iota
	IOSkip
	IORetry
)

type CreateDirResolution int

const (
	CreateDirStop CreateDirResolution = iota
	CreateDirSkip
	CreateDirRetry
)

type DeleteResolution int

const (
	DeleteStop DeleteResolution = iota
	DeleteSkip
	DeleteRetry
)

type NotADirectoryResolution int

const (
	NotADirStop NotADirectoryResolution = iota
	NotADirSkip
	NotADirOverwrite
)

// LockedItemCause distinguishes why a locked item was encountered.
type LockedItemCause int

const (
	CauseMoving LockedItemCause = iota
	CauseDeletion
	CauseOpening
)

type LockedItemResolution int

const (
	LockedStopR LockedItemResolution = iota
	LockedSkipR
	LockedUnlockR
	LockedRetryR
)
