package copying

import "github.com/corefs/engine/vfs"

// Callbacks is the worker-thread callback surface of spec.md §6
// "CopyingJob callback surface". Each field defaults to a resolution
// equivalent to Stop when left nil, so a headless caller (e.g. a CLI
// with ExistBehavior already pinned) never needs to populate most of
// them.
type Callbacks struct {
	CantAccessSourceItem func(path string, err error) AccessResolution

	CopyDestinationAlreadyExists func(src vfs.Stat, dstPath string, dst vfs.Stat) ExistsResolution
	RenameDestinationAlreadyExists func(srcPath, dstPath string, dst vfs.Stat) RenameExistsResolution

	CantOpenDestinationFile func(path string, err error) IOErrorResolution
	SourceFileReadError      func(path string, err error) IOErrorResolution
	DestinationFileReadError func(path string, err error) IOErrorResolution
	DestinationFileWriteError func(path string, err error) IOErrorResolution

	CantCreateDestinationDir     func(path string, err error) CreateDirResolution
	CantCreateRootDestinationDir func(path string, err error) CreateDirResolution

	CantDeleteDestination func(path string, err error) DeleteResolution
	CantDeleteSource      func(path string, err error) DeleteResolution

	NotADirectory func(path string) NotADirectoryResolution

	LockedItemIssue func(path string, cause LockedItemCause) LockedItemResolution
	UnlockError     func(path string, err error) IOErrorResolution

	FileVerificationFailed func(path string, host vfs.Host)
	StageChanged           func(stage Stage)

	// RequestNonexistentDst is consulted by KeepBoth to produce
	// "name N[.ext]" with the smallest N>=2 not already present on dstHost.
	RequestNonexistentDst func(dstHost vfs.Host, dir, name string) (string, error)
}

func (c *Callbacks) cantAccessSourceItem(path string, err error) AccessResolution {
	if c == nil || c.CantAccessSourceItem == nil {
		return AccessStop
	}
	return c.CantAccessSourceItem(path, err)
}

func (c *Callbacks) copyDestinationAlreadyExists(src vfs.Stat, dstPath string, dst vfs.Stat) ExistsResolution {
	if c == nil || c.CopyDestinationAlreadyExists == nil {
		return ExistsStop
	}
	return c.CopyDestinationAlreadyExists(src, dstPath, dst)
}

func (c *Callbacks) renameDestinationAlreadyExists(srcPath, dstPath string, dst vfs.Stat) RenameExistsResolution {
	if c == nil || c.RenameDestinationAlreadyExists == nil {
		return RenameExistsStop
	}
	return c.RenameDestinationAlreadyExists(srcPath, dstPath, dst)
}

func (c *Callbacks) cantOpenDestinationFile(path string, err error) IOErrorResolution {
	if c == nil || c.CantOpenDestinationFile == nil {
		return IOStop
	}
	return c.CantOpenDestinationFile(path, err)
}

func (c *Callbacks) sourceFileReadError(path string, err error) IOErrorResolution {
	if c == nil || c.SourceFileReadError == nil {
		return IOStop
	}
	return c.SourceFileReadError(path, err)
}

func (c *Callbacks) destinationFileWriteError(path string, err error) IOErrorResolution {
	if c == nil || c.DestinationFileWriteError == nil {
		return IOStop
	}
	return c.DestinationFileWriteError(path, err)
}

func (c *Callbacks) cantCreateDestinationDir(path string, err error, root bool) CreateDirResolution {
	if c == nil {
		return CreateDirStop
	}
	fn := c.CantCreateDestinationDir
	if root {
		fn = c.CantCreateRootDestinationDir
	}
	if fn == nil {
		return CreateDirStop
	}
	return fn(path, err)
}

func (c *Callbacks) cantDeleteDestination(path string, err error) DeleteResolution {
	if c == nil || c.CantDeleteDestination == nil {
		return DeleteStop
	}
	return c.CantDeleteDestination(path, err)
}

func (c *Callbacks) cantDeleteSource(path string, err error) DeleteResolution {
	if c == nil || c.CantDeleteSource == nil {
		return DeleteStop
	}
	return c.CantDeleteSource(path, err)
}

func (c *Callbacks) notADirectory(path string) NotADirectoryResolution {
	if c == nil || c.NotADirectory == nil {
		return NotADirStop
	}
	return c.NotADirectory(path)
}

func (c *Callbacks) lockedItemIssue(path string, cause LockedItemCause) LockedItemResolution {
	if c == nil || c.LockedItemIssue == nil {
		return LockedStopR
	}
	return c.LockedItemIssue(path, cause)
}

func (c *Callbacks) unlockError(path string, err error) IOErrorResolution {
	if c == nil || c.UnlockError == nil {
		return IOStop
	}
	return c.UnlockError(path, err)
}

func (c *Callbacks) fileVerificationFailed(path string, host vfs.Host) {
	if c != nil && c.FileVerificationFailed != nil {
		c.FileVerificationFailed(path, host)
	}
}

func (c *Callbacks) stageChanged(stage Stage) {
	if c != nil && c.StageChanged != nil {
		c.StageChanged(stage)
	}
}
