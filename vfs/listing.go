package vfs

// ListingItem is a row of a directory listing bound to the Host that
// produced it (spec.md §3 "VFSListingItem").
type ListingItem struct {
	Filename string
	Dir      string // directory containing Filename
	Host     Host

	IsReg     bool
	IsDir     bool
	IsSymlink bool

	Inode uint64
	Size  uint64
}

// Path returns the absolute path of the item.
func (li ListingItem) Path() string {
	if li.Dir == "" || li.Dir == "/" {
		return "/" + li.Filename
	}
	return li.Dir + "/" + li.Filename
}
