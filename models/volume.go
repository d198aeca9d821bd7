package models

// RawListingFragment holds the unparsed text of one catalog entry as found in the
// listing page. It is classified immediately and not retained.
type RawListingFragment struct {
	Number string
	Link   string
	Label  string
}

// VolumeRecord is one catalog volume, ready to be written to an output sink.
type VolumeRecord struct {
	Number        uint32
	Title         string
	Author        string
	AuthorLink    string
	DetailLink    string
	OriginalLabel string
	// OwnVolume is a reserved column and is always empty.
	OwnVolume string
}

// AttachAuthorLink sets the author's profile link. Records without an author
// never carry a link.
func (v *VolumeRecord) AttachAuthorLink(link string) {
	if v.Author == "" {
		v.AuthorLink = ""
		return
	}
	v.AuthorLink = link
}

// RunSummary holds counts computed over the records written in one run.
type RunSummary struct {
	TotalVolumes     int
	WithAuthor       int
	WithAuthorLink   int
	WithoutAuthor    int
	FirstVolume      uint32
	LastVolume       uint32
	DuplicateNumbers []uint32
}
