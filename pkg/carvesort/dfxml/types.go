// Package dfxml loads the DFXML report a carver such as PhotoRec writes
// alongside its recovered files.
package dfxml

import (
	"path"
	"strings"
)

// ByteRun is one contiguous extent of the source image that contributed to
// a carved file.
type ByteRun struct {
	// Offset is the position of the run within the carved file.
	Offset int64 `xml:"offset,attr"`

	// ImgOffset is the position of the run within the source image.
	ImgOffset int64 `xml:"img_offset,attr"`

	// Length is the run length in bytes.
	Length int64 `xml:"len,attr"`
}

// Entry is one <fileobject> record. Entries are values and are not
// modified after Load returns them.
type Entry struct {
	// DeclaredPath is the filename exactly as the report records it. It may
	// carry the carver's absolute output prefix.
	DeclaredPath string

	// DeclaredSize is the <filesize> value in bytes.
	DeclaredSize int64

	// ByteRuns are the extents in document order.
	ByteRuns []ByteRun
}

// Name returns the final segment of DeclaredPath. Both slash styles are
// accepted because reports produced on Windows use backslashes.
func (e Entry) Name() string {
	p := strings.ReplaceAll(e.DeclaredPath, `\`, "/")
	return path.Base(p)
}

// Creator describes the program that wrote the report.
type Creator struct {
	Program string `xml:"program"`
	Version string `xml:"version"`
}

// Source describes the image the files were carved from.
type Source struct {
	ImageFilename string `xml:"image_filename"`
	SectorSize    int64  `xml:"sectorsize"`
}

// Report is a parsed DFXML document.
type Report struct {
	Creator Creator
	Source  Source
	Entries []Entry
}

// fileObject mirrors the <fileobject> element for decoding.
type fileObject struct {
	Filename string    `xml:"filename"`
	Filesize string    `xml:"filesize"`
	ByteRuns []ByteRun `xml:"byte_runs>byte_run"`
}
