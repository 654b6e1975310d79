package dfxml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrManifestNotFound is returned when the report file does not exist.
var ErrManifestNotFound = errors.New("manifest not found")

// ErrManifestParse is returned when the report is not well-formed DFXML.
// A corrupt report is never partially loaded.
var ErrManifestParse = errors.New("manifest parse error")

// rootElement is the document element every DFXML report carries.
const rootElement = "dfxml"

// Load reads the report at path and returns its entries in document order.
func Load(path string) ([]Entry, error) {
	report, err := LoadReport(path)
	if err != nil {
		return nil, err
	}
	return report.Entries, nil
}

// LoadReport reads the report at path, including creator and source metadata.
func LoadReport(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, path)
		}
		return nil, fmt.Errorf("opening manifest: %w", err)
	}
	defer f.Close()

	report, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return report, nil
}

// Decode parses a DFXML document from r. <fileobject> elements are collected
// wherever they appear, directly under the root or inside <volume>.
func Decode(r io.Reader) (*Report, error) {
	dec := xml.NewDecoder(r)
	report := &Report{Entries: []Entry{}}
	sawRoot := false

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrManifestParse, err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		if !sawRoot {
			if start.Name.Local != rootElement {
				return nil, fmt.Errorf("%w: root element is <%s>, want <%s>",
					ErrManifestParse, start.Name.Local, rootElement)
			}
			sawRoot = true
			continue
		}

		switch start.Name.Local {
		case "creator":
			if err := dec.DecodeElement(&report.Creator, &start); err != nil {
				return nil, fmt.Errorf("%w: creator: %w", ErrManifestParse, err)
			}
		case "source":
			if err := dec.DecodeElement(&report.Source, &start); err != nil {
				return nil, fmt.Errorf("%w: source: %w", ErrManifestParse, err)
			}
		case "fileobject":
			entry, err := decodeFileObject(dec, &start)
			if err != nil {
				return nil, fmt.Errorf("%w: fileobject %d: %w", ErrManifestParse, len(report.Entries)+1, err)
			}
			report.Entries = append(report.Entries, entry)
		}
	}

	if !sawRoot {
		return nil, fmt.Errorf("%w: empty document", ErrManifestParse)
	}

	return report, nil
}

func decodeFileObject(dec *xml.Decoder, start *xml.StartElement) (Entry, error) {
	var fo fileObject
	if err := dec.DecodeElement(&fo, start); err != nil {
		return Entry{}, err
	}

	var size int64
	if s := strings.TrimSpace(fo.Filesize); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Entry{}, fmt.Errorf("invalid filesize %q", fo.Filesize)
		}
		size = n
	}

	runs := fo.ByteRuns
	if runs == nil {
		runs = []ByteRun{}
	}

	return Entry{
		DeclaredPath: strings.TrimSpace(fo.Filename),
		DeclaredSize: size,
		ByteRuns:     runs,
	}, nil
}
