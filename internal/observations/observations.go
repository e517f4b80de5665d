package observations

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const screenshotsKey = "screenshots"

// Screenshot is one observation: the names recognized at a frame offset.
type Screenshot struct {
	// Offset is the document key, kept raw; it is parsed when the owning
	// video is processed.
	Offset string
	// Names is the recognized list in document order. Null entries decode as "".
	Names []string
	// Err is set when the entry could not be decoded as a list of names.
	Err error
}

// OffsetSeconds parses the frame offset.
func (s Screenshot) OffsetSeconds() (int, error) {
	offset, err := strconv.Atoi(strings.TrimSpace(s.Offset))
	if err != nil {
		return 0, fmt.Errorf("invalid screenshot offset %q: %w", s.Offset, err)
	}
	return offset, nil
}

// Video is one top-level entry of the document.
type Video struct {
	ID         string
	UploadDate string
	Title      string
	Uploader   string
	// Screenshots in document order.
	Screenshots []Screenshot
	// Fields holds every key of the video object in order, unknown ones included.
	Fields []Field
	// Raw is the entry exactly as it appeared in the input.
	Raw json.RawMessage
	// Err is set when the video entry is not an object or has a malformed
	// screenshots section.
	Err error
}

// Document is the decoded observation file.
type Document struct {
	Videos []Video
}

// ScreenshotCount returns the number of screenshots across all videos.
func (d *Document) ScreenshotCount() int {
	total := 0
	for _, v := range d.Videos {
		total += len(v.Screenshots)
	}
	return total
}

// Load reads and decodes the observation document at path.
func Load(path string) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open observations: %w", err)
	}
	defer file.Close()
	doc, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode observations %s: %w", path, err)
	}
	return doc, nil
}

// Decode parses an observation document. Only a malformed top level fails the
// whole decode; problems inside one video are recorded on that video.
func Decode(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	top, err := DecodeObject(data)
	if err != nil {
		return nil, err
	}
	doc := &Document{Videos: make([]Video, 0, len(top))}
	for _, field := range top {
		doc.Videos = append(doc.Videos, decodeVideo(field))
	}
	return doc, nil
}

func decodeVideo(field Field) Video {
	video := Video{ID: field.Key, Raw: field.Value}
	fields, err := DecodeObject(field.Value)
	if err != nil {
		video.Err = fmt.Errorf("video %s: %w", field.Key, err)
		return video
	}
	video.Fields = fields

	for _, f := range fields {
		switch f.Key {
		case "upload_date":
			video.UploadDate = scalarString(f.Value)
		case "title":
			video.Title = scalarString(f.Value)
		case "uploader":
			video.Uploader = scalarString(f.Value)
		case screenshotsKey:
			if isNull(f.Value) {
				continue
			}
			entries, err := DecodeObject(f.Value)
			if err != nil {
				video.Err = fmt.Errorf("video %s screenshots: %w", field.Key, err)
				continue
			}
			video.Screenshots = make([]Screenshot, 0, len(entries))
			for _, entry := range entries {
				video.Screenshots = append(video.Screenshots, decodeScreenshot(entry))
			}
		}
	}
	return video
}

// decodeScreenshot accepts a plain list of names, or an already annotated
// entry carrying players_ocr so an output document can be matched again.
func decodeScreenshot(entry Field) Screenshot {
	shot := Screenshot{Offset: entry.Key}
	var names []*string
	if err := json.Unmarshal(entry.Value, &names); err == nil {
		shot.Names = flattenNames(names)
		return shot
	}
	var annotated struct {
		PlayersOCR []*string `json:"players_ocr"`
	}
	if err := json.Unmarshal(entry.Value, &annotated); err == nil && annotated.PlayersOCR != nil {
		shot.Names = flattenNames(annotated.PlayersOCR)
		return shot
	}
	shot.Err = errors.New("screenshot " + entry.Key + ": expected a list of player names")
	return shot
}

func flattenNames(names []*string) []string {
	out := make([]string, len(names))
	for i, name := range names {
		if name != nil {
			out[i] = *name
		}
	}
	return out
}

func scalarString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}
