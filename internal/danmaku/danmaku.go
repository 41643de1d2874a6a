// Package danmaku turns a video's overlay-comment stream into a
// subtitle track. Parsing, lane placement and subtitle output are pure
// transformations; the only inputs are the comment list and the layout
// configuration.
package danmaku

import (
	"encoding/xml"
	"sort"
	"strconv"
	"strings"
)

// Mode is the comment's on-screen behaviour, as encoded by the
// platform. Modes 1-3 scroll right to left; 4 pins to the bottom, 5 to
// the top. Higher modes (reverse scroll, positioned, scripted) are not
// rendered.
type Mode int

const (
	ModeScroll Mode = 1
	ModeBottom Mode = 4
	ModeTop    Mode = 5
)

// Comment is one overlay comment, decoded from the platform's XML.
type Comment struct {
	// Offset is the comment's appearance time in seconds from the start
	// of the video.
	Offset   float64
	Mode     Mode
	FontSize int
	Content  string
}

type xmlComment struct {
	P    string `xml:"p,attr"`
	Text string `xml:",chardata"`
}

type xmlDocument struct {
	XMLName  xml.Name     `xml:"i"`
	Comments []xmlComment `xml:"d"`
}

// ParseXML decodes the platform's comment document and returns the
// renderable comments sorted by appearance time. Comments with
// unparsable attributes or unrenderable modes are dropped, not errors;
// a structurally broken document is.
func ParseXML(data []byte) ([]Comment, error) {
	var doc xmlDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	comments := make([]Comment, 0, len(doc.Comments))
	for _, d := range doc.Comments {
		c, ok := decodeComment(d)
		if !ok {
			continue
		}
		comments = append(comments, c)
	}

	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].Offset < comments[j].Offset
	})
	return comments, nil
}

// decodeComment unpacks the comma-separated attribute list:
// offset,mode,fontsize,color,timestamp,pool,uid,rowid. Only the first
// three matter for rendering.
func decodeComment(d xmlComment) (Comment, bool) {
	text := strings.TrimSpace(d.Text)
	if text == "" {
		return Comment{}, false
	}
	fields := strings.Split(d.P, ",")
	if len(fields) < 3 {
		return Comment{}, false
	}
	offset, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || offset < 0 {
		return Comment{}, false
	}
	mode, err := strconv.Atoi(fields[1])
	if err != nil {
		return Comment{}, false
	}
	size, err := strconv.Atoi(fields[2])
	if err != nil || size <= 0 {
		return Comment{}, false
	}

	switch mode {
	case 1, 2, 3:
		return Comment{Offset: offset, Mode: ModeScroll, FontSize: size, Content: text}, true
	case 4:
		return Comment{Offset: offset, Mode: ModeBottom, FontSize: size, Content: text}, true
	case 5:
		return Comment{Offset: offset, Mode: ModeTop, FontSize: size, Content: text}, true
	default:
		return Comment{}, false
	}
}
