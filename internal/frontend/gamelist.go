// Package frontend writes the EmulationStation side of an installed game:
// its gamelist.xml entry and the runscript the menu executes.
package frontend

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ryanm101/vent/internal/logging"
	"github.com/ryanm101/vent/internal/metacache"
)

// Element preserves an XML element we do not model, such as the playcount
// and lastplayed fields EmulationStation maintains itself.
type Element struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Inner   string     `xml:",innerxml"`
}

// Game is a single game entry in EmulationStation's gamelist.xml.
type Game struct {
	XMLName     xml.Name  `xml:"game"`
	Path        string    `xml:"path"`
	Name        string    `xml:"name"`
	SteamAppID  string    `xml:"steam_appID,omitempty"`
	Desc        string    `xml:"desc,omitempty"`
	Image       string    `xml:"image,omitempty"`
	Video       string    `xml:"video,omitempty"`
	Rating      string    `xml:"rating,omitempty"`
	ReleaseDate string    `xml:"releasedate,omitempty"`
	Developer   string    `xml:"developer,omitempty"`
	Publisher   string    `xml:"publisher,omitempty"`
	Genre       string    `xml:"genre,omitempty"`
	Players     string    `xml:"players,omitempty"`
	Extra       []Element `xml:",any"`
}

// Gamelist is the root gamelist.xml structure.
type Gamelist struct {
	XMLName xml.Name  `xml:"gameList"`
	Games   []Game    `xml:"game"`
	Other   []Element `xml:",any"`
}

// LoadGamelist reads path. A missing file is an empty list.
func LoadGamelist(path string) (*Gamelist, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path from configuration
	if errors.Is(err, os.ErrNotExist) {
		return &Gamelist{}, nil
	}
	if err != nil {
		return nil, err
	}

	var gl Gamelist
	if err := xml.Unmarshal(data, &gl); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &gl, nil
}

// Upsert replaces the entry with the same path, keeping any elements it
// does not model, or appends a new one. It reports whether g was added.
func (gl *Gamelist) Upsert(g Game) bool {
	for i := range gl.Games {
		if gl.Games[i].Path == g.Path {
			g.Extra = gl.Games[i].Extra
			gl.Games[i] = g
			return false
		}
	}
	gl.Games = append(gl.Games, g)
	return true
}

// Marshal renders the list with an XML header.
func (gl *Gamelist) Marshal() ([]byte, error) {
	output, err := xml.MarshalIndent(gl, "", "  ")
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.Write(output)
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// UpdateGamelist adds or refreshes g in the gamelist at path.
func UpdateGamelist(path string, g Game) error {
	gl, err := LoadGamelist(path)
	if err != nil {
		return err
	}

	if gl.Upsert(g) {
		logging.Info("adding gamelist.xml entry", "gamelist", path, "game", g.Name)
	} else {
		logging.Info("updating gamelist.xml entry", "gamelist", path, "game", g.Name)
	}

	data, err := gl.Marshal()
	if err != nil {
		return err
	}
	return metacache.WriteFileAtomic(path, data, 0644)
}

// FormatESDate formats a time.Time to EmulationStation's date format.
func FormatESDate(t time.Time) string {
	return t.Format("20060102T150405")
}
