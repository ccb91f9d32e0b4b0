// Package discover parses the ref advertisement returned by
// GET <url>/info/refs?service=git-upload-pack, the first phase of the
// Git smart HTTP transport.
package discover

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/example-labs/gitclone/object"
	"github.com/example-labs/gitclone/pktline"
)

// ErrNoTip is returned when the advertisement stream ends without a
// line matching either "HEAD" or "refs/heads/master".
var ErrNoTip = errors.New("discover: no HEAD or refs/heads/master in advertisement")

// Capabilities is the set of protocol capabilities a server
// advertised alongside its first ref line.
type Capabilities map[string]bool

// ParseCapabilities parses a whitespace-separated capability list.
func ParseCapabilities(s string) Capabilities {
	c := make(Capabilities)
	for _, cp := range strings.Fields(s) {
		c[cp] = true
	}
	return c
}

// An Advertisement is the parsed result of a ref discovery request.
type Advertisement struct {
	// Tip is the object ID selected as the clone target: the first
	// advertised ref whose line matched "HEAD" or
	// "refs/heads/master", per the first-match-wins rule.
	Tip object.ID
	// Refs holds every advertised ref, name to ID, including the
	// one that produced Tip.
	Refs map[string]object.ID
	// Caps holds the capabilities advertised on the first ref line.
	Caps Capabilities
}

// Discover reads r, the raw body of a git-upload-pack ref
// advertisement, and returns the parsed Advertisement. It skips
// flush-pkts and the leading "# service=..." comment line. It returns
// ErrNoTip if no line matches the tip-selection rule.
func Discover(r io.Reader) (*Advertisement, error) {
	pktr := pktline.NewReader(r)
	adv := &Advertisement{Refs: make(map[string]object.ID)}
	first := true
	tipFound := false
	// The advertisement is split into pkt-line "sections" by flush-pkts:
	// an optional "# service=..." comment section, then the ref list.
	// Next enters each section in turn; ReadMsg iterates the lines
	// within one, returning io.EOF at its closing flush.
	for {
		if err := pktr.Next(); err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		for {
			line, err := pktr.ReadMsg()
			if err == io.EOF {
				break
			} else if err != nil {
				return nil, err
			}
			if len(line) == 0 || line[0] == '#' {
				continue
			}
			line = bytes.TrimRight(line, "\n")

			rest := line
			if i := bytes.IndexByte(rest, 0); i >= 0 {
				if first {
					adv.Caps = ParseCapabilities(string(rest[i+1:]))
				}
				rest = rest[:i]
			}
			first = false

			sp := bytes.IndexByte(rest, ' ')
			if sp < 0 || sp != 40 {
				continue
			}
			id, err := object.DecodeID(string(rest[:sp]))
			if err != nil {
				continue
			}
			name := string(rest[sp+1:])
			adv.Refs[name] = id

			if !tipFound && (strings.Contains(string(line), "HEAD") ||
				strings.Contains(string(line), "refs/heads/master")) {
				adv.Tip = id
				tipFound = true
			}
		}
	}
	if !tipFound {
		return adv, ErrNoTip
	}
	return adv, nil
}
