// Package links loads invite-link files and normalizes the individual
// links into the form the gateway client expects.
package links

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Kind discriminates between the two join paths.
type Kind string

const (
	// KindPublic targets a public group/channel by username.
	KindPublic Kind = "public"
	// KindInvite targets a private group/channel by invite hash.
	KindInvite Kind = "invite"
)

// Target is the normalized form of an invite link.
type Target struct {
	Kind  Kind
	Value string // username for public targets, invite hash for private ones
}

// Request pairs a raw link with its normalized target.
type Request struct {
	Link   string
	Target Target
}

// template is written when the links file does not exist yet.
const template = `# Add your Telegram group links here, one per line
# Examples:
# https://t.me/example_group
# https://t.me/joinchat/XXXXXXXXXX
# https://t.me/+XXXXXXXXXX
`

// Parse normalizes a single link. Accepted forms:
//
//	https://t.me/<username>
//	https://t.me/joinchat/<hash>
//	https://t.me/+<hash>
//	t.me/<username>, @<username>, <username>
func Parse(link string) (Target, error) {
	s := strings.TrimSpace(link)
	if s == "" {
		return Target{}, fmt.Errorf("links: empty link")
	}

	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "t.me/")
	s = strings.TrimPrefix(s, "telegram.me/")
	s = strings.TrimSuffix(s, "/")

	if rest, ok := strings.CutPrefix(s, "joinchat/"); ok {
		if rest == "" {
			return Target{}, fmt.Errorf("links: empty invite hash in %q", link)
		}
		return Target{Kind: KindInvite, Value: rest}, nil
	}

	if rest, ok := strings.CutPrefix(s, "+"); ok {
		if rest == "" {
			return Target{}, fmt.Errorf("links: empty invite hash in %q", link)
		}
		return Target{Kind: KindInvite, Value: rest}, nil
	}

	s = strings.TrimPrefix(s, "@")
	if s == "" || strings.ContainsAny(s, "/ ") {
		return Target{}, fmt.Errorf("links: cannot parse link %q", link)
	}
	return Target{Kind: KindPublic, Value: s}, nil
}

// Load reads a links file and returns one Request per non-comment,
// non-blank line, in file order. Unparseable lines are returned as an
// error so the run fails before the first join attempt.
func Load(path string) ([]Request, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("links: open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var reqs []Request
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		target, err := Parse(line)
		if err != nil {
			return nil, fmt.Errorf("links: %s:%d: %w", path, lineNo, err)
		}
		reqs = append(reqs, Request{Link: line, Target: target})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("links: read %s: %w", path, err)
	}

	return reqs, nil
}

// WriteTemplate creates a commented template links file at path.
// It refuses to overwrite an existing file.
func WriteTemplate(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("links: create template %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString(template); err != nil {
		return fmt.Errorf("links: write template %s: %w", path, err)
	}
	return nil
}
