// Package sociallink detects which platform a pasted URL belongs to.
package sociallink

import (
	_ "embed"
	"fmt"
	"net/url"
	"strings"

	"gopkg.in/yaml.v3"
)

// Platform identifies a link source.
type Platform string

const (
	PlatformTwitter    Platform = "twitter"
	PlatformInstagram  Platform = "instagram"
	PlatformLinkedIn   Platform = "linkedin"
	PlatformGitHub     Platform = "github"
	PlatformYouTube    Platform = "youtube"
	PlatformTikTok     Platform = "tiktok"
	PlatformThreads    Platform = "threads"
	PlatformFacebook   Platform = "facebook"
	PlatformDiscord    Platform = "discord"
	PlatformTelegram   Platform = "telegram"
	PlatformLuma       Platform = "luma"
	PlatformMeetup     Platform = "meetup"
	PlatformEventbrite Platform = "eventbrite"
	PlatformNotion     Platform = "notion"
	PlatformSubstack   Platform = "substack"
	PlatformMedium     Platform = "medium"
	PlatformFarcaster  Platform = "farcaster"
	PlatformGoogleMaps Platform = "google_maps"

	// PlatformWebsite is a valid http(s) URL with no known signature.
	PlatformWebsite Platform = "website"
	// PlatformUnknown is input that does not parse as a web URL.
	PlatformUnknown Platform = "unknown"
)

// Signature is one row of the platform table.
type Signature struct {
	ID          Platform `yaml:"id"`
	Label       string   `yaml:"label"`
	Hosts       []string `yaml:"hosts"`
	Paths       []string `yaml:"paths"`
	Profile     bool     `yaml:"profile"`
	HandleIndex int      `yaml:"handle_index"`
}

// Link is a classified URL.
type Link struct {
	URL      string   `json:"url"`
	Platform Platform `json:"platform"`
	Label    string   `json:"label"`
	Handle   string   `json:"handle,omitempty"`
}

//go:embed signatures.yaml
var signaturesYAML []byte

var defaultClassifier *Classifier

func init() {
	c, err := NewClassifier(signaturesYAML)
	if err != nil {
		panic("failed to load signatures.yaml: " + err.Error())
	}
	defaultClassifier = c
}

// Classifier matches URLs against a signature table.
type Classifier struct {
	signatures []Signature
}

// NewClassifier parses a YAML signature table.
func NewClassifier(data []byte) (*Classifier, error) {
	var doc struct {
		Platforms []Signature `yaml:"platforms"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	for i, s := range doc.Platforms {
		if s.ID == "" || len(s.Hosts) == 0 {
			return nil, fmt.Errorf("signature %d: id and hosts are required", i)
		}
		for j, h := range s.Hosts {
			doc.Platforms[i].Hosts[j] = strings.ToLower(h)
		}
	}
	return &Classifier{signatures: doc.Platforms}, nil
}

// Signatures returns the loaded table.
func (c *Classifier) Signatures() []Signature { return c.signatures }

// Classify returns the platform of rawURL.
func Classify(rawURL string) Platform { return defaultClassifier.Classify(rawURL) }

// Handle returns the account handle for profile platforms, or "".
func Handle(rawURL string) string { return defaultClassifier.Handle(rawURL) }

// ClassifyAll classifies urls in order, skipping blank entries.
func ClassifyAll(urls []string) []Link { return defaultClassifier.ClassifyAll(urls) }

func (c *Classifier) Classify(rawURL string) Platform {
	u, ok := parse(rawURL)
	if !ok {
		return PlatformUnknown
	}
	if sig := c.match(u); sig != nil {
		return sig.ID
	}
	return PlatformWebsite
}

func (c *Classifier) Handle(rawURL string) string {
	u, ok := parse(rawURL)
	if !ok {
		return ""
	}
	sig := c.match(u)
	if sig == nil || !sig.Profile {
		return ""
	}
	return handleFrom(u, sig.HandleIndex)
}

func (c *Classifier) ClassifyAll(urls []string) []Link {
	links := make([]Link, 0, len(urls))
	for _, raw := range urls {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		u, ok := parse(raw)
		if !ok {
			links = append(links, Link{URL: raw, Platform: PlatformUnknown, Label: "Unknown"})
			continue
		}
		link := Link{URL: u.String(), Platform: PlatformWebsite, Label: "Website"}
		if sig := c.match(u); sig != nil {
			link.Platform = sig.ID
			link.Label = sig.Label
			if sig.Profile {
				link.Handle = handleFrom(u, sig.HandleIndex)
			}
		}
		links = append(links, link)
	}
	return links
}

func (c *Classifier) match(u *url.URL) *Signature {
	host := canonicalHost(u.Hostname())
	path := strings.ToLower(u.EscapedPath())
	for i := range c.signatures {
		sig := &c.signatures[i]
		if !hostMatches(host, sig.Hosts) {
			continue
		}
		if len(sig.Paths) > 0 && !pathMatches(path, sig.Paths) {
			continue
		}
		return sig
	}
	return nil
}

// parse accepts scheme-less input and rejects anything that is not an
// http(s) URL with a dotted host.
func parse(raw string) (*url.URL, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ContainsAny(raw, " \t\n") {
		return nil, false
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, false
	}
	// userinfo also catches "mailto:a@b.com" read as https://mailto:a@b.com
	if u.User != nil {
		return nil, false
	}
	host := u.Hostname()
	if host == "" || !strings.Contains(host, ".") || strings.HasPrefix(host, ".") || strings.HasSuffix(host, ".") {
		return nil, false
	}
	return u, true
}

func canonicalHost(h string) string {
	h = strings.ToLower(h)
	for _, p := range []string{"www.", "m.", "mobile."} {
		h = strings.TrimPrefix(h, p)
	}
	return h
}

func hostMatches(host string, hosts []string) bool {
	for _, h := range hosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

func pathMatches(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if path == p || strings.HasPrefix(path, strings.TrimSuffix(p, "/")+"/") {
			return true
		}
	}
	return false
}

func handleFrom(u *url.URL, index int) string {
	segments := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	if index < 0 || index >= len(segments) {
		return ""
	}
	return strings.TrimPrefix(segments[index], "@")
}
