package sociallink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want Platform
	}{
		{"twitter", "https://twitter.com/capfactory", PlatformTwitter},
		{"x.com", "https://x.com/capfactory", PlatformTwitter},
		{"www prefix", "https://www.instagram.com/noisebridge/", PlatformInstagram},
		{"mobile prefix", "https://m.facebook.com/somecafe", PlatformFacebook},
		{"scheme-less", "instagram.com/noisebridge", PlatformInstagram},
		{"linkedin company", "https://www.linkedin.com/company/capital-factory", PlatformLinkedIn},
		{"github", "https://github.com/hackerhouse", PlatformGitHub},
		{"youtu.be", "https://youtu.be/dQw4w9WgXcQ", PlatformYouTube},
		{"discord.gg", "https://discord.gg/abc123", PlatformDiscord},
		{"discord invite", "https://discord.com/invite/abc123", PlatformDiscord},
		{"discord non-invite", "https://discord.com/channels/1/2", PlatformWebsite},
		{"telegram", "https://t.me/buildersclub", PlatformTelegram},
		{"luma", "https://lu.ma/austin-builders", PlatformLuma},
		{"meetup", "https://www.meetup.com/austin-hackers/", PlatformMeetup},
		{"eventbrite uk", "https://www.eventbrite.co.uk/e/123", PlatformEventbrite},
		{"notion subdomain", "https://house.notion.site/Guide-123", PlatformNotion},
		{"substack subdomain", "https://builders.substack.com/p/hello", PlatformSubstack},
		{"farcaster", "https://warpcast.com/dwr", PlatformFarcaster},
		{"maps host", "https://maps.google.com/?cid=123", PlatformGoogleMaps},
		{"maps short link", "https://maps.app.goo.gl/xyz", PlatformGoogleMaps},
		{"maps path", "https://www.google.com/maps/place/Capital+Factory", PlatformGoogleMaps},
		{"google non-maps", "https://www.google.com/search?q=cafe", PlatformWebsite},
		{"uppercase host", "HTTPS://GITHUB.COM/Foo", PlatformGitHub},
		{"lookalike host", "https://notgithub.com/foo", PlatformWebsite},
		{"plain website", "https://capitalfactory.com", PlatformWebsite},
		{"mailto", "mailto:hi@example.com", PlatformUnknown},
		{"ftp", "ftp://files.example.com", PlatformUnknown},
		{"not a url", "just some text", PlatformUnknown},
		{"no dot", "localhost", PlatformUnknown},
		{"empty", "", PlatformUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.url), "Classify(%q)", tt.url)
		})
	}
}

func TestHandle(t *testing.T) {
	tests := []struct {
		url, want string
	}{
		{"https://twitter.com/capfactory", "capfactory"},
		{"https://www.tiktok.com/@cafe.austin/video/1", "cafe.austin"},
		{"https://www.linkedin.com/in/jane-doe/", "jane-doe"},
		{"https://www.linkedin.com/company", ""},
		{"https://lu.ma/austin-builders", ""},
		{"https://capitalfactory.com/about", ""},
		{"https://instagram.com", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Handle(tt.url), "Handle(%q)", tt.url)
	}
}

func TestClassifyAll(t *testing.T) {
	links := ClassifyAll([]string{
		"  ",
		"instagram.com/noisebridge",
		"https://capitalfactory.com",
		"nonsense value",
	})

	require.Len(t, links, 3)
	assert.Equal(t, Link{URL: "https://instagram.com/noisebridge", Platform: PlatformInstagram, Label: "Instagram", Handle: "noisebridge"}, links[0])
	assert.Equal(t, PlatformWebsite, links[1].Platform)
	assert.Equal(t, "Website", links[1].Label)
	assert.Equal(t, PlatformUnknown, links[2].Platform)
}

func TestNewClassifier_CustomTable(t *testing.T) {
	c, err := NewClassifier([]byte(`
platforms:
  - id: farcaster
    label: Farcaster
    hosts: [Warpcast.com]
    profile: true
`))
	require.NoError(t, err)
	assert.Equal(t, PlatformFarcaster, c.Classify("https://warpcast.com/dwr"))
	assert.Equal(t, PlatformWebsite, c.Classify("https://twitter.com/dwr"))
}

func TestNewClassifier_RejectsIncompleteRows(t *testing.T) {
	_, err := NewClassifier([]byte("platforms:\n  - id: x\n"))
	assert.Error(t, err)

	_, err = NewClassifier([]byte("platforms: [oops"))
	assert.Error(t, err)
}

func TestEmbeddedTableCoversAllPlatformConstants(t *testing.T) {
	seen := map[Platform]bool{}
	for _, s := range defaultClassifier.Signatures() {
		seen[s.ID] = true
	}
	for _, p := range []Platform{
		PlatformTwitter, PlatformInstagram, PlatformLinkedIn, PlatformGitHub, PlatformYouTube,
		PlatformTikTok, PlatformThreads, PlatformFacebook, PlatformDiscord, PlatformTelegram,
		PlatformLuma, PlatformMeetup, PlatformEventbrite, PlatformNotion, PlatformSubstack,
		PlatformMedium, PlatformFarcaster, PlatformGoogleMaps,
	} {
		assert.True(t, seen[p], "no signature for %s", p)
	}
}
