package manifest

import "fmt"

// Channel selects which entry of the manifest's "latest" block is followed.
type Channel string

const (
	ChannelRelease  Channel = "release"
	ChannelSnapshot Channel = "snapshot"
)

func ParseChannel(s string) (Channel, error) {
	switch c := Channel(s); c {
	case ChannelRelease, ChannelSnapshot:
		return c, nil
	default:
		return "", fmt.Errorf("unknown channel %q, expected %q or %q", s, ChannelRelease, ChannelSnapshot)
	}
}

// Manifest is the launcher version index.
type Manifest struct {
	Latest struct {
		Release  string `json:"release"`
		Snapshot string `json:"snapshot"`
	} `json:"latest"`
	Versions []VersionEntry `json:"versions"`
}

type VersionEntry struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

// VersionMetadata is the per-version document the manifest entries point to.
type VersionMetadata struct {
	ID        string `json:"id"`
	Downloads struct {
		Server *Download `json:"server"`
	} `json:"downloads"`
}

type Download struct {
	URL  string `json:"url"`
	SHA1 string `json:"sha1"`
	Size int64  `json:"size"`
}

// Release is a resolved channel: the version id and the server artifact to fetch.
type Release struct {
	Channel     Channel
	VersionID   string
	ArtifactURL string
	Checksum    string
	Size        int64
}

// LatestID returns the version id the channel currently points to.
func (m *Manifest) LatestID(channel Channel) (string, error) {
	var id string
	switch channel {
	case ChannelRelease:
		id = m.Latest.Release
	case ChannelSnapshot:
		id = m.Latest.Snapshot
	default:
		return "", fmt.Errorf("unknown channel %q", channel)
	}
	if id == "" {
		return "", fmt.Errorf("manifest has no latest %s version", channel)
	}
	return id, nil
}

// Find returns the first version entry with the given id.
func (m *Manifest) Find(id string) (VersionEntry, bool) {
	for _, v := range m.Versions {
		if v.ID == id {
			return v, true
		}
	}
	return VersionEntry{}, false
}
