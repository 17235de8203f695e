package updater

import "encoding/json"

// platformArtifact is one entry of a multi-platform manifest's "platforms"
// map.
type platformArtifact struct {
	URL       string `json:"url"`
	Signature string `json:"signature"`
	Size      int64  `json:"size"`
}

// manifest accepts either wire shape: a multi-platform object keyed by
// "<os>-<arch>" target, or a flat simple shape. The two shapes don't share
// field names for the download URL or release notes (downloadUrl/
// releaseNotes vs. the multi-platform url-per-platform/notes), so both
// sets of tags live on the one struct and resolve picks the right ones.
type manifest struct {
	Version   string                      `json:"version"`
	Notes     string                      `json:"notes"`
	PubDate   string                      `json:"pub_date"`
	Platforms map[string]platformArtifact `json:"platforms"`

	// Simple shape only.
	DownloadURL  string `json:"downloadUrl"`
	Signature    string `json:"signature"`
	Size         int64  `json:"size"`
	Mandatory    bool   `json:"mandatory"`
	ReleaseDate  string `json:"releaseDate"`
	ReleaseNotes string `json:"releaseNotes"`
}

func parseManifest(body []byte) (manifest, error) {
	var m manifest
	if err := json.Unmarshal(body, &m); err != nil {
		return manifest{}, err
	}
	return m, nil
}

// resolve picks the artifact for target out of m, returning ok=false when a
// multi-platform manifest has no entry for target (spec §4.11: "if the
// target is missing from a multi-platform manifest return absent" — there
// is deliberately no fallback to the top-level url/signature/size fields
// in that case, resolving the spec's stated Open Question).
func (m manifest) resolve(target string) (UpdateInfo, bool) {
	if m.Platforms != nil {
		art, ok := m.Platforms[target]
		if !ok {
			return UpdateInfo{}, false
		}
		return UpdateInfo{
			Version:   m.Version,
			Notes:     m.Notes,
			URL:       art.URL,
			Signature: art.Signature,
			Size:      art.Size,
			Date:      m.PubDate,
		}, true
	}
	return UpdateInfo{
		Version:   m.Version,
		Notes:     m.ReleaseNotes,
		URL:       m.DownloadURL,
		Signature: m.Signature,
		Size:      m.Size,
		Mandatory: m.Mandatory,
		Date:      m.ReleaseDate,
	}, true
}
