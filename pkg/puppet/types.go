// Copyright 2024-2026 Aiku AI

package puppet

// UserInfo is the raw LinkedIn profile payload carried by profile-bearing
// events. The nesting mirrors LinkedIn's Voyager API responses.
type UserInfo struct {
	MiniProfile MiniProfile `json:"miniProfile"`
}

type MiniProfile struct {
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Picture   PictureInfo `json:"picture"`
}

type PictureInfo struct {
	VectorImage VectorImage `json:"com.linkedin.common.VectorImage"`
}

// VectorImage describes a profile picture as a root URL plus a list of
// fixed-size renditions.
type VectorImage struct {
	RootURL   string          `json:"rootUrl"`
	Artifacts []ImageArtifact `json:"artifacts"`
}

type ImageArtifact struct {
	Width                         int    `json:"width"`
	Height                        int    `json:"height"`
	FileIdentifyingURLPathSegment string `json:"fileIdentifyingUrlPathSegment"`
}

// smallestArtifact returns the lowest-resolution artifact. LinkedIn lists
// renditions smallest first, but the ordering is not guaranteed.
func smallestArtifact(artifacts []ImageArtifact) *ImageArtifact {
	if len(artifacts) == 0 {
		return nil
	}
	smallest := &artifacts[0]
	for i := 1; i < len(artifacts); i++ {
		if artifacts[i].Width < smallest.Width {
			smallest = &artifacts[i]
		}
	}
	return smallest
}
