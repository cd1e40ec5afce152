// Package api implements the Gemini web API client.
package api

// GJSON paths for extracting values from Gemini responses.
//
// The wire format is an undocumented, versionless nested-array
// structure; these constants are the single place that knows the
// offsets, so a server-side shape change is a one-place edit.
const (
	// Response body paths - standard response structure
	// Normal responses have body at index 0: response[0][2]
	PathBody      = "2"
	PathCandList  = "4"
	PathMetadata  = "1"
	PathErrorCode = "0.5.2.0.1.0"

	// Alternative error path - used when the API returns the short error
	// format [["wrb.fr",null,null,null,null,[3]],...]
	PathAltErrorCode = "0.5.0"

	// Candidate paths (relative to candidate object)
	PathCandRCID      = "0"
	PathCandText      = "1.0"
	PathCandTextAlt   = "22.0"
	PathCandThoughts  = "37.0.0"
	PathCandWebImages = "12.1"
	PathCandGenImages = "12.7.0"

	// Web image paths (relative to web image object)
	PathWebImgURL   = "0.0.0"
	PathWebImgTitle = "7.0"
	PathWebImgAlt   = "0.4"

	// Generated image paths (relative to generated image object)
	PathGenImgURL  = "0.3.3"
	PathGenImgNum  = "3.6"
	PathGenImgAlts = "3.5"
)
