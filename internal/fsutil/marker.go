package fsutil

import "bytes"

// GeneratedMarker is the header line carried by every source file assetpack emits.
const GeneratedMarker = "// Code generated by assetpack. DO NOT EDIT."

// IsGenerated checks if data is an assetpack-generated source file.
func IsGenerated(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimSpace(data), []byte(GeneratedMarker))
}
