package fsutil

import "bytes"

// ManagedMarker is the first line of every file auri generates.
const ManagedMarker = "# Managed by auri. Changes are overwritten when the scheduler is saved."

// IsManagedFile checks if data carries the auri ownership marker.
func IsManagedFile(data []byte) bool {
	return bytes.HasPrefix(data, []byte(ManagedMarker))
}
