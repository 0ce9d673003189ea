package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Checksum returns the SHA-256 of the entry content. Seq and Checksum itself
// are excluded; Seq is assigned by storage after sealing.
func Checksum(e Entry) string {
	data := fmt.Sprintf(
		"%s|%s|%s|%s|%s|%d|%s|%s|%s|%s|%s",
		e.ID,
		e.Action,
		e.EntityType,
		e.EntityKey,
		e.PerformedBy,
		e.Timestamp.UnixMicro(),
		e.Description,
		e.OldValue,
		e.NewValue,
		e.IPAddress,
		e.RequestID,
	)
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

// Verify reports ErrChecksumMismatch if e was altered after sealing.
func (e Entry) Verify() error {
	if e.Checksum != Checksum(e) {
		return fmt.Errorf("%w: entry %s", ErrChecksumMismatch, e.ID)
	}
	return nil
}
