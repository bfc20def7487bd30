package persist

import (
	"encoding/json"
	"fmt"

	"github.com/scenecore/scenecore/internal/content"
	"golang.org/x/crypto/blake2b"
)

// DigestSize is the length of a level digest in bytes.
const DigestSize = blake2b.Size256

// Digest hashes the canonical JSON form of a level file. Stored with the
// package and checked again on load.
func Digest(lf *content.LevelFile) ([]byte, error) {
	canon := *lf
	if canon.Entities == nil {
		canon.Entities = []content.EntityDef{}
	}
	raw, err := json.Marshal(&canon)
	if err != nil {
		return nil, fmt.Errorf("encode level %s: %w", lf.Level, err)
	}
	sum := blake2b.Sum256(raw)
	return sum[:], nil
}
