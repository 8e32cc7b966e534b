package scoring

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentHash identifies one content version of an issue. It covers exactly
// the node ID, title and body, so metadata churn never forces a re-embed.
func ContentHash(nodeID, title, bodyText string) string {
	h := sha256.New()
	h.Write([]byte(nodeID))
	h.Write([]byte{':'})
	h.Write([]byte(title))
	h.Write([]byte{':'})
	h.Write([]byte(bodyText))
	return hex.EncodeToString(h.Sum(nil))
}
