package parser

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Hash generates a stable identifier for the server a link points at.
// The remark is left out so renamed copies of the same link collapse.
func (l *Link) Hash() string {
	var parts []string

	// --- Endpoint ---
	parts = append(parts, l.Protocol.String())
	parts = append(parts, strings.ToLower(l.Address))
	parts = append(parts, fmt.Sprintf("%d", l.Port))
	parts = append(parts, l.ID)
	parts = append(parts, fmt.Sprintf("%d", l.AlterID))

	// --- Stream ---
	network := strings.ToLower(l.Network)
	if network == "" {
		network = "tcp"
	}
	parts = append(parts, network)

	security := strings.ToLower(l.Security)
	if security == "none" {
		security = ""
	}
	parts = append(parts, security)
	parts = append(parts, l.Flow)

	// --- Transport parameters ---
	parts = append(parts, deref(l.WSPath), deref(l.WSHost))
	parts = append(parts, deref(l.QUICKey), deref(l.QUICSecurity), deref(l.QUICHeaderType))
	parts = append(parts, deref(l.KCPSeed))

	// REALITY keys are case-sensitive, keep them as is.
	parts = append(parts, deref(l.Fingerprint), deref(l.PublicKey), deref(l.ServerName), deref(l.ShortID))

	signature := strings.Join(parts, "|")
	hash := sha256.Sum256([]byte(signature))
	return hex.EncodeToString(hash[:])
}
