package util

import (
	"math/big"

	"github.com/google/uuid"
)

// uidNamespace scopes name-based UUIDs generated for report objects.
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("ircost"))

// GenerateDeterministicUID derives a DICOM UID from a seed using the
// 2.25 root (ISO/IEC 9834-8 UUID form). The same seed always yields the same UID.
func GenerateDeterministicUID(seed string) string {
	u := uuid.NewSHA1(uidNamespace, []byte(seed))
	return "2.25." + new(big.Int).SetBytes(u[:]).String()
}

// GenerateUID returns a fresh random DICOM UID under the 2.25 root.
func GenerateUID() string {
	u := uuid.New()
	return "2.25." + new(big.Int).SetBytes(u[:]).String()
}
