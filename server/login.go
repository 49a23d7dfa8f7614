package server

import (
	"crypto/md5"

	"github.com/google/uuid"
)

// OfflineUUID derives the version 3 UUID an unauthenticated server assigns
// to name.
func OfflineUUID(name string) uuid.UUID {
	sum := md5.Sum([]byte("OfflinePlayer:" + name))
	sum[6] = sum[6]&0x0f | 0x30
	sum[8] = sum[8]&0x3f | 0x80
	return uuid.UUID(sum)
}
