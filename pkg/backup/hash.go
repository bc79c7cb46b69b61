package backup

import (
	"strconv"

	"github.com/minio/highwayhash"
)

var key = []byte("bankmap-snapshot-digest-key-0001")

// Digest returns the 64-bit HighwayHash of data as hex.
func Digest(data []byte) (string, error) {
	hash, err := highwayhash.New64(key)
	if err != nil {
		return "", err
	}
	if _, err = hash.Write(data); err != nil {
		return "", err
	}
	return strconv.FormatUint(hash.Sum64(), 16), nil
}
