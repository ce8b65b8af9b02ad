package util

import (
	"github.com/OneOfOne/xxhash"
)

// 将一个键进行Hash
func HashCode(key []byte) uint64 {
	h := xxhash.New64()
	h.Write(key)
	return h.Sum64()
}

// HashCode32 取Hash的低32位，目录寻址使用
func HashCode32(key []byte) uint32 {
	return uint32(HashCode(key))
}
