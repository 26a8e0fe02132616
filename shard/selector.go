package shard

import "hash/fnv"

// Selector maps a key to the shard that owns it. The mapping must be stable.
type Selector interface {
	Select(key string, shards []*Shard) *Shard
}

// HashSelector picks shards by FNV-1a hash of the image URL.
type HashSelector struct{}

func hash(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

func (HashSelector) Select(key string, shards []*Shard) *Shard {
	return shards[hash(key)%uint32(len(shards))]
}
