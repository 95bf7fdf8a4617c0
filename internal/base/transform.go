package base

// Transform extracts the prefix of a user key that shard hashing and
// prefix iteration operate on. Two user keys with equal transformed
// prefixes must hash to the same shard, which holds for any deterministic
// Transform because the hash is computed over the transformed bytes.
type Transform interface {
	// Transform returns the derived prefix of userKey. The result must be
	// a view into userKey or otherwise stable for the life of the call.
	Transform(userKey []byte) []byte
	// InDomain reports whether the transform is defined for userKey.
	InDomain(userKey []byte) bool
	Name() string
}

type identityTransform struct{}

func (identityTransform) Transform(userKey []byte) []byte { return userKey }
func (identityTransform) InDomain([]byte) bool            { return true }
func (identityTransform) Name() string                    { return "quarry.IdentityTransform" }

// IdentityTransform hashes whole user keys; every key is its own prefix.
var IdentityTransform Transform = identityTransform{}

type fixedPrefixTransform struct {
	n int
}

// NewFixedPrefixTransform returns a Transform taking the first n bytes of
// the user key. Keys shorter than n are out of domain and transform to
// themselves.
func NewFixedPrefixTransform(n int) Transform {
	return &fixedPrefixTransform{n: n}
}

func (t *fixedPrefixTransform) Transform(userKey []byte) []byte {
	if len(userKey) < t.n {
		return userKey
	}
	return userKey[:t.n]
}

func (t *fixedPrefixTransform) InDomain(userKey []byte) bool {
	return len(userKey) >= t.n
}

func (t *fixedPrefixTransform) Name() string { return "quarry.FixedPrefixTransform" }
