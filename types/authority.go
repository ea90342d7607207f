package types

// AuthorityKind selects one of the two authority allow-lists.
type AuthorityKind uint8

const (
	LockAuthorities AuthorityKind = iota + 1
	DetachAuthorities
)

func (k AuthorityKind) String() string {
	switch k {
	case LockAuthorities:
		return "lock"
	case DetachAuthorities:
		return "detach"
	}
	return "unknown"
}

// Valid reports whether k names a known set.
func (k AuthorityKind) Valid() bool {
	return k == LockAuthorities || k == DetachAuthorities
}
