package permission

// Mask is a 64-bit permission set. Bit i is Permission(i).
type Mask uint64

func (m Mask) Has(p Permission) bool {
	if p >= permissionCount {
		return false
	}
	return m&(1<<p) != 0
}

func (m *Mask) Set(p Permission) {
	if p >= permissionCount {
		return
	}
	*m |= 1 << p
}

func (m *Mask) Clear(p Permission) {
	if p >= permissionCount {
		return
	}
	*m &^= 1 << p
}

func maskOf(perms ...Permission) Mask {
	var m Mask
	for _, p := range perms {
		m.Set(p)
	}
	return m
}
