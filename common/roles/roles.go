package roles

const (
	ROLE_ADMIN       = "Admin"
	ROLE_STAFF       = "Staff"
	ROLE_PUBLIC      = "Public"
	ROLE_MEDICAL     = "Medical"
	ROLE_EDUCATIONAL = "Educational"
)

var All = []string{ROLE_ADMIN, ROLE_STAFF, ROLE_PUBLIC, ROLE_MEDICAL, ROLE_EDUCATIONAL}

func IsValid(role string) bool {
	for _, r := range All {
		if r == role {
			return true
		}
	}
	return false
}
