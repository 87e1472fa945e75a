package user

// User is a portal account: a site engineer, inspector, or administrator.
type User struct {
	Id          int
	Uid         string
	Username    string
	DisplayName string
}
