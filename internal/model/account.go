package model

// RegisterParams carries the fields of a local registration.
type RegisterParams struct {
	Email       string
	Username    string
	Password    string
	DisplayName string
}
