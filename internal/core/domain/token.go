package domain

import "time"

// AccessToken is a short-lived bearer credential from the gateway's token
// endpoint. It is used for exactly one submission unless the token cache
// serves it again within its TTL.
type AccessToken struct {
	Value string
	TTL   time.Duration
}
