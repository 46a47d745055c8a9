package model

import "github.com/google/uuid"

// Session is the authenticated caller identity, threaded explicitly
// through every privileged operation. It is built once per request from
// the verified auth token; services never reach for ambient state.
type Session struct {
	UserID uuid.UUID
	Email  string
}
