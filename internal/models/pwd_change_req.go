package models

import "time"

// PwdChangeReq is a pending password reset. PwdChangeReqID is the opaque
// token mailed to the user.
type PwdChangeReq struct {
	PwdChangeReqID string    `json:"pwd_change_req_id"`
	EmailAddress   string    `json:"email_address"`
	RequestedAt    time.Time `json:"requested_at"`
}

func (p *PwdChangeReq) GetID() string {
	return p.PwdChangeReqID
}
