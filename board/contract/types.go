package contract

type CoachRequest struct {
	OrgID     string `json:"org_id"`
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
}

type CoachReply struct {
	OrgID   string `json:"org_id"`
	Message string `json:"message"`
}
