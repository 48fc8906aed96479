package audit

// EntriesRequest asks for the recorded activity of one user.
type EntriesRequest struct {
	UserID string `json:"user_id"`
}

// EntriesResponse carries a user's recorded activity, oldest first.
type EntriesResponse struct {
	Entries []Entry `json:"entries"`
}
