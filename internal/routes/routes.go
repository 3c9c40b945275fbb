package routes

const (
	// Health
	Health = "/health"

	// Account deletion (online phase of the deletion cascade)
	AccountDelete = "/api/v1/accounts/{account_id}"
)

// Path variables
const (
	AccountIDVar = "account_id"
)
