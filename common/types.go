package common

// ShowMethod is the JSON-RPC method a secondary launch calls on the
// primary instance. It carries no sticker data.
const ShowMethod = "app.show"

// ShowResult is the reply to ShowMethod.
type ShowResult struct {
	// PID of the primary instance that handled the request.
	PID int `json:"pid"`
}
