package handler

// CreateRequest is the body of POST /contraventions.
type CreateRequest struct {
	Motif       string `json:"motif"`
	Description string `json:"description"`
	ResidentID  string `json:"residentId,omitempty"`
	Room        string `json:"room,omitempty"`
	Building    string `json:"building,omitempty"`
}

// ConfirmRequest optionally relocates the report at decision time. An empty
// body confirms against the location the report was filed with.
type ConfirmRequest struct {
	Room     string `json:"room,omitempty"`
	Building string `json:"building,omitempty"`
}

// DismissRequest carries the optional dismissal note.
type DismissRequest struct {
	Note string `json:"note,omitempty"`
}
