package models

// QA is a published question together with its answer.
type QA struct {
	Question Question `json:"question"`
	Answer   Answer   `json:"answer"`
}
