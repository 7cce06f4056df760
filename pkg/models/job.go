package models

// JobRecord represents one normalized job posting extracted from a saved
// LinkedIn HTML document. Seniority and EmploymentType are nil when the
// posting does not state them; Industries and Functions preserve the order
// of first appearance in the document.
type JobRecord struct {
	ID             int64    `json:"id"`
	URL            string   `json:"url"`
	Title          string   `json:"title"`
	Company        string   `json:"company"`
	Location       string   `json:"location"`
	Seniority      *string  `json:"seniority"`
	EmploymentType *string  `json:"employment_type"`
	Industries     []string `json:"industries"`
	Functions      []string `json:"functions"`
	PostingText    string   `json:"posting_text"`
	Rejected       bool     `json:"rejected"`
}
