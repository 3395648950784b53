// Package model defines the data types exchanged with the job-listing backend and the identity provider.
package model

import "slices"

// Job is an immutable vacancy record returned by the backend.
type Job struct {
	ID               string   `json:"id"`
	JobTitle         string   `json:"job_title"`
	CompanyName      string   `json:"company_name"`
	CompanyLocation  string   `json:"company_location"`
	ShortDescription string   `json:"short_description"`
	RelevantTags     []string `json:"relevant_tags"`
	IsFeatured       bool     `json:"is_featured"`
	ApplyURL         string   `json:"apply_url"`
	CreatedAt        int64    `json:"created_at"`
	UpdatedAt        int64    `json:"updated_at"`
}

// Clone returns a copy of j that shares no slices with it.
func (j Job) Clone() Job {
	j.RelevantTags = slices.Clone(j.RelevantTags)
	return j
}

// CloneJobs deep-copies a listing so callers can modify their copy freely.
func CloneJobs(jobs []Job) []Job {
	if jobs == nil {
		return nil
	}
	out := make([]Job, len(jobs))
	for i, j := range jobs {
		out[i] = j.Clone()
	}
	return out
}

// Tag is a skill or category label users can pick as a preference.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// JobQuery filters the job listing. An empty Query lists everything.
type JobQuery struct {
	Query string `json:"query,omitempty"`
}
