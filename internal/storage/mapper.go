package storage

import (
	"jobdex/pkg/models"
)

// jobColumns is the canonical column order for job inserts. insertArgs
// must produce values in exactly this order.
var jobColumns = []string{
	"id",
	"url",
	"title",
	"company",
	"location",
	"seniority",
	"employment_type",
	"posting_text",
	"rejected",
}

// lookupAttr binds one many-to-many attribute of a record to its lookup
// and junction tables. Lookup table names feed into SQL identifiers, so
// they stay hardcoded here and are never taken from input.
type lookupAttr struct {
	table    string
	column   string
	junction string
	values   func(*models.JobRecord) []string
}

var lookupAttrs = []lookupAttr{
	{table: "industry", column: "industry_id", junction: "job_industry", values: func(r *models.JobRecord) []string { return r.Industries }},
	{table: `"function"`, column: "function_id", junction: "job_function", values: func(r *models.JobRecord) []string { return r.Functions }},
}

// insertArgs flattens a record into positional arguments matching
// jobColumns. Optional fields pass through as nil pointers so the driver
// writes SQL NULL rather than an empty string.
func insertArgs(record *models.JobRecord) []any {
	return []any{
		record.ID,
		record.URL,
		record.Title,
		record.Company,
		record.Location,
		record.Seniority,
		record.EmploymentType,
		record.PostingText,
		record.Rejected,
	}
}
