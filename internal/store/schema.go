package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table and column names shared by the migration and the repositories.
const (
	detectionEventsTable   = "detection_events"
	backendInitEventsTable = "backend_init_events"
)

var (
	// DetectionEventsColumns holds the columns for the "detection_events" table.
	DetectionEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "run_id", Type: field.TypeString},
		{Name: "detector", Type: field.TypeString},
		{Name: "path", Type: field.TypeString},
		{Name: "label", Type: field.TypeString},
		{Name: "confidence", Type: field.TypeFloat64},
		{Name: "flag", Type: field.TypeBool},
		{Name: "latency_us", Type: field.TypeInt64},
		{Name: "reason", Type: field.TypeString, Default: ""},
	}
	// DetectionEventsTable holds the schema information for the "detection_events" table.
	DetectionEventsTable = &schema.Table{
		Name:       detectionEventsTable,
		Columns:    DetectionEventsColumns,
		PrimaryKey: []*schema.Column{DetectionEventsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "detectionevent_run_id",
				Unique:  false,
				Columns: []*schema.Column{DetectionEventsColumns[3]},
			},
			{
				Name:    "detectionevent_detector_path",
				Unique:  false,
				Columns: []*schema.Column{DetectionEventsColumns[4], DetectionEventsColumns[5]},
			},
		},
	}
	// BackendInitEventsColumns holds the columns for the "backend_init_events" table.
	BackendInitEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "run_id", Type: field.TypeString},
		{Name: "detector", Type: field.TypeString},
		{Name: "state", Type: field.TypeString},
		{Name: "error_message", Type: field.TypeString, Default: ""},
	}
	// BackendInitEventsTable holds the schema information for the "backend_init_events" table.
	BackendInitEventsTable = &schema.Table{
		Name:       backendInitEventsTable,
		Columns:    BackendInitEventsColumns,
		PrimaryKey: []*schema.Column{BackendInitEventsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "backendinitevent_run_id",
				Unique:  false,
				Columns: []*schema.Column{BackendInitEventsColumns[3]},
			},
		},
	}
	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		DetectionEventsTable,
		BackendInitEventsTable,
	}
)
