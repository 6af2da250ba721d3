package testutil

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	configsqlite "bookbargain-backend/lib/configutil/sqlite"
	"bookbargain-backend/lib/telemetry"
)

type ServiceParams struct {
	Name string
	// if unspecified, it will skip applying a schema
	DbSchema string
	// if unspecified, it will use `:memory:`, relative paths are placed in
	// the test's temporary directory
	DbPath string
}

type ServiceResult struct {
	DB *sql.DB
}

func SetupService(t testing.TB, params ServiceParams) (ServiceResult, func()) {
	cleanupTelemetry := telemetry.SetupForTesting(fmt.Sprintf("test:%s", params.Name))

	dbpath := ":memory:"
	if params.DbPath != "" && params.DbPath != ":memory:" {
		dbpath = params.DbPath
		if !filepath.IsAbs(dbpath) {
			dbpath = filepath.Join(t.TempDir(), dbpath)
		}
	}

	conn, err := configsqlite.Struct{File: dbpath}.OpenDB(params.DbSchema)
	if err != nil {
		t.Fatal(err)
	}

	return ServiceResult{DB: conn}, func() {
		conn.Close()
		cleanupTelemetry()
	}
}

type Report struct {
	Level  string
	Id     string
	Params []any
}

// RecordingAPI is a telemetry.API that keeps every report in memory.
type RecordingAPI struct {
	mutex   sync.Mutex
	reports []Report
}

var _ telemetry.API = (*RecordingAPI)(nil)

func (r *RecordingAPI) record(level, id string, params []any) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.reports = append(r.reports, Report{Level: level, Id: id, Params: params})
}

func (r *RecordingAPI) ReportBroken(id string, params ...any) {
	r.record("broken", id, params)
}

func (r *RecordingAPI) ReportWarning(id string, params ...any) {
	r.record("warning", id, params)
}

func (r *RecordingAPI) ReportDebug(message string, params ...any) {
	r.record("debug", message, params)
}

func (r *RecordingAPI) ReportCount(id string, count int64) {
	r.record("count", id, []any{count})
}

// Reports returns every report of the given level, all reports when level
// is empty.
func (r *RecordingAPI) Reports(level string) []Report {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	var out []Report
	for _, report := range r.reports {
		if level == "" || report.Level == level {
			out = append(out, report)
		}
	}
	return out
}
