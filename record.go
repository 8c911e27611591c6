package versiontrack

import (
	"encoding/json"
	"time"

	"github.com/goliatone/go-versiontrack/internal/record"
)

// versionRecord is the persisted shape of a Version.
type versionRecord struct {
	VersionString string    `json:"versionString"`
	BuildString   string    `json:"buildString"`
	InstallDate   time.Time `json:"installDate"`
}

func newRecordDecoder() *record.Decoder[versionRecord] {
	return record.NewDecoder(
		record.WithPreHook[versionRecord](record.RenameField("version", "versionString")),
		record.WithPreHook[versionRecord](record.RenameField("build", "buildString")),
		record.WithPreHook[versionRecord](record.RenameField("install_date", "installDate")),
		record.WithPreHook[versionRecord](record.RequireField("versionString")),
		record.WithPostHook(func(_ record.Context, r *versionRecord) error {
			r.InstallDate = r.InstallDate.UTC()
			return nil
		}),
	)
}

func toRecord(v Version) versionRecord {
	return versionRecord{
		VersionString: v.version,
		BuildString:   v.build,
		InstallDate:   v.installDate,
	}
}

func (r versionRecord) version() Version {
	return Version{
		version:     r.VersionString,
		build:       r.BuildString,
		installDate: r.InstallDate,
	}
}

func encodeVersion(v Version) ([]byte, error) {
	return json.Marshal(toRecord(v))
}

func encodeHistory(history []Version) ([]byte, error) {
	records := make([]versionRecord, 0, len(history))
	for _, v := range history {
		records = append(records, toRecord(v))
	}
	return json.Marshal(records)
}
