package redcap

// Instrument completion statuses as REDCap stores them.
const (
	StatusIncomplete = "0"
	StatusUnverified = "1"
	StatusComplete   = "2"
)

// RegistrationInstrument is the enrollment instrument whose completion
// gates the weekly surveys.
const RegistrationInstrument = "enrollment_questions"

// Record is a flat REDCap record export: field name to raw value.
type Record map[string]string

// ID returns the record_id field.
func (r Record) ID() string {
	return r["record_id"]
}

// InstrumentComplete reports whether the named instrument is marked
// complete on this record.
func (r Record) InstrumentComplete(instrument string) bool {
	return r[instrument+"_complete"] == StatusComplete
}

// RegistrationComplete reports whether the participant has finished the
// enrollment event instruments. Incomplete or unverified instruments both
// count as not done.
func (r Record) RegistrationComplete() bool {
	if len(r) == 0 {
		return false
	}
	return r.InstrumentComplete(RegistrationInstrument)
}
