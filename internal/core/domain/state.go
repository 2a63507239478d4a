package domain

// RecordState tracks a record's progress through one classification pass.
// A record may only be committed after reaching StateValidated.
type RecordState string

const (
	StateUnscanned    RecordState = "unscanned"
	StateComputed     RecordState = "computed"
	StateClassified   RecordState = "classified"
	StateValidated    RecordState = "validated"
	StateCommitted    RecordState = "committed"
	StateUnresolvable RecordState = "unresolvable"
)
