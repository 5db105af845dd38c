package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID identifies one extraction run.
	FieldRunID = "run_id"
	// FieldMachine is the machine instance being resolved.
	FieldMachine = "machine"
	// FieldDefinition is a definition document name.
	FieldDefinition = "definition"
	// FieldPath is a filesystem path involved in the log line.
	FieldPath = "path"
	// FieldEventType classifies warnings and errors for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to do next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldDecisionType names the decision recorded by DecisionAttrs.
	FieldDecisionType = "decision_type"
)
