// Package validator provides small, composable validation rules.
//
// A Rule pairs a Check closure with the ValidationError it reports. Apply runs
// every rule and returns ValidationErrors when any check fails:
//
//	err := validator.Apply(
//		validator.RequiredString("key", f.Key),
//		validator.ValidSlug("key", f.Key),
//		validator.RangeNum("rolloutPercentage", f.RolloutPercentage, 0, 100),
//	)
//
// Callers recover the field-level details with ExtractValidationErrors.
package validator
