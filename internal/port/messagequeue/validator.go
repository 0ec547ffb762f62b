package messagequeue

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Validate checks whether data is valid JSON conforming to the schema
// associated with the given subject. Unknown subjects pass validation.
func Validate(subject string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON on subject %s", subject)
	}

	switch {
	case subject == SubjectPlanGenerated, subject == SubjectPlanSaved,
		subject == SubjectPlanUpdated, subject == SubjectPlanDeleted:
		var p PlanEventPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("schema validation failed for %s: %w", subject, err)
		}
		if p.PlanID == "" {
			return fmt.Errorf("schema validation failed for %s: plan_id is required", subject)
		}
	case strings.HasPrefix(subject, SubjectPlanExported+"."):
		var p PlanExportedPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("schema validation failed for %s: %w", subject, err)
		}
		if p.PlanID == "" || p.IntegrationID == "" {
			return fmt.Errorf("schema validation failed for %s: plan_id and integration_id are required", subject)
		}
	}
	return nil
}
