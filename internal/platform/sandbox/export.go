package sandbox

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ehr/chartseed/internal/platform/memstore"
)

// Record kinds accepted by ExportNDJSON, in export order.
var RecordKinds = []string{"consultation", "exam", "prescription", "consent"}

// IsRecordKind reports whether kind names one of RecordKinds.
func IsRecordKind(kind string) bool {
	for _, k := range RecordKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// ExportNDJSON writes the rows of one kind from snap as newline-delimited
// JSON.
func ExportNDJSON(w io.Writer, snap memstore.Snapshot, kind string) error {
	var rows []interface{}
	switch kind {
	case "consultation":
		for i := range snap.Consultations {
			rows = append(rows, &snap.Consultations[i])
		}
	case "exam":
		for i := range snap.Exams {
			rows = append(rows, &snap.Exams[i])
		}
	case "prescription":
		for i := range snap.Prescriptions {
			rows = append(rows, &snap.Prescriptions[i])
		}
	case "consent":
		for i := range snap.Consents {
			rows = append(rows, &snap.Consents[i])
		}
	default:
		return fmt.Errorf("unknown record kind %q", kind)
	}

	enc := json.NewEncoder(w)
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encoding %s: %w", kind, err)
		}
	}
	return nil
}

// ExportAll writes every kind, each row wrapped as {"kind":..., "record":...}.
func ExportAll(w io.Writer, snap memstore.Snapshot) error {
	enc := json.NewEncoder(w)
	emit := func(kind string, rec interface{}) error {
		if err := enc.Encode(struct {
			Kind   string      `json:"kind"`
			Record interface{} `json:"record"`
		}{kind, rec}); err != nil {
			return fmt.Errorf("encoding %s: %w", kind, err)
		}
		return nil
	}

	for i := range snap.Consultations {
		if err := emit("consultation", &snap.Consultations[i]); err != nil {
			return err
		}
	}
	for i := range snap.Exams {
		if err := emit("exam", &snap.Exams[i]); err != nil {
			return err
		}
	}
	for i := range snap.Prescriptions {
		if err := emit("prescription", &snap.Prescriptions[i]); err != nil {
			return err
		}
	}
	for i := range snap.Consents {
		if err := emit("consent", &snap.Consents[i]); err != nil {
			return err
		}
	}
	return nil
}
