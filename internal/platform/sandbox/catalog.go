package sandbox

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidCatalog is returned when a catalog has an empty pool or too few
// medications to draw a prescription from.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Catalog is the vocabulary every seeded field is drawn from.
type Catalog struct {
	Diagnoses           []string `yaml:"diagnoses" json:"diagnoses"`
	ConsultationReasons []string `yaml:"consultation_reasons" json:"consultationReasons"`
	ExamTypes           []string `yaml:"exam_types" json:"examTypes"`
	ExamResults         []string `yaml:"exam_results" json:"examResults"`
	Medications         []string `yaml:"medications" json:"medications"`
	Instructions        []string `yaml:"instructions" json:"instructions"`
	ProcedureTypes      []string `yaml:"procedure_types" json:"procedureTypes"`
	ConsentContents     []string `yaml:"consent_contents" json:"consentContents"`
}

// DefaultCatalog returns the built-in vocabulary.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Diagnoses: []string{
			"Controlled arterial hypertension",
			"Type 2 diabetes",
			"Common cold",
			"Influenza",
			"Tension headache",
			"Mild anxiety",
			"Rheumatoid arthritis",
			"Bronchial asthma",
			"Chronic gastritis",
			"Atopic dermatitis",
		},
		ConsultationReasons: []string{
			"Routine check-up",
			"Headache",
			"Fever and general malaise",
			"Abdominal pain",
			"Results review",
			"Treatment follow-up",
			"Preventive consultation",
			"Respiratory symptoms",
		},
		ExamTypes: []string{
			"Complete blood count",
			"Fasting glucose",
			"Lipid profile",
			"Chest X-ray",
			"Electrocardiogram",
			"Abdominal ultrasound",
			"Urinalysis",
			"Liver function test",
			"TSH and T4",
			"Vitamin D",
		},
		ExamResults: []string{
			"Normal values",
			"Slightly elevated, requires follow-up",
			"Within normal parameters",
			"Satisfactory results",
			"New evaluation required",
		},
		Medications: []string{
			"Paracetamol 500mg",
			"Ibuprofen 400mg",
			"Amoxicillin 500mg",
			"Omeprazole 20mg",
			"Loratadine 10mg",
			"Metformin 500mg",
			"Losartan 50mg",
			"Atorvastatin 20mg",
			"Amlodipine 5mg",
			"Salbutamol inhaler",
		},
		Instructions: []string{
			"Take every 8 hours with food",
			"Take once a day on an empty stomach",
			"Apply twice a day",
			"Take with plenty of water",
			"Do not take with alcohol",
			"Continue treatment for 7 days",
			"Take before going to sleep",
		},
		ProcedureTypes: []string{
			"Minor surgery",
			"Digestive endoscopy",
			"Biopsy",
			"Surgical intervention",
			"Diagnostic procedure",
			"Invasive treatment",
			"General anesthesia",
		},
		ConsentContents: []string{
			"Informed consent for medical procedure. The patient has been informed about the risks and benefits of the procedure.",
			"Authorization to perform surgical intervention under anesthesia. Possible side effects have been explained.",
			"Consent for invasive diagnostic procedure. The patient understands the associated risks.",
			"Authorization for medical treatment. Complete information about alternatives has been provided.",
		},
	}
}

// LoadCatalog reads a YAML catalog from path. Pools missing from the file
// keep their default values.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes YAML over the default catalog, trims entries, drops
// repeated ones and validates the result.
func ParseCatalog(data []byte) (*Catalog, error) {
	c := DefaultCatalog()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	c.normalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) pools() []struct {
	name string
	pool *[]string
} {
	return []struct {
		name string
		pool *[]string
	}{
		{"diagnoses", &c.Diagnoses},
		{"consultation_reasons", &c.ConsultationReasons},
		{"exam_types", &c.ExamTypes},
		{"exam_results", &c.ExamResults},
		{"medications", &c.Medications},
		{"instructions", &c.Instructions},
		{"procedure_types", &c.ProcedureTypes},
		{"consent_contents", &c.ConsentContents},
	}
}

// normalize trims every entry and drops repeats, keeping first occurrences.
// Blank entries are kept so Validate can report them.
func (c *Catalog) normalize() {
	for _, p := range c.pools() {
		seen := make(map[string]bool, len(*p.pool))
		out := make([]string, 0, len(*p.pool))
		for _, v := range *p.pool {
			v = strings.TrimSpace(v)
			if v != "" && seen[v] {
				continue
			}
			seen[v] = true
			out = append(out, v)
		}
		*p.pool = out
	}
}

// Validate reports ErrInvalidCatalog when a pool is empty or holds a blank
// entry, or when medications has fewer distinct entries than a prescription
// can draw.
func (c *Catalog) Validate() error {
	for _, p := range c.pools() {
		if len(*p.pool) == 0 {
			return fmt.Errorf("%w: %s is empty", ErrInvalidCatalog, p.name)
		}
		for i, v := range *p.pool {
			if strings.TrimSpace(v) == "" {
				return fmt.Errorf("%w: %s[%d] is blank", ErrInvalidCatalog, p.name, i)
			}
		}
	}

	distinct := make(map[string]bool, len(c.Medications))
	for _, m := range c.Medications {
		if distinct[m] {
			return fmt.Errorf("%w: medications lists %q more than once", ErrInvalidCatalog, m)
		}
		distinct[m] = true
	}
	if len(distinct) < maxMedicationsPerPrescription {
		return fmt.Errorf("%w: medications needs at least %d distinct entries, got %d",
			ErrInvalidCatalog, maxMedicationsPerPrescription, len(distinct))
	}
	return nil
}
