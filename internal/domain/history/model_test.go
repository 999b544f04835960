package history

import "testing"

func TestConsent_IsSigned(t *testing.T) {
	c := &Consent{Status: ConsentSigned}
	if !c.IsSigned() {
		t.Error("expected signed consent to report IsSigned")
	}
	c.Status = ConsentPending
	if c.IsSigned() {
		t.Error("expected pending consent not to report IsSigned")
	}
}
