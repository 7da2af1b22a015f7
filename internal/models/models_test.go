package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestAPIFieldsAreCamelCase(t *testing.T) {
	t.Parallel()

	values := []any{
		&StoreCredential{ShopDomain: "acme.myshopify.com", EncryptedAccessToken: "a:b:c:d"},
		&Email{Status: EmailStatusDraft},
		&BrandVoice{},
		&Campaign{},
		&Blueprint{},
	}

	for _, v := range values {
		raw, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal %T: %v", v, err)
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			t.Fatalf("unmarshal %T: %v", v, err)
		}
		for key := range fields {
			if strings.Contains(key, "_") {
				t.Fatalf("%T exposes snake_case field %q", v, key)
			}
		}
	}
}

func TestStoreCredentialHidesToken(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(&StoreCredential{ShopDomain: "acme.myshopify.com", EncryptedAccessToken: "a:b:c:d"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(raw), "a:b:c:d") {
		t.Fatalf("encrypted token leaked: %s", raw)
	}
	if !strings.Contains(string(raw), `"shopDomain":"acme.myshopify.com"`) {
		t.Fatalf("unexpected body: %s", raw)
	}
}
