package services

import "testing"

func TestParseWebhookPayloadAliases(t *testing.T) {
	cases := []struct {
		name        string
		raw         string
		wantID      string
		wantReverse string
	}{
		{"coelsaId", `{"coelsaId":"C-1"}`, "C-1", ""},
		{"externalId", `{"externalId":"E-1"}`, "E-1", ""},
		{"coelsaId wins", `{"externalId":"E-1","coelsaId":"C-1"}`, "C-1", ""},
		{"blank coelsaId falls back", `{"coelsaId":"  ","externalId":"E-1"}`, "E-1", ""},
		{"numeric id", `{"coelsaId":12345}`, "12345", ""},
		{"null id", `{"coelsaId":null}`, "", ""},
		{"reverseExternalId", `{"coelsaId":"C","reverseExternalId":"R-1"}`, "C", "R-1"},
		{"reverseCoelsaId", `{"coelsaId":"C","reverseCoelsaId":"R-2"}`, "C", "R-2"},
		{"reverse precedence", `{"reverseCoelsaId":"R-2","reverseExternalId":"R-1"}`, "", "R-1"},
		{"empty body", ``, "", ""},
	}
	for _, tc := range cases {
		got, err := ParseWebhookPayload([]byte(tc.raw))
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if got.ExternalID != tc.wantID || got.ReverseExternalID != tc.wantReverse {
			t.Fatalf("%s: want=(%q,%q) got=(%q,%q)", tc.name, tc.wantID, tc.wantReverse, got.ExternalID, got.ReverseExternalID)
		}
	}
}

func TestParseWebhookPayloadMalformed(t *testing.T) {
	if _, err := ParseWebhookPayload([]byte(`{"coelsaId":`)); err == nil {
		t.Fatalf("expected error for malformed json")
	}
}

