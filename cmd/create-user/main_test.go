package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrompt(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "ayse\nayse@example.com\ns3cretpass\n", false},
		{"trims whitespace", "  ayse \n ayse@example.com\n s3cretpass \n", false},
		{"missing username", "\nayse@example.com\ns3cretpass\n", true},
		{"short password", "ayse\nayse@example.com\nshort\n", true},
		{"eof", "ayse\n", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			u, err := prompt(strings.NewReader(tc.input), &out)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if !tc.wantErr && (u.Username != "ayse" || u.Password != "s3cretpass") {
				t.Errorf("unexpected user %+v", u)
			}
			if !strings.Contains(out.String(), "Username: ") {
				t.Errorf("expected prompts on the writer, got %q", out.String())
			}
		})
	}
}
