package settings

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestStaticIntList(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want []int64
	}{
		{name: "pipe string", in: "1|2|3", want: []int64{1, 2, 3}},
		{name: "comma string", in: "4, 5", want: []int64{4, 5}},
		{name: "skips garbage", in: "7|x|8", want: []int64{7, 8}},
		{name: "int slice", in: []int{9}, want: []int64{9}},
		{name: "yaml sequence", in: []any{10, "11"}, want: []int64{10, 11}},
		{name: "single int", in: 12, want: []int64{12}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Static{"k": tc.in}.IntList("k")
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
	if got := (Static{}).IntList("missing"); len(got) != 0 {
		t.Fatalf("expected empty list for missing key, got %v", got)
	}
}

func TestLayeredEnvWins(t *testing.T) {
	env := map[string]string{
		"RECRUIT_TRACKER_ENABLED":       "true",
		"RECRUIT_TRACKER_MANAGE_GROUPS": "3|4",
	}
	p := WithLookup(Static{Enabled: false, ManageGroups: "1", StatusPendingLabel: "Waiting"}, func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	if !p.Bool(Enabled) {
		t.Fatalf("expected env override for enabled")
	}
	if got := p.IntList(ManageGroups); !reflect.DeepEqual(got, []int64{3, 4}) {
		t.Fatalf("expected env manage groups, got %v", got)
	}
	if got := p.String(StatusPendingLabel); got != "Waiting" {
		t.Fatalf("expected file label, got %q", got)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yml")
	body := "enabled: true\nview_groups: [1, 2]\ndiscord_webhook_url: https://example.test/hook\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write settings: %v", err)
	}
	p, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !p.Bool(Enabled) {
		t.Fatalf("expected enabled from file")
	}
	if got := p.IntList(ViewGroups); !reflect.DeepEqual(got, []int64{1, 2}) {
		t.Fatalf("expected view groups [1 2], got %v", got)
	}
	if got := p.String(DiscordWebhookURL); got != "https://example.test/hook" {
		t.Fatalf("unexpected webhook url %q", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
