package queryalias

import "testing"

func TestEntriesValidity(t *testing.T) {
	values := Entries()
	if len(values) == 0 {
		t.Fatal("Entries() must not be empty")
	}

	aliasSeen := make(map[string]struct{}, len(values))
	canonicalSeen := make(map[string]struct{}, len(values))
	for _, entry := range values {
		if entry.Alias == "" || entry.Canonical == "" {
			t.Fatalf("empty alias entry: %+v", entry)
		}
		if len(entry.Alias) > 3 {
			t.Fatalf("alias %q exceeds 3 characters", entry.Alias)
		}
		if entry.Alias == entry.Canonical {
			t.Fatalf("alias %q must differ from canonical %q", entry.Alias, entry.Canonical)
		}
		if _, ok := aliasSeen[entry.Alias]; ok {
			t.Fatalf("duplicate alias %q", entry.Alias)
		}
		aliasSeen[entry.Alias] = struct{}{}
		if _, ok := canonicalSeen[entry.Canonical]; ok {
			t.Fatalf("duplicate canonical key %q", entry.Canonical)
		}
		canonicalSeen[entry.Canonical] = struct{}{}
	}
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		alias string
		want  string
		ok    bool
	}{
		{alias: "sd", want: "senderUsername", ok: true},
		{alias: "ct", want: "content", ok: true},
		{alias: "tm", want: "timestamp", ok: true},
		{alias: "pk", want: "passkey", ok: true},
		{alias: "fi", want: "fileId", ok: true},
		{alias: "fn", want: "fileName", ok: true},
		{alias: "vb", want: "visibility", ok: true},
		{alias: "vt", want: "visibleTo", ok: true},
		{alias: "mb", want: "members", ok: true},
		{alias: "pt", want: "participants", ok: true},
		{alias: "un", want: "username", ok: true},
		{alias: "missing", want: "", ok: false},
	}

	for _, tt := range tests {
		got, ok := Canonical(tt.alias)
		if ok != tt.ok {
			t.Fatalf("Canonical(%q) ok=%v, want %v", tt.alias, ok, tt.ok)
		}
		if got != tt.want {
			t.Fatalf("Canonical(%q)=%q, want %q", tt.alias, got, tt.want)
		}
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "single alias", in: "ct", want: "content"},
		{name: "sender alias", in: "sd", want: "senderUsername"},
		{name: "passkey alias", in: "pk", want: "passkey"},
		{name: "nested path", in: "it.sd", want: "items.senderUsername"},
		{name: "visibility aliases", in: "vb.vt", want: "visibility.visibleTo"},
		{name: "group path", in: "gi.mb", want: "groupId.members"},
		{name: "file path", in: "fi.fn", want: "fileId.fileName"},
		{name: "long form unchanged", in: "senderUsername", want: "senderUsername"},
		{name: "mixed case unchanged", in: "Ct", want: "Ct"},
		{name: "unknown unchanged", in: "unknown_key", want: "unknown_key"},
		{name: "empty input", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in, ContextPath)
			if got != tt.want {
				t.Fatalf("Normalize(path, %q)=%q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeQuery(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "basic dot paths",
			in:   `.it[] | select(.sd == "alice") | .i`,
			want: `.items[] | select(.senderUsername == "alice") | .id`,
		},
		{
			name: "nested path aliases",
			in:   `.it[0].vt`,
			want: `.items[0].visibleTo`,
		},
		{
			name: "file message aliases",
			in:   `.it[] | select(.ty == "file") | .fn`,
			want: `.items[] | select(.type == "file") | .fileName`,
		},
		{
			name: "visibility scope aliases",
			in:   `.it[] | sl(.vb == "selected" and .vt != null) | .i`,
			want: `.items[] | select(.visibility == "selected" and .visibleTo != null) | .id`,
		},
		{
			name: "function aliases select and test",
			in:   `.it[] | sl(.ty == "text") | sl(.ct | ts("report"; "i"))`,
			want: `.items[] | select(.type == "text") | select(.content | test("report"; "i"))`,
		},
		{
			name: "recursive descent",
			in:   `..it | .tm`,
			want: `..items | .timestamp`,
		},
		{
			name: "quoted bracket key preserved",
			in:   `.it[0]["ct"]`,
			want: `.items[0]["ct"]`,
		},
		{
			name: "mixed case token preserved",
			in:   `.Ct | .IT | .ct`,
			want: `.Ct | .IT | .content`,
		},
		{
			name: "strings and comments preserved",
			in:   ".ct as $x | \"keep .ct and #comment\" # .ct alias here\n.it",
			want: ".content as $x | \"keep .ct and #comment\" # .ct alias here\n.items",
		},
		{
			name: "unknown token unchanged",
			in:   `.unknown_key | .ct`,
			want: `.unknown_key | .content`,
		},
		{
			name: "quoted keys only",
			in:   `.["ct"] | .["it"]`,
			want: `.["ct"] | .["it"]`,
		},
		{
			name: "variables are not rewritten as function aliases",
			in:   `.it[] | $sl | .ct`,
			want: `.items[] | $sl | .content`,
		},
		{
			name: "del builtin preserved as bare token",
			in:   `.payload | del(.temp)`,
			want: `.payload | del(.temp)`,
		},
		{
			name: "shorthand single key",
			in:   `{i}`,
			want: `{id}`,
		},
		{
			name: "shorthand multiple keys",
			in:   `{i, n}`,
			want: `{id, name}`,
		},
		{
			name: "shorthand mixed with dot path",
			in:   `{i, s: .sd}`,
			want: `{id, s: .senderUsername}`,
		},
		{
			name: "shorthand in pipeline",
			in:   `.it[] | {i, sd, ct}`,
			want: `.items[] | {id, senderUsername, content}`,
		},
		{
			name: "session payload aliases",
			in:   `{pk, cb, pt, fs: .it[-1].fs}`,
			want: `{passkey, createdBy, participants, fs: .items[-1].fileSize}`,
		},
		{
			name: "key-value pair key not rewritten",
			in:   `{i: .ct}`,
			want: `{i: .content}`,
		},
		{
			name: "key-value pair string value",
			in:   `{n: "hello"}`,
			want: `{n: "hello"}`,
		},
		{
			name: "shorthand nested braces",
			in:   `{a: {i}}`,
			want: `{a: {id}}`,
		},
		{
			name: "shorthand unknown token unchanged",
			in:   `{foo}`,
			want: `{foo}`,
		},
		{
			name: "group metadata",
			in:   `.mt.cb, .mt.ca, .mt.mb`,
			want: `.meta.createdBy, .meta.createdAt, .meta.members`,
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in, ContextQuery)
			if got != tt.want {
				t.Fatalf("Normalize(query, %q)=%q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeUnknownContext(t *testing.T) {
	in := `.ct`
	got := Normalize(in, Context(999))
	if got != in {
		t.Fatalf("Normalize with unknown context rewrote input: got %q want %q", got, in)
	}
}
